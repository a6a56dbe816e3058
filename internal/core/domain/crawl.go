package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// CrawlTarget - пара площадка + тип сделки, для которой существует свой обходчик
type CrawlTarget struct {
	Source   Source
	DealType DealType
}

func (t CrawlTarget) String() string {
	return fmt.Sprintf("%s/%s", t.Source, t.DealType)
}

// Partition - единица параллельного обхода внутри площадки (обычно район)
type Partition struct {
	Code string
	Name string
}

// RawListing - сырое объявление, как его отдала площадка.
// Payload разбирает билдер соответствующей площадки.
type RawListing struct {
	AdID     string
	ListedAt time.Time
	Payload  json.RawMessage
}

// ListingPage - одна страница выдачи.
// LastPage > 0, если площадка сообщает номер последней страницы.
type ListingPage struct {
	Number   int
	Items    []RawListing
	PageSize int
	LastPage int
}

// CrawlStats - счетчики одного цикла обхода
type CrawlStats struct {
	Pages        int `json:"pages"`
	FailedPages  int `json:"failed_pages"`
	Items        int `json:"items"`
	Invalid      int `json:"invalid"`
	New          int `json:"new"`
	Unchanged    int `json:"unchanged"`
	PriceChanged int `json:"price_changed"`
	Failed       int `json:"failed"`
}

func (s *CrawlStats) Add(other CrawlStats) {
	s.Pages += other.Pages
	s.FailedPages += other.FailedPages
	s.Items += other.Items
	s.Invalid += other.Invalid
	s.New += other.New
	s.Unchanged += other.Unchanged
	s.PriceChanged += other.PriceChanged
	s.Failed += other.Failed
}

// Count учитывает результат обработки одной квартиры
func (s *CrawlStats) Count(kind ChangeKind) {
	switch kind {
	case ChangeNew:
		s.New++
	case ChangeUnchanged:
		s.Unchanged++
	case ChangePriceChanged:
		s.PriceChanged++
	}
}

// CrawlRun - запись журнала обходов
type CrawlRun struct {
	RunID      uuid.UUID
	Target     CrawlTarget
	StartedAt  time.Time
	FinishedAt time.Time
	Stats      CrawlStats
}

// SelectTargets оставляет из configured пары, подходящие под фильтры.
// Пустой фильтр не ограничивает выборку.
func SelectTargets(configured []CrawlTarget, sources []Source, dealTypes []DealType) []CrawlTarget {
	out := make([]CrawlTarget, 0, len(configured))
	for _, t := range configured {
		if len(sources) > 0 && !slices.Contains(sources, t.Source) {
			continue
		}
		if len(dealTypes) > 0 && !slices.Contains(dealTypes, t.DealType) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ParseTargetFilter разбирает внешние имена площадок и типов сделки
func ParseTargetFilter(sources, dealTypes []string) ([]Source, []DealType, error) {
	parsedSources := make([]Source, 0, len(sources))
	for _, s := range sources {
		src, err := ParseSource(s)
		if err != nil {
			return nil, nil, err
		}
		parsedSources = append(parsedSources, src)
	}
	parsedDeals := make([]DealType, 0, len(dealTypes))
	for _, d := range dealTypes {
		dt, err := ParseDealType(d)
		if err != nil {
			return nil, nil, err
		}
		parsedDeals = append(parsedDeals, dt)
	}
	return parsedSources, parsedDeals, nil
}

// ResolveTargets разбирает внешний запрос на обход.
// Пустые фильтры дают nil, то есть все сконфигурированные пары.
func ResolveTargets(configured []CrawlTarget, sources, dealTypes []string) ([]CrawlTarget, error) {
	if len(sources) == 0 && len(dealTypes) == 0 {
		return nil, nil
	}
	parsedSources, parsedDeals, err := ParseTargetFilter(sources, dealTypes)
	if err != nil {
		return nil, err
	}
	targets := SelectTargets(configured, parsedSources, parsedDeals)
	if len(targets) == 0 {
		return nil, ErrNoMatchingTargets
	}
	return targets, nil
}
