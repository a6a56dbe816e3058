package city24

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/shared"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

const (
	DefaultBaseURL = "https://api.city24.lv/lv_LV/search/realties"
	PageSize       = 50
)

// FetcherAdapter загружает выдачу City24 по районам.
// Окно задается параметром datePublished[gte], поэтому порядок выдачи не важен.
type FetcherAdapter struct {
	collector   *colly.Collector
	baseURL     string
	mapping     domain.ResolvedMapping
	cityCode    string
	windowStart func() time.Time
}

func NewFetcherAdapter(collector *colly.Collector, baseURL string, mapping domain.ResolvedMapping, cityCode string, windowStart func() time.Time) *FetcherAdapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &FetcherAdapter{
		collector:   collector,
		baseURL:     baseURL,
		mapping:     mapping,
		cityCode:    cityCode,
		windowStart: windowStart,
	}
}

func (a *FetcherAdapter) Target() domain.CrawlTarget {
	return domain.CrawlTarget{Source: domain.SourceCity24, DealType: a.mapping.DealType}
}

func (a *FetcherAdapter) Partitions() []domain.Partition {
	return shared.Partitions(a.mapping.Districts)
}

func (a *FetcherAdapter) NewestFirst() bool {
	return false
}

func (a *FetcherAdapter) query(partition domain.Partition, page int) url.Values {
	q := url.Values{}
	q.Set("address[city]", a.cityCode)
	q.Set("address[district][]", partition.Code)
	q.Set("tsType", a.mapping.PlatformDealTypeCode)
	q.Set("unitType", "Apartment")
	q.Set("itemsPerPage", strconv.Itoa(PageSize))
	q.Set("page", strconv.Itoa(page))
	q.Set("datePublished[gte]", strconv.FormatInt(a.windowStart().Unix(), 10))
	return q
}

func (a *FetcherAdapter) FetchPage(ctx context.Context, partition domain.Partition, page int) (*domain.ListingPage, error) {
	body, err := shared.Fetch(ctx, a.collector, shared.Request{
		URL:     a.baseURL,
		Query:   a.query(partition, page),
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("city24 adapter: %w", err)
	}

	result, err := parseListingPage(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("city24 adapter: %w", err)
	}
	result.Number = page
	return result, nil
}

func parseListingPage(ctx context.Context, body []byte) (*domain.ListingPage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to decode realties: %w", err)
	}

	result := &domain.ListingPage{PageSize: PageSize, Items: make([]domain.RawListing, 0, len(items))}
	for _, item := range items {
		var head struct {
			FriendlyID    string `json:"friendly_id"`
			DatePublished string `json:"date_published"`
		}
		shared.DecodeHead(ctx, item, &head)
		result.Items = append(result.Items, domain.RawListing{
			AdID:     head.FriendlyID,
			ListedAt: shared.ParseTimeUTC(head.DatePublished),
			Payload:  item,
		})
	}
	return result, nil
}
