package pp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/gocolly/colly/v2"

	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/shared"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

const (
	DefaultBaseURL = "https://apipub.pp.lv/lv/api_user/v1/categories/3811/lots"
	PageSize       = 20
)

// FetcherAdapter обходит весь город одним списком: район приходит в самом объявлении
type FetcherAdapter struct {
	collector *colly.Collector
	baseURL   string
	mapping   domain.ResolvedMapping
	cityCode  string
}

func NewFetcherAdapter(collector *colly.Collector, baseURL string, mapping domain.ResolvedMapping, cityCode string) *FetcherAdapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &FetcherAdapter{collector: collector, baseURL: baseURL, mapping: mapping, cityCode: cityCode}
}

func (a *FetcherAdapter) Target() domain.CrawlTarget {
	return domain.CrawlTarget{Source: domain.SourcePP, DealType: a.mapping.DealType}
}

func (a *FetcherAdapter) Partitions() []domain.Partition {
	return []domain.Partition{{Code: a.cityCode, Name: a.mapping.City(a.cityCode)}}
}

// NewestFirst - выдача отсортирована по orderDate DESC
func (a *FetcherAdapter) NewestFirst() bool {
	return true
}

func priceTypes(dealType domain.DealType) (full, square int) {
	if dealType == domain.DealTypeRent {
		return priceRentFull, priceRentSquare
	}
	return priceSellFull, priceSellSquare
}

func (a *FetcherAdapter) query(partition domain.Partition, page int) url.Values {
	full, square := priceTypes(a.mapping.DealType)
	q := url.Values{}
	q.Set("region", partition.Code)
	q.Set("action", a.mapping.PlatformDealTypeCode)
	q.Set("orderColumn", "orderDate")
	q.Set("orderDirection", "DESC")
	q.Set("priceTypes[0]", strconv.Itoa(full))
	q.Set("priceTypes[1]", strconv.Itoa(square))
	q.Set("currentPage", strconv.Itoa(page))
	return q
}

func (a *FetcherAdapter) FetchPage(ctx context.Context, partition domain.Partition, page int) (*domain.ListingPage, error) {
	body, err := shared.Fetch(ctx, a.collector, shared.Request{
		URL:     a.baseURL,
		Query:   a.query(partition, page),
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("pp adapter: %w", err)
	}

	result, err := parseListingPage(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("pp adapter: %w", err)
	}
	result.Number = page
	return result, nil
}

func parseListingPage(ctx context.Context, body []byte) (*domain.ListingPage, error) {
	var envelope struct {
		Content struct {
			Data []json.RawMessage `json:"data"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode lots: %w", err)
	}

	result := &domain.ListingPage{PageSize: PageSize, Items: make([]domain.RawListing, 0, len(envelope.Content.Data))}
	for _, item := range envelope.Content.Data {
		var head struct {
			ID          shared.FlexString `json:"id"`
			FrontURL    string            `json:"frontUrl"`
			PublishDate string            `json:"publishDate"`
		}
		shared.DecodeHead(ctx, item, &head)

		adID := head.ID.String()
		if adID == "" {
			adID = head.FrontURL
		}
		result.Items = append(result.Items, domain.RawListing{
			AdID:     adID,
			ListedAt: shared.ParseTimeUTC(head.PublishDate),
			Payload:  item,
		})
	}
	return result, nil
}
