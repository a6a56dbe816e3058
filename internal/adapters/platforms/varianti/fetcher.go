package varianti

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gocolly/colly/v2"

	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/shared"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

const (
	DefaultBaseURL = "https://api.varianti.lv/rest/list/ad"
	PageSize       = 100
	countryLatvia  = 1
)

// FetcherAdapter загружает выдачу varianti.lv по районам.
// Площадка сортирует по дате создания, поэтому страница пересортировывается по дате обновления.
type FetcherAdapter struct {
	collector *colly.Collector
	baseURL   string
	mapping   domain.ResolvedMapping
}

func NewFetcherAdapter(collector *colly.Collector, baseURL string, mapping domain.ResolvedMapping) *FetcherAdapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &FetcherAdapter{collector: collector, baseURL: baseURL, mapping: mapping}
}

func (a *FetcherAdapter) Target() domain.CrawlTarget {
	return domain.CrawlTarget{Source: domain.SourceVarianti, DealType: a.mapping.DealType}
}

func (a *FetcherAdapter) Partitions() []domain.Partition {
	return shared.Partitions(a.mapping.Districts)
}

func (a *FetcherAdapter) NewestFirst() bool {
	return true
}

func (a *FetcherAdapter) requestBody(partition domain.Partition, page int) ([]byte, error) {
	dealType, err := strconv.Atoi(a.mapping.PlatformDealTypeCode)
	if err != nil {
		return nil, fmt.Errorf("deal type code %q is not numeric", a.mapping.PlatformDealTypeCode)
	}
	district, err := strconv.Atoi(partition.Code)
	if err != nil {
		return nil, fmt.Errorf("district code %q is not numeric", partition.Code)
	}

	return json.Marshal(searchRequest{
		Filters: searchFilters{
			AddressCountry:  countryLatvia,
			DealType:        dealType,
			AddressDistrict: district,
			IsPromoted:      false,
			Features:        []string{},
		},
		// страницы varianti.lv нумеруются с нуля
		Page:  page - 1,
		Size:  PageSize,
		Order: searchOrder{Asc: "false", Field: "DATE"},
	})
}

func (a *FetcherAdapter) FetchPage(ctx context.Context, partition domain.Partition, page int) (*domain.ListingPage, error) {
	body, err := a.requestBody(partition, page)
	if err != nil {
		return nil, fmt.Errorf("varianti adapter: %w", err)
	}

	resp, err := shared.Fetch(ctx, a.collector, shared.Request{
		URL:     a.baseURL,
		Body:    body,
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("varianti adapter: %w", err)
	}

	result, err := parseListingPage(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("varianti adapter: %w", err)
	}
	result.Number = page
	return result, nil
}

func parseListingPage(ctx context.Context, body []byte) (*domain.ListingPage, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode ads: %w", err)
	}
	if len(resp.ErrorDescriptions) > 0 {
		return nil, fmt.Errorf("api error: %s", strings.Join(resp.ErrorDescriptions, "; "))
	}

	type entry struct {
		raw     domain.RawListing
		updated int64
	}
	entries := make([]entry, 0, len(resp.Result.List))
	for _, item := range resp.Result.List {
		var head struct {
			ID     shared.FlexString `json:"id"`
			Object struct {
				DateUpdate int64 `json:"date_update"`
			} `json:"object"`
		}
		shared.DecodeHead(ctx, item, &head)
		entries = append(entries, entry{
			raw: domain.RawListing{
				AdID:     head.ID.String(),
				ListedAt: shared.FromUnixMillis(head.Object.DateUpdate),
				Payload:  item,
			},
			updated: head.Object.DateUpdate,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].updated > entries[j].updated })

	result := &domain.ListingPage{PageSize: PageSize, LastPage: resp.Result.Pages, Items: make([]domain.RawListing, 0, len(entries))}
	for _, e := range entries {
		result.Items = append(result.Items, e.raw)
	}
	return result, nil
}
