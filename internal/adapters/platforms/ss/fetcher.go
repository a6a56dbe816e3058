package ss

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/shared"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

const DefaultBaseURL = "https://www.ss.lv"

// cellsPerRow - улица, комнаты, площадь, этажи, серия, цена за м2, цена
const cellsPerRow = 7

// listingRow - полезная нагрузка RawListing для ss.lv
type listingRow struct {
	URL      string   `json:"url"`
	Cells    []string `json:"cells"`
	ImageURL string   `json:"image_url,omitempty"`
}

// FetcherAdapter загружает HTML-страницы выдачи ss.lv по районам
type FetcherAdapter struct {
	// родительский коллектор, общий для всех районов площадки
	collector *colly.Collector
	baseURL   string
	mapping   domain.ResolvedMapping
	cityCode  string
	timeframe domain.Timeframe
}

func NewFetcherAdapter(collector *colly.Collector, baseURL string, mapping domain.ResolvedMapping, cityCode string, timeframe domain.Timeframe) *FetcherAdapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeframe == "" {
		timeframe = domain.DefaultTimeframe
	}
	return &FetcherAdapter{
		collector: collector,
		baseURL:   strings.TrimRight(baseURL, "/"),
		mapping:   mapping,
		cityCode:  cityCode,
		timeframe: timeframe,
	}
}

func (a *FetcherAdapter) Target() domain.CrawlTarget {
	return domain.CrawlTarget{Source: domain.SourceSS, DealType: a.mapping.DealType}
}

func (a *FetcherAdapter) Partitions() []domain.Partition {
	return shared.Partitions(a.mapping.Districts)
}

// NewestFirst - ss.lv сам ограничивает выдачу окном через timeframe в URL
func (a *FetcherAdapter) NewestFirst() bool {
	return false
}

func (a *FetcherAdapter) pageURL(partition domain.Partition, page int) string {
	base := fmt.Sprintf("%s/real-estate/flats/%s/%s/%s/%s/",
		a.baseURL, a.cityCode, partition.Code, a.timeframe, a.mapping.PlatformDealTypeCode)
	if page <= 1 {
		return base
	}
	return fmt.Sprintf("%spage%d.html", base, page)
}

func (a *FetcherAdapter) FetchPage(ctx context.Context, partition domain.Partition, page int) (*domain.ListingPage, error) {
	body, err := shared.Fetch(ctx, a.collector, shared.Request{URL: a.pageURL(partition, page)})
	if err != nil {
		return nil, fmt.Errorf("ss adapter: %w", err)
	}

	result, err := parseListingPage(body, a.baseURL)
	if err != nil {
		return nil, fmt.Errorf("ss adapter: %w", err)
	}
	result.Number = page
	return result, nil
}

// parseListingPage разбирает таблицу объявлений. Каждая строка tr_<id> - одно объявление.
func parseListingPage(body []byte, baseURL string) (*domain.ListingPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	result := &domain.ListingPage{LastPage: 1}

	doc.Find("a.navi").Each(func(_ int, s *goquery.Selection) {
		if n, err := strconv.Atoi(strings.TrimSpace(s.Text())); err == nil && n > result.LastPage {
			result.LastPage = n
		}
	})

	var rowErr error
	doc.Find("tr[id^='tr_']").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		id, _ := row.Attr("id")
		adID := strings.TrimPrefix(id, "tr_")
		if _, err := strconv.ParseInt(adID, 10, 64); err != nil {
			// рекламные строки вида tr_bnr_*
			return true
		}

		href, ok := row.Find("a.am").Attr("href")
		if !ok {
			return true
		}

		listing := listingRow{URL: baseURL + href}
		row.Find("td.msga2-o.pp6").Each(func(_ int, cell *goquery.Selection) {
			listing.Cells = append(listing.Cells, strings.TrimSpace(cell.Text()))
		})
		if src, ok := row.Find("img.isfoto").Attr("src"); ok && src != "" {
			listing.ImageURL = strings.Replace(src, "th2", "800", 1)
		}

		payload, err := json.Marshal(listing)
		if err != nil {
			rowErr = err
			return false
		}
		result.Items = append(result.Items, domain.RawListing{AdID: adID, Payload: payload})
		return true
	})
	if rowErr != nil {
		return nil, fmt.Errorf("failed to encode listing: %w", rowErr)
	}

	return result, nil
}
