package city24

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/shared"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

func testMapping(dealType domain.DealType) domain.ResolvedMapping {
	return domain.ResolvedMapping{
		Source:               domain.SourceCity24,
		DealType:             dealType,
		PlatformDealTypeCode: "sale",
		Cities:               map[string]string{"245396": "Riga"},
		Districts:            map[string]string{"245403": "Centre"},
		BuildingSeries:       map[string]string{"HOUSE_TYPE_STONE": "Brick"},
	}
}

type recordingThumbnails struct {
	urls []string
}

func (r *recordingThumbnails) Thumbnail(_ context.Context, imageURL string) []byte {
	r.urls = append(r.urls, imageURL)
	return []byte{0xff, 0xd8}
}

func readFixture(t *testing.T) []byte {
	t.Helper()
	body, err := os.ReadFile("testdata/realties.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return body
}

func TestParseListingPage(t *testing.T) {
	page, err := parseListingPage(context.Background(), readFixture(t))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(page.Items) != 2 || page.PageSize != PageSize {
		t.Fatalf("got %d items, page size %d", len(page.Items), page.PageSize)
	}
	wantListed := time.Date(2024, 3, 5, 8, 15, 0, 0, time.UTC)
	if page.Items[0].AdID != "k7aXq2" || !page.Items[0].ListedAt.Equal(wantListed) {
		t.Errorf("head: got %q at %v", page.Items[0].AdID, page.Items[0].ListedAt)
	}

	if _, err := parseListingPage(context.Background(), []byte(`{"error":"bad"}`)); err == nil {
		t.Error("non-array body must fail")
	}
}

func TestBuilder(t *testing.T) {
	page, err := parseListingPage(context.Background(), readFixture(t))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	thumbs := &recordingThumbnails{}
	b := NewBuilderAdapter(testMapping(domain.DealTypeSell), "245396", thumbs)
	partition := domain.Partition{Code: "245403", Name: "Centre"}

	res := b.Build(context.Background(), partition, page.Items[0])
	if !res.IsOK() {
		t.Fatalf("first realty should be valid: %v", res.Reason())
	}
	flat := res.Flat()

	if flat.Floor != 4 || flat.FloorsTotal != 7 {
		t.Errorf("floors must be swapped: got %d/%d", flat.Floor, flat.FloorsTotal)
	}
	if !flat.Price.Equal(decimal.NewFromInt(90000)) {
		t.Errorf("price = per unit * area: got %s", flat.Price)
	}
	if flat.Street != "Tērbatas iela 14" || flat.City != "Riga" || flat.Series != "Brick" {
		t.Errorf("attributes: %q %q %q", flat.Street, flat.City, flat.Series)
	}
	if flat.URL != "https://www.city24.lv/real-estate/apartments-for-sale/riga/k7aXq2" {
		t.Errorf("url: %q", flat.URL)
	}
	if flat.Latitude != 56.9571 || flat.Longitude != 24.1275 {
		t.Errorf("coordinates: %v %v", flat.Latitude, flat.Longitude)
	}
	if len(thumbs.urls) != 1 || thumbs.urls[0] != "https://c24ee.img-bcg.eu/object/11/5555/14/1234.jpg" {
		t.Errorf("thumbnail url: %v", thumbs.urls)
	}

	if res := b.Build(context.Background(), partition, page.Items[1]); res.IsOK() {
		t.Error("realty without floor must be invalid")
	}
}

func TestBuilderRentURLAndUnknownStreet(t *testing.T) {
	b := NewBuilderAdapter(testMapping(domain.DealTypeRent), "245396", nil)
	payload := `{"friendly_id":"z1","price_per_unit":"12.5","property_size":40,"room_count":1,
		"address":{"street_name":null,"house_number":3},"attributes":{"FLOOR":2,"TOTAL_FLOORS":5}}`

	res := b.Build(context.Background(), domain.Partition{Code: "245403", Name: "Centre"}, domain.RawListing{AdID: "z1", Payload: []byte(payload)})
	if !res.IsOK() {
		t.Fatalf("expected ok, got %v", res.Reason())
	}
	flat := res.Flat()
	if flat.URL != "https://www.city24.lv/real-estate/apartments-for-rent/riga/z1" {
		t.Errorf("url: %q", flat.URL)
	}
	if flat.Street != "Unknown 3" {
		t.Errorf("street: %q", flat.Street)
	}
	if flat.Series != domain.Unknown {
		t.Errorf("series: %q", flat.Series)
	}
	if !flat.Price.Equal(decimal.NewFromInt(500)) {
		t.Errorf("price: %s", flat.Price)
	}
}

func TestFetchPageQuery(t *testing.T) {
	fixture := readFixture(t)
	var (
		mu    sync.Mutex
		query url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		query = r.URL.Query()
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(fixture)
	}))
	defer srv.Close()

	collector, err := shared.NewCollector(shared.CollectorConfig{MaxConnsPerHost: 2, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("collector: %v", err)
	}
	windowStart := time.Date(2024, 3, 4, 22, 0, 0, 0, time.UTC)
	fetcher := NewFetcherAdapter(collector, srv.URL, testMapping(domain.DealTypeSell), "245396", func() time.Time { return windowStart })

	page, err := fetcher.FetchPage(context.Background(), domain.Partition{Code: "245403", Name: "Centre"}, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.Number != 2 || len(page.Items) != 2 {
		t.Errorf("page %d with %d items", page.Number, len(page.Items))
	}

	mu.Lock()
	defer mu.Unlock()
	want := map[string]string{
		"address[city]":       "245396",
		"address[district][]": "245403",
		"tsType":              "sale",
		"unitType":            "Apartment",
		"itemsPerPage":        "50",
		"page":                "2",
		"datePublished[gte]":  "1709589600",
	}
	for k, v := range want {
		if got := query.Get(k); got != v {
			t.Errorf("%s: got %q, want %q", k, got, v)
		}
	}
}
