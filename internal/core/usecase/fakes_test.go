package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

type fakeFlatRepo struct {
	mu        sync.Mutex
	records   map[string]*domain.FlatRecord
	getErr    error
	upsertErr error
	upserts   int
}

func newFakeFlatRepo() *fakeFlatRepo {
	return &fakeFlatRepo{records: make(map[string]*domain.FlatRecord)}
}

func (r *fakeFlatRepo) GetFlat(ctx context.Context, id string) (*domain.FlatRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrFlatNotFound
	}
	cp := *rec
	cp.Prices = append([]domain.PricePoint(nil), rec.Prices...)
	return &cp, nil
}

func (r *fakeFlatRepo) UpsertFlat(ctx context.Context, flat domain.Flat, price domain.PricePoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserts++
	rec, ok := r.records[flat.ID]
	if !ok {
		rec = &domain.FlatRecord{}
		r.records[flat.ID] = rec
	}
	rec.Flat = flat
	rec.Prices = append(rec.Prices, price)
	return nil
}

type fakeSubscriberRepo struct {
	filterIDs []int64
	active    []int64
	filters   []domain.Subscription
	err       error
	calls     int
}

func (r *fakeSubscriberRepo) FindSubscribersForFilter(ctx context.Context, c domain.MatchCriteria) ([]int64, error) {
	r.calls++
	return r.filterIDs, r.err
}

func (r *fakeSubscriberRepo) ListActiveUsers(ctx context.Context) ([]int64, error) {
	r.calls++
	return r.active, r.err
}

func (r *fakeSubscriberRepo) ListFilters(ctx context.Context) ([]domain.Subscription, error) {
	r.calls++
	return r.filters, r.err
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []port.DeliveryJob
}

func (q *fakeQueue) Enqueue(job port.DeliveryJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
}

func (q *fakeQueue) Stats() domain.NotificationStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return domain.NotificationStats{Pending: len(q.jobs)}
}

// runAll выполняет накопленные задачи так, как это сделал бы диспетчер
func (q *fakeQueue) runAll(ctx context.Context) []error {
	q.mu.Lock()
	jobs := q.jobs
	q.jobs = nil
	q.mu.Unlock()

	var errs []error
	for _, job := range jobs {
		errs = append(errs, job(ctx))
	}
	return errs
}

type sentMessage struct {
	recipient int64
	text      string
	photo     bool
	actions   []domain.Action
}

type fakeSink struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *fakeSink) DeliverText(ctx context.Context, recipient int64, text string, actions []domain.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{recipient: recipient, text: text, actions: actions})
	return s.err
}

func (s *fakeSink) DeliverPhoto(ctx context.Context, recipient int64, photo []byte, caption string, actions []domain.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{recipient: recipient, text: caption, photo: true, actions: actions})
	return s.err
}

type fakeEvents struct {
	mu     sync.Mutex
	events []domain.FlatEvent
	err    error
}

func (e *fakeEvents) Publish(ctx context.Context, event domain.FlatEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.err
}

// fakeFetcher отдает заранее заданные страницы; ключ - номер страницы
type fakeFetcher struct {
	mu          sync.Mutex
	target      domain.CrawlTarget
	partitions  []domain.Partition
	newestFirst bool
	pages       map[int]*domain.ListingPage
	failures    map[int]int // сколько раз страница упадет перед успехом
	calls       map[int]int
}

func (f *fakeFetcher) Target() domain.CrawlTarget     { return f.target }
func (f *fakeFetcher) Partitions() []domain.Partition { return f.partitions }
func (f *fakeFetcher) NewestFirst() bool              { return f.newestFirst }

func (f *fakeFetcher) FetchPage(ctx context.Context, p domain.Partition, page int) (*domain.ListingPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[int]int)
	}
	f.calls[page]++
	if f.failures[page] > 0 {
		f.failures[page]--
		return nil, errors.New("connection reset")
	}
	result, ok := f.pages[page]
	if !ok {
		return &domain.ListingPage{Number: page, PageSize: 20}, nil
	}
	return result, nil
}

func (f *fakeFetcher) callCount(page int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[page]
}

// rawItem - полезная нагрузка, которую понимает fakeBuilder
type rawItem struct {
	Rooms int   `json:"rooms"`
	Price int64 `json:"price"`
}

func makeRaw(adID string, rooms int, price int64, listedAt time.Time) domain.RawListing {
	payload, _ := json.Marshal(rawItem{Rooms: rooms, Price: price})
	return domain.RawListing{AdID: adID, ListedAt: listedAt, Payload: payload}
}

func makePage(number, size, count int, listedAt time.Time) *domain.ListingPage {
	items := make([]domain.RawListing, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, makeRaw(fmt.Sprintf("p%d-%d", number, i), 2, int64(50000+number*1000+i), listedAt))
	}
	return &domain.ListingPage{Number: number, Items: items, PageSize: size}
}

type fakeBuilder struct{}

func (fakeBuilder) Build(ctx context.Context, p domain.Partition, raw domain.RawListing) domain.BuildResult {
	var item rawItem
	if err := json.Unmarshal(raw.Payload, &item); err != nil {
		return domain.Invalid(err)
	}
	return domain.Finalize(domain.Flat{
		Source:      domain.SourcePP,
		DealType:    domain.DealTypeSell,
		City:        "Rīga",
		District:    p.Name,
		Street:      "Street " + raw.AdID,
		Rooms:       item.Rooms,
		Area:        decimal.NewFromInt(50),
		Floor:       2,
		FloorsTotal: 5,
		Series:      domain.Unknown,
		URL:         "https://example.test/" + raw.AdID,
		Price:       decimal.NewFromInt(item.Price),
	})
}

type fakeProcess struct {
	mu        sync.Mutex
	processed []domain.Flat
	err       error
}

func (p *fakeProcess) Execute(ctx context.Context, flat domain.Flat) (domain.ChangeKind, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed = append(p.processed, flat)
	if p.err != nil {
		return "", p.err
	}
	return domain.ChangeNew, nil
}

func (p *fakeProcess) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.processed)
}

func testFlat(price int64) domain.Flat {
	res := domain.Finalize(domain.Flat{
		Source:      domain.SourceSS,
		DealType:    domain.DealTypeSell,
		City:        "Rīga",
		District:    "Centrs",
		Street:      "Brīvības 120",
		Rooms:       2,
		Area:        decimal.RequireFromString("54.3"),
		Floor:       3,
		FloorsTotal: 5,
		Series:      "Lit. pr.",
		URL:         "https://www.ss.lv/msg/lv/real-estate/flats/riga/centre/abc.html",
		Price:       decimal.NewFromInt(price),
		PricePerM2:  decimal.NewFromInt(price / 54),
	})
	return res.Flat()
}
