package rediscache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

type memoryStore struct {
	data    map[string][]byte
	failGet bool
	sets    int
	dels    []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.failGet {
		return nil, errors.New("connection refused")
	}
	v, ok := m.data[key]
	if !ok {
		return nil, errMiss
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.sets++
	m.data[key] = value
	return nil
}

func (m *memoryStore) Del(_ context.Context, key string) error {
	m.dels = append(m.dels, key)
	delete(m.data, key)
	return nil
}

type countingRepo struct {
	record  *domain.FlatRecord
	gets    int
	upserts int
	failErr error
}

func (r *countingRepo) GetFlat(_ context.Context, id string) (*domain.FlatRecord, error) {
	r.gets++
	if r.record == nil || r.record.Flat.ID != id {
		return nil, domain.ErrFlatNotFound
	}
	return r.record, nil
}

func (r *countingRepo) UpsertFlat(_ context.Context, _ domain.Flat, _ domain.PricePoint) error {
	r.upserts++
	return r.failErr
}

func sampleRecord() *domain.FlatRecord {
	at := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	return &domain.FlatRecord{
		Flat: domain.Flat{
			ID: "abc", Source: domain.SourcePP, DealType: domain.DealTypeSell, City: "Riga", District: "Centre",
			Street: "Avotu 1", Rooms: 2, Area: decimal.RequireFromString("54.3"), Floor: 2, FloorsTotal: 5,
			Series: "Stalin", URL: "https://pp.lv/1", Price: decimal.NewFromInt(90000),
		},
		Prices: []domain.PricePoint{{FlatID: "abc", Price: decimal.NewFromInt(90000), RecordedAt: at}},
	}
}

func TestGetFlatFillsAndServesCache(t *testing.T) {
	repo := &countingRepo{record: sampleRecord()}
	s := newMemoryStore()
	cache := newFlatRepositoryCache(repo, s, time.Minute)
	ctx := context.Background()

	first, err := cache.GetFlat(ctx, "abc")
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	second, err := cache.GetFlat(ctx, "abc")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}

	if repo.gets != 1 {
		t.Errorf("storage should be hit once, got %d", repo.gets)
	}
	if s.sets != 1 {
		t.Errorf("cache should be filled once, got %d", s.sets)
	}
	if !second.Flat.Area.Equal(first.Flat.Area) || second.Flat.Street != "Avotu 1" {
		t.Errorf("cached flat differs: %+v", second.Flat)
	}
	if len(second.Prices) != 1 || !second.Prices[0].Price.Equal(decimal.NewFromInt(90000)) ||
		!second.Prices[0].RecordedAt.Equal(first.Prices[0].RecordedAt) {
		t.Errorf("cached prices differ: %+v", second.Prices)
	}
}

func TestGetFlatNotFoundIsNotCached(t *testing.T) {
	repo := &countingRepo{}
	s := newMemoryStore()
	cache := newFlatRepositoryCache(repo, s, time.Minute)

	_, err := cache.GetFlat(context.Background(), "missing")
	if !errors.Is(err, domain.ErrFlatNotFound) {
		t.Fatalf("expected ErrFlatNotFound, got %v", err)
	}
	if s.sets != 0 {
		t.Error("misses must not be cached")
	}
}

func TestGetFlatBypassesBrokenCache(t *testing.T) {
	repo := &countingRepo{record: sampleRecord()}
	s := newMemoryStore()
	s.failGet = true
	cache := newFlatRepositoryCache(repo, s, time.Minute)

	if _, err := cache.GetFlat(context.Background(), "abc"); err != nil {
		t.Fatalf("cache failure must not surface: %v", err)
	}
	if repo.gets != 1 {
		t.Errorf("storage should serve the read, got %d gets", repo.gets)
	}
}

func TestUpsertInvalidatesOnlyAfterSuccess(t *testing.T) {
	repo := &countingRepo{record: sampleRecord()}
	s := newMemoryStore()
	cache := newFlatRepositoryCache(repo, s, time.Minute)
	ctx := context.Background()

	if _, err := cache.GetFlat(ctx, "abc"); err != nil {
		t.Fatalf("get: %v", err)
	}

	repo.failErr = errors.New("db down")
	if err := cache.UpsertFlat(ctx, repo.record.Flat, domain.PricePoint{}); err == nil {
		t.Fatal("storage error must surface")
	}
	if len(s.dels) != 0 {
		t.Error("failed write must not invalidate")
	}

	repo.failErr = nil
	if err := cache.UpsertFlat(ctx, repo.record.Flat, domain.PricePoint{}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if len(s.dels) != 1 || s.dels[0] != "flat:abc" {
		t.Errorf("invalidated keys: %v", s.dels)
	}
}
