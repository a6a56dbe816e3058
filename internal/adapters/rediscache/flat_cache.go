package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

const keyPrefix = "flat:"

type cachedPrice struct {
	Price      decimal.Decimal `json:"price"`
	RecordedAt time.Time       `json:"recorded_at"`
}

type cachedFlat struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	DealType    string          `json:"deal_type"`
	City        string          `json:"city"`
	District    string          `json:"district"`
	Street      string          `json:"street"`
	Rooms       int             `json:"rooms"`
	Area        decimal.Decimal `json:"area"`
	Floor       int             `json:"floor"`
	FloorsTotal int             `json:"floors_total"`
	Series      string          `json:"series"`
	URL         string          `json:"url"`
	Thumbnail   []byte          `json:"thumbnail,omitempty"`
	PublishedAt time.Time       `json:"published_at"`
	Price       decimal.Decimal `json:"price"`
	PricePerM2  decimal.Decimal `json:"price_per_m2"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	Prices      []cachedPrice   `json:"prices"`
}

func toCached(r *domain.FlatRecord) cachedFlat {
	f := r.Flat
	c := cachedFlat{
		ID: f.ID, Source: string(f.Source), DealType: string(f.DealType),
		City: f.City, District: f.District, Street: f.Street,
		Rooms: f.Rooms, Area: f.Area, Floor: f.Floor, FloorsTotal: f.FloorsTotal,
		Series: f.Series, URL: f.URL, Thumbnail: f.Thumbnail, PublishedAt: f.PublishedAt,
		Price: f.Price, PricePerM2: f.PricePerM2, Latitude: f.Latitude, Longitude: f.Longitude,
		Prices: make([]cachedPrice, 0, len(r.Prices)),
	}
	for _, p := range r.Prices {
		c.Prices = append(c.Prices, cachedPrice{Price: p.Price, RecordedAt: p.RecordedAt})
	}
	return c
}

func (c cachedFlat) toRecord() *domain.FlatRecord {
	r := &domain.FlatRecord{Flat: domain.Flat{
		ID: c.ID, Source: domain.Source(c.Source), DealType: domain.DealType(c.DealType),
		City: c.City, District: c.District, Street: c.Street,
		Rooms: c.Rooms, Area: c.Area, Floor: c.Floor, FloorsTotal: c.FloorsTotal,
		Series: c.Series, URL: c.URL, Thumbnail: c.Thumbnail, PublishedAt: c.PublishedAt,
		Price: c.Price, PricePerM2: c.PricePerM2, Latitude: c.Latitude, Longitude: c.Longitude,
	}}
	for _, p := range c.Prices {
		r.Prices = append(r.Prices, domain.PricePoint{FlatID: c.ID, Price: p.Price, RecordedAt: p.RecordedAt})
	}
	return r
}

// FlatRepositoryCache - кэш чтения квартир поверх основного хранилища.
// Любая ошибка Redis логируется и обходится: источник истины - основное хранилище.
type FlatRepositoryCache struct {
	next  port.FlatRepositoryPort
	store store
	ttl   time.Duration
}

func NewFlatRepositoryCache(next port.FlatRepositoryPort, client *redis.Client, ttl time.Duration) *FlatRepositoryCache {
	return newFlatRepositoryCache(next, redisStore{client: client}, ttl)
}

func newFlatRepositoryCache(next port.FlatRepositoryPort, s store, ttl time.Duration) *FlatRepositoryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &FlatRepositoryCache{next: next, store: s, ttl: ttl}
}

func (c *FlatRepositoryCache) GetFlat(ctx context.Context, id string) (*domain.FlatRecord, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "FlatRepositoryCache"})
	key := keyPrefix + id

	data, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var cached cachedFlat
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached.toRecord(), nil
		}
		logger.Warn("Corrupted cache entry, falling back to storage", port.Fields{"flat_id": id})
	case !errors.Is(err, errMiss):
		logger.Warn("Cache read failed, falling back to storage", port.Fields{"flat_id": id, "error": err.Error()})
	}

	record, err := c.next.GetFlat(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(toCached(record)); err == nil {
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			logger.Warn("Cache write failed", port.Fields{"flat_id": id, "error": err.Error()})
		}
	}
	return record, nil
}

// UpsertFlat пишет в хранилище и только после успеха сбрасывает ключ
func (c *FlatRepositoryCache) UpsertFlat(ctx context.Context, flat domain.Flat, price domain.PricePoint) error {
	if err := c.next.UpsertFlat(ctx, flat, price); err != nil {
		return err
	}
	if err := c.store.Del(ctx, keyPrefix+flat.ID); err != nil {
		contextkeys.LoggerFromContext(ctx).Warn("Cache invalidation failed", port.Fields{
			"component": "FlatRepositoryCache",
			"flat_id":   flat.ID,
			"error":     err.Error(),
		})
	}
	return nil
}
