package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

// FlatRepository хранит квартиры и историю их цен
type FlatRepository struct {
	pool *pgxpool.Pool
}

func NewFlatRepository(pool *pgxpool.Pool) (*FlatRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &FlatRepository{pool: pool}, nil
}

const selectFlatSQL = `
	SELECT flat_id, source, deal_type, url, city, district, street, rooms, floors_total, floor,
	       area, series, price_per_m2, latitude, longitude, image_data, published_at
	FROM flats
	WHERE flat_id = $1`

const selectPricesSQL = `
	SELECT price, recorded_at
	FROM prices
	WHERE flat_id = $1
	ORDER BY recorded_at DESC`

// GetFlat возвращает квартиру с полной историей цен
func (r *FlatRepository) GetFlat(ctx context.Context, id string) (*domain.FlatRecord, error) {
	var (
		flat        domain.Flat
		source      string
		dealType    string
		area        pgtype.Numeric
		pricePerM2  pgtype.Numeric
		latitude    *float64
		longitude   *float64
		publishedAt *time.Time
	)

	err := r.pool.QueryRow(ctx, selectFlatSQL, id).Scan(
		&flat.ID, &source, &dealType, &flat.URL, &flat.City, &flat.District, &flat.Street,
		&flat.Rooms, &flat.FloorsTotal, &flat.Floor, &area, &flat.Series, &pricePerM2,
		&latitude, &longitude, &flat.Thumbnail, &publishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlatNotFound
		}
		return nil, fmt.Errorf("failed to get flat %s: %w", id, err)
	}

	flat.Source = domain.Source(source)
	flat.DealType = domain.DealType(dealType)
	flat.Area = numericToDecimal(area, decimal.Zero)
	flat.PricePerM2 = numericToDecimal(pricePerM2, decimal.Zero)
	if latitude != nil {
		flat.Latitude = *latitude
	}
	if longitude != nil {
		flat.Longitude = *longitude
	}
	if publishedAt != nil {
		flat.PublishedAt = publishedAt.UTC()
	}

	rows, err := r.pool.Query(ctx, selectPricesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices of flat %s: %w", id, err)
	}
	defer rows.Close()

	record := &domain.FlatRecord{Flat: flat}
	for rows.Next() {
		var (
			price      pgtype.Numeric
			recordedAt time.Time
		)
		if err := rows.Scan(&price, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price of flat %s: %w", id, err)
		}
		record.Prices = append(record.Prices, domain.PricePoint{
			FlatID:     id,
			Price:      numericToDecimal(price, decimal.Zero),
			RecordedAt: recordedAt.UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read prices of flat %s: %w", id, err)
	}

	if len(record.Prices) > 0 {
		record.Flat.Price = record.Prices[0].Price
	}
	return record, nil
}

// Старое фото не затирается, если на этот раз скачать его не удалось
const upsertFlatSQL = `
	INSERT INTO flats (
		flat_id, source, deal_type, url, city, district, street, rooms, floors_total, floor,
		area, series, price_per_m2, latitude, longitude, geohash, image_data, image_hash, published_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16, $17, $18, $19
	)
	ON CONFLICT (flat_id) DO UPDATE SET
		url = EXCLUDED.url,
		price_per_m2 = EXCLUDED.price_per_m2,
		latitude = COALESCE(EXCLUDED.latitude, flats.latitude),
		longitude = COALESCE(EXCLUDED.longitude, flats.longitude),
		geohash = COALESCE(EXCLUDED.geohash, flats.geohash),
		image_data = COALESCE(EXCLUDED.image_data, flats.image_data),
		image_hash = COALESCE(EXCLUDED.image_hash, flats.image_hash),
		updated_at = now()`

const insertPriceSQL = `
	INSERT INTO prices (flat_id, price, recorded_at) VALUES ($1, $2, $3)`

// UpsertFlat пишет квартиру и точку цены в одной транзакции
func (r *FlatRepository) UpsertFlat(ctx context.Context, flat domain.Flat, price domain.PricePoint) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresFlatRepository",
		"method":    "UpsertFlat",
	})

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var thumbnail []byte
	if len(flat.Thumbnail) > 0 {
		thumbnail = flat.Thumbnail
	}

	_, err = tx.Exec(ctx, upsertFlatSQL,
		flat.ID, string(flat.Source), string(flat.DealType), flat.URL, flat.City, flat.District, flat.Street,
		flat.Rooms, flat.FloorsTotal, flat.Floor,
		decimalToNumeric(flat.Area), flat.Series, decimalToNumeric(flat.PricePerM2),
		nullableCoordinate(flat.Latitude, flat.Longitude, flat.Latitude),
		nullableCoordinate(flat.Latitude, flat.Longitude, flat.Longitude),
		geohashOf(flat.Latitude, flat.Longitude), thumbnail, imageHash(thumbnail),
		nullableTime(flat.PublishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert flat %s: %w", flat.ID, err)
	}

	_, err = tx.Exec(ctx, insertPriceSQL, flat.ID, decimalToNumeric(domain.NormalizePrice(price.Price)), price.RecordedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert price of flat %s: %w", flat.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit flat %s: %w", flat.ID, err)
	}

	logger.Debug("Flat saved", port.Fields{"flat_id": flat.ID, "price": price.Price.String()})
	return nil
}

func nullableCoordinate(lat, lon, v float64) *float64 {
	if lat == 0 && lon == 0 {
		return nil
	}
	return &v
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}
