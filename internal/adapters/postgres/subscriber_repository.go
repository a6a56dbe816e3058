package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

// unboundedMax подставляется вместо открытой верхней границы диапазона
var unboundedMax = decimal.New(1, 12)

// SubscriberRepository читает подписки, которыми владеет внешний API
type SubscriberRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriberRepository(pool *pgxpool.Pool) (*SubscriberRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &SubscriberRepository{pool: pool}, nil
}

const findSubscribersSQL = `
	SELECT DISTINCT tg_user_id
	FROM filters
	WHERE is_active = TRUE
	  AND city = $1
	  AND district = $2
	  AND deal_type = $3
	  AND room_range @> $4::numeric
	  AND price_range @> $5::numeric
	  AND area_range @> $6::numeric
	  AND floor_range @> $7::numeric`

// FindSubscribersForFilter проверяет диапазоны на стороне базы через оператор @>
func (r *SubscriberRepository) FindSubscribersForFilter(ctx context.Context, c domain.MatchCriteria) ([]int64, error) {
	rows, err := r.pool.Query(ctx, findSubscribersSQL,
		c.City, c.District, string(c.DealType),
		c.Rooms,
		decimalToNumeric(c.Price), decimalToNumeric(c.Area),
		c.Floor,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find subscribers: %w", err)
	}
	defer rows.Close()

	return scanUserIDs(rows)
}

const listActiveUsersSQL = `SELECT tg_user_id FROM users WHERE is_active = TRUE ORDER BY tg_user_id`

func (r *SubscriberRepository) ListActiveUsers(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, listActiveUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	defer rows.Close()

	return scanUserIDs(rows)
}

func scanUserIDs(rows pgx.Rows) ([]int64, error) {
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

const listFiltersSQL = `
	SELECT id, tg_user_id, city, district, deal_type,
	       lower(room_range), upper(room_range),
	       lower(price_range), upper(price_range),
	       lower(area_range), upper(area_range),
	       lower(floor_range), upper(floor_range),
	       is_active
	FROM filters
	WHERE is_active = TRUE`

// ListFilters загружает активные подписки для сопоставления в памяти.
// Открытые границы заменяются на 0 и unboundedMax.
func (r *SubscriberRepository) ListFilters(ctx context.Context) ([]domain.Subscription, error) {
	rows, err := r.pool.Query(ctx, listFiltersSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list filters: %w", err)
	}
	defer rows.Close()

	subs := make([]domain.Subscription, 0)
	for rows.Next() {
		var (
			s        domain.Subscription
			dealType string
			bounds   [8]pgtype.Numeric
		)
		err := rows.Scan(&s.ID, &s.TgUserID, &s.City, &s.District, &dealType,
			&bounds[0], &bounds[1], &bounds[2], &bounds[3],
			&bounds[4], &bounds[5], &bounds[6], &bounds[7],
			&s.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan filter: %w", err)
		}
		s.DealType = domain.DealType(dealType)
		s.RoomRange = intRange(bounds[0], bounds[1])
		s.PriceRange = decimalRange(bounds[2], bounds[3])
		s.AreaRange = decimalRange(bounds[4], bounds[5])
		s.FloorRange = intRange(bounds[6], bounds[7])
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read filters: %w", err)
	}
	return subs, nil
}

func decimalRange(lower, upper pgtype.Numeric) domain.DecimalRange {
	return domain.DecimalRange{
		Min: numericToDecimal(lower, decimal.Zero),
		Max: numericToDecimal(upper, unboundedMax),
	}
}

func intRange(lower, upper pgtype.Numeric) domain.IntRange {
	r := decimalRange(lower, upper)
	return domain.IntRange{Min: int(r.Min.IntPart()), Max: int(r.Max.IntPart())}
}
