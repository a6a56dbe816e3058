package domain

import "github.com/shopspring/decimal"

// IntRange - включающий диапазон целых
type IntRange struct {
	Min int
	Max int
}

func (r IntRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// DecimalRange - включающий диапазон для цены и площади
type DecimalRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func (r DecimalRange) Contains(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(r.Min) && v.LessThanOrEqual(r.Max)
}

// Subscription - сохраненный пользователем фильтр. Ядро его только читает.
type Subscription struct {
	ID         int64
	TgUserID   int64
	City       string
	District   string
	DealType   DealType
	RoomRange  IntRange
	PriceRange DecimalRange
	AreaRange  DecimalRange
	FloorRange IntRange
	IsActive   bool
}

// MatchCriteria - атрибуты квартиры, по которым ищутся подписчики
type MatchCriteria struct {
	City     string
	District string
	DealType DealType
	Rooms    int
	Price    decimal.Decimal
	Area     decimal.Decimal
	Floor    int
}

func CriteriaOf(f Flat) MatchCriteria {
	return MatchCriteria{
		City:     f.City,
		District: f.District,
		DealType: f.DealType,
		Rooms:    f.Rooms,
		Price:    f.Price,
		Area:     f.Area,
		Floor:    f.Floor,
	}
}

// Matches - активна, категориальные поля совпадают точно, числовые попадают в диапазоны
func (s Subscription) Matches(c MatchCriteria) bool {
	if !s.IsActive {
		return false
	}
	if s.City != c.City || s.District != c.District || s.DealType != c.DealType {
		return false
	}
	return s.RoomRange.Contains(c.Rooms) &&
		s.PriceRange.Contains(c.Price) &&
		s.AreaRange.Contains(c.Area) &&
		s.FloorRange.Contains(c.Floor)
}
