package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale - число знаков после запятой, до которого нормализуется цена перед сравнением
const PriceScale = 2

// PricePoint - одно наблюдение цены квартиры
type PricePoint struct {
	FlatID     string
	Price      decimal.Decimal
	RecordedAt time.Time
}

// NormalizePrice приводит цену к фиксированной точности. После нормализации цены сравниваются строго.
func NormalizePrice(p decimal.Decimal) decimal.Decimal {
	return p.Round(PriceScale)
}

// FlatRecord - сохраненная квартира вместе с историей цен
type FlatRecord struct {
	Flat   Flat
	Prices []PricePoint
}

// HasPrice сообщает, встречалась ли такая цена в истории
func (r *FlatRecord) HasPrice(price decimal.Decimal) bool {
	price = NormalizePrice(price)
	for _, p := range r.Prices {
		if NormalizePrice(p.Price).Equal(price) {
			return true
		}
	}
	return false
}

// History возвращает копию истории цен, отсортированную от новых к старым
func (r *FlatRecord) History() []PricePoint {
	history := make([]PricePoint, len(r.Prices))
	copy(history, r.Prices)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].RecordedAt.After(history[j].RecordedAt)
	})
	return history
}

// CurrentPrice - последняя записанная цена
func (r *FlatRecord) CurrentPrice() (PricePoint, bool) {
	history := r.History()
	if len(history) == 0 {
		return PricePoint{}, false
	}
	return history[0], true
}
