package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Unknown подставляется вместо города, района, серии или улицы, которые не удалось сопоставить
const Unknown = "Unknown"

// Source - площадка, с которой пришло объявление
type Source string

const (
	SourceSS       Source = "ss"
	SourceCity24   Source = "city24"
	SourcePP       Source = "pp"
	SourceVarianti Source = "varianti"
)

// AllSources - закрытый набор поддерживаемых площадок
var AllSources = []Source{SourceSS, SourceCity24, SourcePP, SourceVarianti}

func ParseSource(s string) (Source, error) {
	for _, src := range AllSources {
		if string(src) == s {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// DealType - тип сделки. Значения совпадают с каноническими именами в справочнике маппинга.
type DealType string

const (
	DealTypeSell DealType = "Sell"
	DealTypeRent DealType = "Rent"
)

var AllDealTypes = []DealType{DealTypeSell, DealTypeRent}

func ParseDealType(s string) (DealType, error) {
	for _, dt := range AllDealTypes {
		if string(dt) == s {
			return dt, nil
		}
	}
	return "", fmt.Errorf("unknown deal type %q", s)
}

// Flat - каноническое представление объявления о квартире, не зависящее от площадки.
// ID вычисляется из описательных атрибутов, а не берется из площадки.
type Flat struct {
	ID          string
	Source      Source
	DealType    DealType
	City        string
	District    string
	Street      string
	Rooms       int
	Area        decimal.Decimal
	Floor       int
	FloorsTotal int
	Series      string
	URL         string
	Thumbnail   []byte
	PublishedAt time.Time

	// Наблюдаемая цена на момент обхода
	Price      decimal.Decimal
	PricePerM2 decimal.Decimal

	Latitude  float64
	Longitude float64
}

// FixReversedFloors меняет этаж и этажность местами, если площадка прислала их в обратном порядке
func (f *Flat) FixReversedFloors() {
	if f.Floor > f.FloorsTotal {
		f.Floor, f.FloorsTotal = f.FloorsTotal, f.Floor
	}
}

// Validate проверяет числовые инварианты записи
func (f *Flat) Validate() error {
	switch {
	case f.Rooms <= 0:
		return &ValidationError{Field: "rooms", Reason: "must be positive"}
	case !f.Area.IsPositive():
		return &ValidationError{Field: "area", Reason: "must be positive"}
	case f.Floor <= 0:
		return &ValidationError{Field: "floor", Reason: "must be positive"}
	case f.FloorsTotal <= 0:
		return &ValidationError{Field: "floors_total", Reason: "must be positive"}
	case f.Floor > f.FloorsTotal:
		return &ValidationError{Field: "floor", Reason: fmt.Sprintf("floor %d is above floors total %d", f.Floor, f.FloorsTotal)}
	case !f.Price.IsPositive():
		return &ValidationError{Field: "price", Reason: "must be positive"}
	case f.URL == "":
		return &ValidationError{Field: "url", Reason: "is empty"}
	}
	return nil
}

// AssignID вычисляет и сохраняет идентификатор записи
func (f *Flat) AssignID() {
	f.ID = FlatID(f.Source, f.DealType, f.District, f.Street, f.Series, f.Rooms, f.Area, f.Floor, f.FloorsTotal)
}
