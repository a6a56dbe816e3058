package pp

import (
	"github.com/shopspring/decimal"

	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/shared"
)

// идентификаторы фильтров pp.lv в adFilterValues
const (
	filterArea        = 123
	filterRooms       = 121
	filterFloor       = 125
	filterFloorsTotal = 139
	filterSeries      = 127
)

// типы цены: полная и за квадратный метр
const (
	priceSellFull   = 1
	priceSellSquare = 15
	priceRentFull   = 3
	priceRentSquare = 5
)

type idRef struct {
	ID *int `json:"id"`
}

type filterValue struct {
	TextValue shared.FlexString `json:"textValue"`
	Value     *idRef            `json:"value"`
	Filter    idRef             `json:"filter"`
}

type lotPrice struct {
	Value     decimal.Decimal `json:"value"`
	PriceType idRef           `json:"priceType"`
}

type publicLocation struct {
	CoordinateX *float64 `json:"coordinateX"`
	CoordinateY *float64 `json:"coordinateY"`
	Address     string   `json:"address"`
	Region      idRef    `json:"region"`
}

type thumbnail struct {
	Extension string `json:"extension"`
	StorageID string `json:"storageId"`
}

// lot - одно объявление pp.lv
type lot struct {
	ID             shared.FlexString `json:"id"`
	FrontURL       string            `json:"frontUrl"`
	PublishDate    string            `json:"publishDate"`
	PublicLocation publicLocation    `json:"publicLocation"`
	AdFilterValues []filterValue     `json:"adFilterValues"`
	Prices         []lotPrice        `json:"prices"`
	Thumbnail      *thumbnail        `json:"thumbnail"`
}

func (l lot) filter(id int) (filterValue, bool) {
	for _, f := range l.AdFilterValues {
		if f.Filter.ID != nil && *f.Filter.ID == id {
			return f, true
		}
	}
	return filterValue{}, false
}

func (l lot) text(id int, fallback string) string {
	if f, ok := l.filter(id); ok {
		return f.TextValue.String()
	}
	return fallback
}

func (l lot) price(priceType int) decimal.Decimal {
	for _, p := range l.Prices {
		if p.PriceType.ID != nil && *p.PriceType.ID == priceType {
			return p.Value
		}
	}
	return decimal.Zero
}
