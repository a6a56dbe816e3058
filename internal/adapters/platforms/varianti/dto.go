package varianti

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/shared"
)

type searchFilters struct {
	AddressCountry  int      `json:"address_country"`
	DealType        int      `json:"deal_type"`
	AddressDistrict int      `json:"address_district"`
	IsPromoted      bool     `json:"is_promoted"`
	Features        []string `json:"features"`
}

type searchOrder struct {
	Asc   string `json:"asc"`
	Field string `json:"field"`
}

type searchRequest struct {
	Filters searchFilters `json:"filters"`
	Page    int           `json:"page"`
	Size    int           `json:"size"`
	Order   searchOrder   `json:"order"`
}

type searchResponse struct {
	ErrorDescriptions []string `json:"errorDescriptions"`
	Result            struct {
		Pages int               `json:"pages"`
		Total int               `json:"total"`
		List  []json.RawMessage `json:"list"`
	} `json:"result"`
}

type adObject struct {
	Area             *decimal.Decimal `json:"area"`
	Price            *decimal.Decimal `json:"price"`
	PricePerM        *decimal.Decimal `json:"price_per_m"`
	RoomsCount       *int             `json:"rooms_count"`
	Floor            *int             `json:"floor"`
	FloorsCount      *int             `json:"floors_count"`
	FlatBuildingType *int             `json:"flat_building_type"`
	DateCreate       int64            `json:"date_create"`
	DateUpdate       int64            `json:"date_update"`
}

type adImage struct {
	Small string `json:"small"`
}

// ad - одно объявление varianti.lv
type ad struct {
	ID          shared.FlexString `json:"id"`
	AddressName string            `json:"address_name"`
	Latitude    *float64          `json:"latitude"`
	Longitude   *float64          `json:"longitude"`
	Object      adObject          `json:"object"`
	Images      []adImage         `json:"images"`
}
