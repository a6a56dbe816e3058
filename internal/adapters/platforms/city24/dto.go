package city24

import (
	"github.com/shopspring/decimal"

	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/shared"
)

type realtyAddress struct {
	StreetName  shared.FlexString `json:"street_name"`
	HouseNumber shared.FlexString `json:"house_number"`
}

type realtyAttributes struct {
	Floor       *int     `json:"FLOOR"`
	TotalFloors *int     `json:"TOTAL_FLOORS"`
	HouseType   []string `json:"HOUSE_TYPE"`
}

type realtyImage struct {
	URL *string `json:"url"`
}

// realty - одно объявление из ответа search/realties
type realty struct {
	FriendlyID    string           `json:"friendly_id"`
	PricePerUnit  decimal.Decimal  `json:"price_per_unit"`
	PropertySize  decimal.Decimal  `json:"property_size"`
	RoomCount     *int             `json:"room_count"`
	Address       realtyAddress    `json:"address"`
	Attributes    realtyAttributes `json:"attributes"`
	Latitude      *float64         `json:"latitude"`
	Longitude     *float64         `json:"longitude"`
	MainImage     *realtyImage     `json:"main_image"`
	DatePublished string           `json:"date_published"`
}
