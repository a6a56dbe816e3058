package rabbitmq

import (
	"time"

	"github.com/google/uuid"
)

// CrawlTaskDTO - внешняя команда на запуск цикла обхода.
// Пустые списки означают все сконфигурированные площадки и типы сделки.
type CrawlTaskDTO struct {
	TaskID    uuid.UUID `json:"task_id"`
	Sources   []string  `json:"sources"`
	DealTypes []string  `json:"deal_types"`
}

// FlatEventDTO - контракт событий flat.new и flat.price_changed
type FlatEventDTO struct {
	EventID     uuid.UUID       `json:"event_id"`
	Kind        string          `json:"kind"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Flat        FlatDTO         `json:"flat"`
	PriorPrices []PricePointDTO `json:"prior_prices"`
}

type FlatDTO struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	DealType    string    `json:"deal_type"`
	URL         string    `json:"url"`
	City        string    `json:"city"`
	District    string    `json:"district"`
	Street      string    `json:"street"`
	Series      string    `json:"series"`
	Rooms       int       `json:"rooms"`
	Area        string    `json:"area"`
	Floor       int       `json:"floor"`
	FloorsTotal int       `json:"floors_total"`
	Price       string    `json:"price"`
	PricePerM2  string    `json:"price_per_m2"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Geohash     string    `json:"geohash,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

type PricePointDTO struct {
	Price      string    `json:"price"`
	RecordedAt time.Time `json:"recorded_at"`
}
