package domain

import (
	"time"

	"github.com/google/uuid"
)

// FlatEvent - событие о новой квартире или изменении цены для внешних потребителей
type FlatEvent struct {
	EventID     uuid.UUID
	Kind        ChangeKind
	Flat        Flat
	PriorPrices []PricePoint
	OccurredAt  time.Time
}
