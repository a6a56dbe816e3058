package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcloughlin/geohash"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/DaniilsFirgers/dzivoklitis/internal/constants"
	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

const (
	publishTimeout   = 10 * time.Second
	geohashPrecision = 7
)

// jsonPublisher - часть rabbitmq_producer.Publisher, нужная адаптеру
type jsonPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, payload any, headers amqp.Table) error
}

// FlatEventsAdapter публикует события о новых квартирах и изменениях цены
type FlatEventsAdapter struct {
	producer jsonPublisher
}

var _ port.FlatEventsPublisherPort = (*FlatEventsAdapter)(nil)

func NewFlatEventsAdapter(producer jsonPublisher) (*FlatEventsAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	return &FlatEventsAdapter{producer: producer}, nil
}

func (a *FlatEventsAdapter) Publish(ctx context.Context, event domain.FlatEvent) error {
	routingKey, err := routingKeyFor(event.Kind)
	if err != nil {
		return err
	}

	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "FlatEventsAdapter",
		"routing_key": routingKey,
		"flat_id":     event.Flat.ID,
	})

	headers := amqp.Table{}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		headers[constants.HeaderTraceID] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := a.producer.PublishJSON(publishCtx, routingKey, toFlatEventDTO(event), headers); err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to publish event %s: %w", event.EventID, err)
	}
	logger.Debug("Flat event published", port.Fields{"event_id": event.EventID.String()})
	return nil
}

func routingKeyFor(kind domain.ChangeKind) (string, error) {
	switch kind {
	case domain.ChangeNew:
		return constants.RoutingKeyFlatNew, nil
	case domain.ChangePriceChanged:
		return constants.RoutingKeyFlatPriceChanged, nil
	default:
		return "", fmt.Errorf("rabbitmq adapter: no event for change kind %q", kind)
	}
}

func toFlatEventDTO(event domain.FlatEvent) FlatEventDTO {
	f := event.Flat
	dto := FlatEventDTO{
		EventID:    event.EventID,
		Kind:       string(event.Kind),
		OccurredAt: event.OccurredAt.UTC(),
		Flat: FlatDTO{
			ID:          f.ID,
			Source:      string(f.Source),
			DealType:    string(f.DealType),
			URL:         f.URL,
			City:        f.City,
			District:    f.District,
			Street:      f.Street,
			Series:      f.Series,
			Rooms:       f.Rooms,
			Area:        f.Area.StringFixed(2),
			Floor:       f.Floor,
			FloorsTotal: f.FloorsTotal,
			Price:       f.Price.StringFixed(2),
			PricePerM2:  f.PricePerM2.StringFixed(2),
			PublishedAt: f.PublishedAt.UTC(),
		},
		PriorPrices: make([]PricePointDTO, 0, len(event.PriorPrices)),
	}

	if f.Latitude != 0 || f.Longitude != 0 {
		lat, lon := f.Latitude, f.Longitude
		dto.Flat.Latitude = &lat
		dto.Flat.Longitude = &lon
		dto.Flat.Geohash = geohash.EncodeWithPrecision(lat, lon, geohashPrecision)
	}

	for _, p := range event.PriorPrices {
		dto.PriorPrices = append(dto.PriorPrices, PricePointDTO{
			Price:      p.Price.StringFixed(2),
			RecordedAt: p.RecordedAt.UTC(),
		})
	}
	return dto
}
