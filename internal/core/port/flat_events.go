package port

import (
	"context"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

// FlatEventsPublisherPort - публикация событий о квартирах во внешнюю шину
type FlatEventsPublisherPort interface {
	Publish(ctx context.Context, event domain.FlatEvent) error
}
