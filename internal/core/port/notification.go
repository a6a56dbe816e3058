package port

import (
	"context"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

// DeliveryJob - задача доставки, уже привязанная к получателю и содержимому
type DeliveryJob func(ctx context.Context) error

// NotificationQueuePort - общая очередь с ограничением скорости отправки
type NotificationQueuePort interface {
	// Enqueue возвращается сразу, доставка происходит асинхронно
	Enqueue(job DeliveryJob)
	Stats() domain.NotificationStats
}

// NotificationSinkPort - канал доставки сообщений пользователям
type NotificationSinkPort interface {
	DeliverText(ctx context.Context, recipient int64, text string, actions []domain.Action) error
	DeliverPhoto(ctx context.Context, recipient int64, photo []byte, caption string, actions []domain.Action) error
}
