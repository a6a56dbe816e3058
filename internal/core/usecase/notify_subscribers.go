package usecase

import (
	"context"
	"time"

	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

// NotifySubscribersUseCase рендерит сообщения и ставит их в общую очередь доставки
type NotifySubscribersUseCase struct {
	queue port.NotificationQueuePort
	sink  port.NotificationSinkPort
	now   func() time.Time
}

func NewNotifySubscribersUseCase(queue port.NotificationQueuePort, sink port.NotificationSinkPort) *NotifySubscribersUseCase {
	return &NotifySubscribersUseCase{
		queue: queue,
		sink:  sink,
		now:   time.Now,
	}
}

// Execute возвращает число поставленных в очередь задач
func (uc *NotifySubscribersUseCase) Execute(ctx context.Context, flat domain.Flat, classification domain.Classification, recipients []int64) int {
	if !classification.Notifiable() || len(recipients) == 0 {
		return 0
	}

	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "NotifySubscribers",
		"flat_id":  flat.ID,
		"kind":     string(classification.Kind),
	})

	var (
		text    string
		actions []domain.Action
	)
	if classification.Kind == domain.ChangePriceChanged {
		text, actions = RenderPriceChange(flat, classification.Prior, uc.now().Format(historyDateLayout))
	} else {
		text, actions = RenderNewListing(flat)
	}

	for _, recipient := range recipients {
		n := domain.Notification{
			Recipient: recipient,
			Text:      text,
			Photo:     flat.Thumbnail,
			Actions:   actions,
		}
		uc.queue.Enqueue(uc.deliveryJob(n))
	}

	logger.Info("Notifications enqueued", port.Fields{"recipients": len(recipients)})
	return len(recipients)
}

// deliveryJob связывает уведомление с каналом: фото с подписью, если оно есть, иначе текст
func (uc *NotifySubscribersUseCase) deliveryJob(n domain.Notification) port.DeliveryJob {
	return func(ctx context.Context) error {
		if n.HasPhoto() {
			return uc.sink.DeliverPhoto(ctx, n.Recipient, n.Photo, n.Text, n.Actions)
		}
		return uc.sink.DeliverText(ctx, n.Recipient, n.Text, n.Actions)
	}
}
