package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
	usecases_port "github.com/DaniilsFirgers/dzivoklitis/internal/core/port/usecases"
)

// ProcessFlatUseCase - путь одной квартиры: детектор изменений, подписчики, очередь, события
type ProcessFlatUseCase struct {
	classifyUC usecases_port.ClassifyFlatPort
	matchUC    usecases_port.MatchSubscribersPort
	notifyUC   usecases_port.NotifySubscribersPort
	events     port.FlatEventsPublisherPort // может быть nil
}

func NewProcessFlatUseCase(
	classifyUC usecases_port.ClassifyFlatPort,
	matchUC usecases_port.MatchSubscribersPort,
	notifyUC usecases_port.NotifySubscribersPort,
	events port.FlatEventsPublisherPort,
) *ProcessFlatUseCase {
	return &ProcessFlatUseCase{
		classifyUC: classifyUC,
		matchUC:    matchUC,
		notifyUC:   notifyUC,
		events:     events,
	}
}

func (uc *ProcessFlatUseCase) Execute(ctx context.Context, flat domain.Flat) (domain.ChangeKind, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "ProcessFlat",
		"flat_id":  flat.ID,
	})

	classification, err := uc.classifyUC.Execute(ctx, flat)
	if err != nil {
		logger.Error("Persistence failed, flat abandoned for this cycle", err, nil)
		return "", err
	}

	if !classification.Notifiable() {
		return classification.Kind, nil
	}

	logger.Info("Flat classified", port.Fields{
		"kind":     string(classification.Kind),
		"district": flat.District,
		"price":    flat.Price.String(),
	})

	uc.publish(ctx, logger, flat, classification)

	recipients := uc.matchUC.Execute(ctx, flat)
	if len(recipients) > 0 {
		uc.notifyUC.Execute(ctx, flat, classification, recipients)
	}

	return classification.Kind, nil
}

func (uc *ProcessFlatUseCase) publish(ctx context.Context, logger port.LoggerPort, flat domain.Flat, classification domain.Classification) {
	if uc.events == nil {
		return
	}

	event := domain.FlatEvent{
		EventID:     uuid.New(),
		Kind:        classification.Kind,
		Flat:        flat,
		PriorPrices: classification.Prior,
		OccurredAt:  time.Now().UTC(),
	}
	if err := uc.events.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish flat event", port.Fields{"error": err.Error()})
	}
}
