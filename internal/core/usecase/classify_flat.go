package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

// ClassifyFlatUseCase - детектор изменений: сравнивает квартиру с сохраненной историей цен
type ClassifyFlatUseCase struct {
	repo port.FlatRepositoryPort
	now  func() time.Time
}

func NewClassifyFlatUseCase(repo port.FlatRepositoryPort) *ClassifyFlatUseCase {
	return &ClassifyFlatUseCase{
		repo: repo,
		now:  time.Now,
	}
}

// Execute классифицирует квартиру и записывает новую точку цены для New и PriceChanged.
// Ошибка хранилища возвращается как есть, вызывающий бросает квартиру до следующего цикла.
func (uc *ClassifyFlatUseCase) Execute(ctx context.Context, flat domain.Flat) (domain.Classification, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "ClassifyFlat",
		"flat_id":  flat.ID,
	})

	point := domain.PricePoint{
		FlatID:     flat.ID,
		Price:      domain.NormalizePrice(flat.Price),
		RecordedAt: uc.now().UTC(),
	}

	existing, err := uc.repo.GetFlat(ctx, flat.ID)
	if err != nil && !errors.Is(err, domain.ErrFlatNotFound) {
		return domain.Classification{}, fmt.Errorf("get flat %s: %w", flat.ID, err)
	}

	if existing == nil {
		if err := uc.repo.UpsertFlat(ctx, flat, point); err != nil {
			return domain.Classification{}, fmt.Errorf("insert flat %s: %w", flat.ID, err)
		}
		logger.Debug("New flat persisted", port.Fields{"price": point.Price.String()})
		return domain.Classification{Kind: domain.ChangeNew}, nil
	}

	if existing.HasPrice(point.Price) {
		return domain.Classification{Kind: domain.ChangeUnchanged}, nil
	}

	prior := existing.History()
	if err := uc.repo.UpsertFlat(ctx, flat, point); err != nil {
		return domain.Classification{}, fmt.Errorf("append price for flat %s: %w", flat.ID, err)
	}

	logger.Debug("Price change persisted", port.Fields{
		"price":       point.Price.String(),
		"prior_count": len(prior),
	})
	return domain.Classification{Kind: domain.ChangePriceChanged, Prior: prior}, nil
}
