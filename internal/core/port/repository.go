package port

import (
	"context"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

// FlatRepositoryPort - хранилище квартир и истории цен
type FlatRepositoryPort interface {
	// GetFlat возвращает domain.ErrFlatNotFound, если квартиры нет
	GetFlat(ctx context.Context, id string) (*domain.FlatRecord, error)
	// UpsertFlat вставляет или обновляет квартиру и добавляет одну точку цены
	UpsertFlat(ctx context.Context, flat domain.Flat, price domain.PricePoint) error
}

// SubscriberRepositoryPort - чтение подписок, которыми владеет внешний API
type SubscriberRepositoryPort interface {
	FindSubscribersForFilter(ctx context.Context, criteria domain.MatchCriteria) ([]int64, error)
	ListActiveUsers(ctx context.Context) ([]int64, error)
	ListFilters(ctx context.Context) ([]domain.Subscription, error)
}

// CrawlRunRepositoryPort - журнал циклов обхода
type CrawlRunRepositoryPort interface {
	SaveRun(ctx context.Context, run domain.CrawlRun) error
	LastRuns(ctx context.Context) ([]domain.CrawlRun, error)
}
