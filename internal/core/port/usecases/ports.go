package usecases_port

import (
	"context"

	"github.com/google/uuid"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

type ClassifyFlatPort interface {
	Execute(ctx context.Context, flat domain.Flat) (domain.Classification, error)
}

type MatchSubscribersPort interface {
	Execute(ctx context.Context, flat domain.Flat) []int64
}

type NotifySubscribersPort interface {
	Execute(ctx context.Context, flat domain.Flat, classification domain.Classification, recipients []int64) int
}

type ProcessFlatPort interface {
	Execute(ctx context.Context, flat domain.Flat) (domain.ChangeKind, error)
}

type CrawlSourcePort interface {
	Target() domain.CrawlTarget
	Execute(ctx context.Context) domain.CrawlStats
}

type OrchestrateCrawlPort interface {
	Targets() []domain.CrawlTarget
	Execute(ctx context.Context, targets []domain.CrawlTarget) (map[domain.CrawlTarget]domain.CrawlStats, error)
	Start(ctx context.Context, targets []domain.CrawlTarget) (uuid.UUID, error)
}

type LastCrawlRunsPort interface {
	Execute(ctx context.Context) ([]domain.CrawlRun, error)
}
