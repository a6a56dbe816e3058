package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

// CrawlRunRepository - журнал циклов обхода по парам площадка + тип сделки
type CrawlRunRepository struct {
	pool *pgxpool.Pool
}

func NewCrawlRunRepository(pool *pgxpool.Pool) (*CrawlRunRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("crawl run repository: pool cannot be nil")
	}
	return &CrawlRunRepository{pool: pool}, nil
}

const insertRunSQL = `
	INSERT INTO crawl_runs (
		run_id, source, deal_type, started_at, finished_at,
		pages, failed_pages, items, invalid, new, unchanged, price_changed, failed
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

func (r *CrawlRunRepository) SaveRun(ctx context.Context, run domain.CrawlRun) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresCrawlRunRepository",
		"method":    "SaveRun",
	})

	s := run.Stats
	_, err := r.pool.Exec(ctx, insertRunSQL,
		run.RunID, string(run.Target.Source), string(run.Target.DealType), run.StartedAt.UTC(), run.FinishedAt.UTC(),
		s.Pages, s.FailedPages, s.Items, s.Invalid, s.New, s.Unchanged, s.PriceChanged, s.Failed,
	)
	if err != nil {
		logger.Error("Error saving crawl run", err, port.Fields{"target": run.Target.String()})
		return fmt.Errorf("crawl run repository: error saving run for %s: %w", run.Target, err)
	}

	logger.Debug("Crawl run saved", port.Fields{"run_id": run.RunID.String(), "target": run.Target.String()})
	return nil
}

// LastRuns возвращает последний завершенный цикл для каждой пары
const lastRunsSQL = `
	SELECT DISTINCT ON (source, deal_type)
	       run_id, source, deal_type, started_at, finished_at,
	       pages, failed_pages, items, invalid, new, unchanged, price_changed, failed
	FROM crawl_runs
	ORDER BY source, deal_type, finished_at DESC`

func (r *CrawlRunRepository) LastRuns(ctx context.Context) ([]domain.CrawlRun, error) {
	rows, err := r.pool.Query(ctx, lastRunsSQL)
	if err != nil {
		return nil, fmt.Errorf("crawl run repository: error querying last runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.CrawlRun, 0)
	for rows.Next() {
		var (
			run              domain.CrawlRun
			runID            uuid.UUID
			source, dealType string
			started, finished time.Time
		)
		s := &run.Stats
		err := rows.Scan(&runID, &source, &dealType, &started, &finished,
			&s.Pages, &s.FailedPages, &s.Items, &s.Invalid, &s.New, &s.Unchanged, &s.PriceChanged, &s.Failed)
		if err != nil {
			return nil, fmt.Errorf("crawl run repository: error scanning run: %w", err)
		}
		run.RunID = runID
		run.Target = domain.CrawlTarget{Source: domain.Source(source), DealType: domain.DealType(dealType)}
		run.StartedAt = started.UTC()
		run.FinishedAt = finished.UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("crawl run repository: error reading runs: %w", err)
	}
	return runs, nil
}
