package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
	usecases_port "github.com/DaniilsFirgers/dzivoklitis/internal/core/port/usecases"
)

var ErrCrawlInProgress = errors.New("crawl cycle already in progress")

// OrchestrateCrawlUseCase запускает цикл обхода по набору площадок и типов сделки
type OrchestrateCrawlUseCase struct {
	crawlers map[domain.CrawlTarget]usecases_port.CrawlSourcePort
	order    []domain.CrawlTarget
	runs     port.CrawlRunRepositoryPort // может быть nil
	running  atomic.Bool
	now      func() time.Time
}

func NewOrchestrateCrawlUseCase(crawlers []usecases_port.CrawlSourcePort, runs port.CrawlRunRepositoryPort) *OrchestrateCrawlUseCase {
	uc := &OrchestrateCrawlUseCase{
		crawlers: make(map[domain.CrawlTarget]usecases_port.CrawlSourcePort, len(crawlers)),
		runs:     runs,
		now:      time.Now,
	}
	for _, c := range crawlers {
		target := c.Target()
		if _, dup := uc.crawlers[target]; dup {
			continue
		}
		uc.crawlers[target] = c
		uc.order = append(uc.order, target)
	}
	return uc
}

// Targets - все сконфигурированные пары площадка + тип сделки
func (uc *OrchestrateCrawlUseCase) Targets() []domain.CrawlTarget {
	out := make([]domain.CrawlTarget, len(uc.order))
	copy(out, uc.order)
	return out
}

// Execute выполняет один цикл синхронно. Пустой targets означает все сконфигурированные обходчики.
// Неизвестные цели пропускаются с предупреждением.
func (uc *OrchestrateCrawlUseCase) Execute(ctx context.Context, targets []domain.CrawlTarget) (map[domain.CrawlTarget]domain.CrawlStats, error) {
	if !uc.running.CompareAndSwap(false, true) {
		return nil, ErrCrawlInProgress
	}
	defer uc.running.Store(false)

	return uc.run(ctx, uuid.New(), targets), nil
}

// Start занимает слот цикла и выполняет его в фоне, возвращая идентификатор запуска
func (uc *OrchestrateCrawlUseCase) Start(ctx context.Context, targets []domain.CrawlTarget) (uuid.UUID, error) {
	if !uc.running.CompareAndSwap(false, true) {
		return uuid.Nil, ErrCrawlInProgress
	}

	runID := uuid.New()
	go func() {
		defer uc.running.Store(false)
		uc.run(ctx, runID, targets)
	}()
	return runID, nil
}

func (uc *OrchestrateCrawlUseCase) run(ctx context.Context, runID uuid.UUID, targets []domain.CrawlTarget) map[domain.CrawlTarget]domain.CrawlStats {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "OrchestrateCrawl",
		"run_id":   runID.String(),
	})

	if len(targets) == 0 {
		targets = uc.order
	}

	type result struct {
		target  domain.CrawlTarget
		stats   domain.CrawlStats
		started time.Time
	}

	var wg sync.WaitGroup
	resultsChan := make(chan result, len(targets))

	for _, target := range targets {
		crawler, ok := uc.crawlers[target]
		if !ok {
			logger.Warn("No crawler configured for target", port.Fields{"target": target.String()})
			continue
		}

		wg.Add(1)
		go func(t domain.CrawlTarget, c usecases_port.CrawlSourcePort) {
			defer wg.Done()

			started := uc.now().UTC()
			taskLogger := logger.WithFields(port.Fields{"target": t.String()})
			stats := c.Execute(contextkeys.ContextWithLogger(ctx, taskLogger))

			resultsChan <- result{target: t, stats: stats, started: started}
		}(target, crawler)
	}

	wg.Wait()
	close(resultsChan)

	all := make(map[domain.CrawlTarget]domain.CrawlStats, len(targets))
	var total domain.CrawlStats
	for r := range resultsChan {
		all[r.target] = r.stats
		total.Add(r.stats)
		uc.saveRun(ctx, logger, domain.CrawlRun{
			RunID:      runID,
			Target:     r.target,
			StartedAt:  r.started,
			FinishedAt: uc.now().UTC(),
			Stats:      r.stats,
		})
	}

	logger.Info("Crawl cycle completed", port.Fields{
		"targets":       len(all),
		"items":         total.Items,
		"new":           total.New,
		"price_changed": total.PriceChanged,
		"failed_pages":  total.FailedPages,
	})
	return all
}

func (uc *OrchestrateCrawlUseCase) saveRun(ctx context.Context, logger port.LoggerPort, run domain.CrawlRun) {
	if uc.runs == nil {
		return
	}
	if err := uc.runs.SaveRun(ctx, run); err != nil {
		logger.Error("Failed to save crawl run", err, port.Fields{"target": run.Target.String()})
	}
}

// LastCrawlRunsUseCase отдает последний записанный цикл по каждой паре
type LastCrawlRunsUseCase struct {
	runs port.CrawlRunRepositoryPort
}

func NewLastCrawlRunsUseCase(runs port.CrawlRunRepositoryPort) *LastCrawlRunsUseCase {
	return &LastCrawlRunsUseCase{runs: runs}
}

func (uc *LastCrawlRunsUseCase) Execute(ctx context.Context) ([]domain.CrawlRun, error) {
	if uc.runs == nil {
		return []domain.CrawlRun{}, nil
	}
	return uc.runs.LastRuns(ctx)
}
