package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
	usecases_port "github.com/DaniilsFirgers/dzivoklitis/internal/core/port/usecases"
)

// maxPagesPerPartition ограничивает обход, если площадка никогда не отдает короткую страницу
const maxPagesPerPartition = 200

// maxConsecutiveFailedPages - сколько страниц подряд можно потерять, прежде чем считать площадку недоступной
const maxConsecutiveFailedPages = 3

// CrawlConfig - ограничения одного обходчика площадка + тип сделки
type CrawlConfig struct {
	// Concurrency - сколько районов обходится одновременно
	Concurrency int64
	// ItemConcurrency - сколько объявлений одной страницы обрабатывается одновременно
	ItemConcurrency int
	// Attempts - сколько раз запрашивается страница до того, как ее бросить
	Attempts   int
	RetryDelay time.Duration
}

func (c CrawlConfig) withDefaults() CrawlConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.ItemConcurrency <= 0 {
		c.ItemConcurrency = 4
	}
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	return c
}

// CrawlSourceUseCase - обходчик одной площадки для одного типа сделки
type CrawlSourceUseCase struct {
	fetcher   port.ListingFetcherPort
	builder   port.FlatBuilderPort
	processUC usecases_port.ProcessFlatPort
	cfg       CrawlConfig

	// windowStart - "начало сегодняшнего дня" для площадок, отдающих объявления от новых к старым
	windowStart func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewCrawlSourceUseCase(
	fetcher port.ListingFetcherPort,
	builder port.FlatBuilderPort,
	processUC usecases_port.ProcessFlatPort,
	cfg CrawlConfig,
	windowStart func() time.Time,
) *CrawlSourceUseCase {
	return &CrawlSourceUseCase{
		fetcher:     fetcher,
		builder:     builder,
		processUC:   processUC,
		cfg:         cfg.withDefaults(),
		windowStart: windowStart,
		sleep:       sleepContext,
	}
}

func (uc *CrawlSourceUseCase) Target() domain.CrawlTarget {
	return uc.fetcher.Target()
}

// Execute обходит все районы площадки. Ошибки страниц и объявлений не прерывают цикл.
func (uc *CrawlSourceUseCase) Execute(ctx context.Context) domain.CrawlStats {
	target := uc.fetcher.Target()
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":  "CrawlSource",
		"source":    string(target.Source),
		"deal_type": string(target.DealType),
	})

	windowStart := uc.windowStart()
	partitions := uc.fetcher.Partitions()
	logger.Info("Crawl started", port.Fields{
		"partitions":   len(partitions),
		"window_start": windowStart.Format(time.RFC3339),
	})

	sem := semaphore.NewWeighted(uc.cfg.Concurrency)
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total domain.CrawlStats
	)

	for _, partition := range partitions {
		if err := sem.Acquire(ctx, 1); err != nil {
			logger.Warn("Crawl interrupted before all partitions were scheduled", port.Fields{"error": err.Error()})
			break
		}

		wg.Add(1)
		go func(p domain.Partition) {
			defer wg.Done()
			defer sem.Release(1)

			partLogger := logger.WithFields(port.Fields{"partition": p.Name})
			partCtx := contextkeys.ContextWithLogger(ctx, partLogger)

			stats := uc.crawlPartition(partCtx, p, windowStart)

			mu.Lock()
			total.Add(stats)
			mu.Unlock()
		}(partition)
	}
	wg.Wait()

	logger.Info("Crawl finished", port.Fields{
		"pages":         total.Pages,
		"failed_pages":  total.FailedPages,
		"items":         total.Items,
		"invalid":       total.Invalid,
		"new":           total.New,
		"price_changed": total.PriceChanged,
		"failed":        total.Failed,
	})
	return total
}

// crawlPartition листает страницы одного района до короткой страницы,
// последней известной страницы или первого объявления старше начала окна.
// Страница, не загруженная после всех попыток, пропускается.
func (uc *CrawlSourceUseCase) crawlPartition(ctx context.Context, partition domain.Partition, windowStart time.Time) domain.CrawlStats {
	logger := contextkeys.LoggerFromContext(ctx)
	var stats domain.CrawlStats
	lastKnownPage := 0
	failedInRow := 0

	for page := 1; page <= maxPagesPerPartition; page++ {
		if ctx.Err() != nil {
			return stats
		}

		result, err := uc.fetchWithRetry(ctx, partition, page)
		if err != nil {
			stats.FailedPages++
			failedInRow++
			logger.Error("Page dropped after retries", err, port.Fields{"page": page})
			if lastKnownPage > 0 && page >= lastKnownPage {
				return stats
			}
			if failedInRow >= maxConsecutiveFailedPages {
				logger.Warn("Too many failed pages in a row, partition abandoned", port.Fields{
					"page":   page,
					"failed": failedInRow,
				})
				return stats
			}
			continue
		}
		failedInRow = 0
		stats.Pages++
		if result.LastPage > lastKnownPage {
			lastKnownPage = result.LastPage
		}

		items, reachedOld := uc.freshItems(result.Items, windowStart)
		uc.processItems(ctx, partition, items, &stats)

		logger.Debug("Page processed", port.Fields{
			"page":  page,
			"items": len(result.Items),
			"fresh": len(items),
		})

		switch {
		case reachedOld:
			logger.Debug("Reached listings older than the crawl window", port.Fields{"page": page})
			return stats
		case len(result.Items) == 0, len(result.Items) < result.PageSize:
			return stats
		case result.LastPage > 0 && page >= result.LastPage:
			return stats
		}
	}

	logger.Warn("Page limit reached", port.Fields{"limit": maxPagesPerPartition})
	return stats
}

// freshItems обрезает страницу на первом объявлении старше начала окна.
// Работает только для площадок, которые сортируют выдачу от новых к старым.
func (uc *CrawlSourceUseCase) freshItems(items []domain.RawListing, windowStart time.Time) ([]domain.RawListing, bool) {
	if !uc.fetcher.NewestFirst() {
		return items, false
	}
	for i, item := range items {
		if !item.ListedAt.IsZero() && item.ListedAt.Before(windowStart) {
			return items[:i], true
		}
	}
	return items, false
}

func (uc *CrawlSourceUseCase) processItems(ctx context.Context, partition domain.Partition, items []domain.RawListing, stats *domain.CrawlStats) {
	logger := contextkeys.LoggerFromContext(ctx)

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(uc.cfg.ItemConcurrency)

	for _, item := range items {
		g.Go(func() error {
			res := uc.builder.Build(ctx, partition, item)
			if !res.IsOK() {
				logger.Debug("Listing skipped", port.Fields{"ad_id": item.AdID, "reason": res.Reason().Error()})
				mu.Lock()
				stats.Items++
				stats.Invalid++
				mu.Unlock()
				return nil
			}

			kind, err := uc.processUC.Execute(ctx, res.Flat())

			mu.Lock()
			defer mu.Unlock()
			stats.Items++
			if err != nil {
				stats.Failed++
				return nil
			}
			stats.Count(kind)
			return nil
		})
	}
	_ = g.Wait()
}

func (uc *CrawlSourceUseCase) fetchWithRetry(ctx context.Context, partition domain.Partition, page int) (*domain.ListingPage, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	var lastErr error

	for attempt := 1; attempt <= uc.cfg.Attempts; attempt++ {
		result, err := uc.fetcher.FetchPage(ctx, partition, page)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == uc.cfg.Attempts {
			break
		}
		logger.Warn("Page fetch failed, retrying", port.Fields{
			"page":    page,
			"attempt": attempt,
			"error":   err.Error(),
		})
		if err := uc.sleep(ctx, uc.cfg.RetryDelay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("page %d of %s: %d attempts failed: %w", page, partition.Name, uc.cfg.Attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
