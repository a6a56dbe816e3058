package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	usecases_port "github.com/DaniilsFirgers/dzivoklitis/internal/core/port/usecases"
)

type stubCrawler struct {
	target  domain.CrawlTarget
	stats   domain.CrawlStats
	started chan struct{}
	release chan struct{}
}

func (c *stubCrawler) Target() domain.CrawlTarget { return c.target }

func (c *stubCrawler) Execute(ctx context.Context) domain.CrawlStats {
	if c.started != nil {
		close(c.started)
	}
	if c.release != nil {
		<-c.release
	}
	return c.stats
}

type fakeRunRepo struct {
	mu   sync.Mutex
	runs []domain.CrawlRun
	err  error
}

func (r *fakeRunRepo) SaveRun(ctx context.Context, run domain.CrawlRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return r.err
}

func (r *fakeRunRepo) LastRuns(ctx context.Context) ([]domain.CrawlRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs, r.err
}

func TestOrchestrateCrawlRunsSelectedTargets(t *testing.T) {
	ssSell := domain.CrawlTarget{Source: domain.SourceSS, DealType: domain.DealTypeSell}
	ppRent := domain.CrawlTarget{Source: domain.SourcePP, DealType: domain.DealTypeRent}
	runs := &fakeRunRepo{}

	uc := NewOrchestrateCrawlUseCase([]usecases_port.CrawlSourcePort{
		&stubCrawler{target: ssSell, stats: domain.CrawlStats{Items: 3, New: 2}},
		&stubCrawler{target: ppRent, stats: domain.CrawlStats{Items: 5}},
	}, runs)

	all, err := uc.Execute(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[ssSell].New != 2 || all[ppRent].Items != 5 {
		t.Errorf("stats: got %+v", all)
	}
	if len(runs.runs) != 2 || runs.runs[0].RunID != runs.runs[1].RunID {
		t.Errorf("runs should share one run id: %+v", runs.runs)
	}

	only, err := uc.Execute(context.Background(), []domain.CrawlTarget{ppRent, {Source: domain.SourceVarianti, DealType: domain.DealTypeSell}})
	if err != nil {
		t.Fatal(err)
	}
	if len(only) != 1 {
		t.Errorf("unknown targets must be skipped: got %+v", only)
	}
}

func TestOrchestrateCrawlRejectsOverlappingCycles(t *testing.T) {
	c := &stubCrawler{
		target:  domain.CrawlTarget{Source: domain.SourceSS, DealType: domain.DealTypeSell},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	uc := NewOrchestrateCrawlUseCase([]usecases_port.CrawlSourcePort{c}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := uc.Execute(context.Background(), nil)
		done <- err
	}()
	<-c.started

	if _, err := uc.Execute(context.Background(), nil); !errors.Is(err, ErrCrawlInProgress) {
		t.Errorf("second cycle: got %v, want %v", err, ErrCrawlInProgress)
	}

	close(c.release)
	if err := <-done; err != nil {
		t.Errorf("first cycle: %v", err)
	}
}

func TestOrchestrateCrawlSaveFailureIsNotFatal(t *testing.T) {
	runs := &fakeRunRepo{err: errors.New("db down")}
	uc := NewOrchestrateCrawlUseCase([]usecases_port.CrawlSourcePort{
		&stubCrawler{target: domain.CrawlTarget{Source: domain.SourceCity24, DealType: domain.DealTypeSell}},
	}, runs)

	if _, err := uc.Execute(context.Background(), nil); err != nil {
		t.Errorf("save failure must not fail the cycle: %v", err)
	}
}

func TestOrchestrateCrawlStartRunsInBackground(t *testing.T) {
	c := &stubCrawler{
		target:  domain.CrawlTarget{Source: domain.SourceCity24, DealType: domain.DealTypeRent},
		stats:   domain.CrawlStats{Items: 3, New: 1},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	runs := &fakeRunRepo{}
	uc := NewOrchestrateCrawlUseCase([]usecases_port.CrawlSourcePort{c}, runs)

	runID, err := uc.Start(context.Background(), nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-c.started

	if _, err := uc.Start(context.Background(), nil); !errors.Is(err, ErrCrawlInProgress) {
		t.Errorf("second Start: got %v, want %v", err, ErrCrawlInProgress)
	}
	close(c.release)

	deadline := time.Now().Add(2 * time.Second)
	for {
		saved, _ := runs.LastRuns(context.Background())
		if len(saved) == 1 {
			if saved[0].RunID != runID || saved[0].Stats.New != 1 {
				t.Errorf("saved run = %+v, want run id %s", saved[0], runID)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("background cycle did not record its run")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
