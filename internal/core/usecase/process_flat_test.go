package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

type pipeline struct {
	repo   *fakeFlatRepo
	subs   *fakeSubscriberRepo
	queue  *fakeQueue
	events *fakeEvents
	uc     *ProcessFlatUseCase
}

func newPipeline() *pipeline {
	p := &pipeline{
		repo:   newFakeFlatRepo(),
		subs:   &fakeSubscriberRepo{filterIDs: []int64{100}},
		queue:  &fakeQueue{},
		events: &fakeEvents{},
	}
	p.uc = NewProcessFlatUseCase(
		NewClassifyFlatUseCase(p.repo),
		NewMatchSubscribersUseCase(p.subs, NotifyModeFilters),
		NewNotifySubscribersUseCase(p.queue, &fakeSink{}),
		p.events,
	)
	return p
}

func TestProcessFlatNotifiesOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	p := newPipeline()

	steps := []struct {
		price      int64
		wantKind   domain.ChangeKind
		wantJobs   int
		wantEvents int
	}{
		{100000, domain.ChangeNew, 1, 1},
		{100000, domain.ChangeUnchanged, 1, 1},
		{95000, domain.ChangePriceChanged, 2, 2},
	}

	for _, s := range steps {
		kind, err := p.uc.Execute(ctx, testFlat(s.price))
		if err != nil {
			t.Fatalf("price %d: %v", s.price, err)
		}
		if kind != s.wantKind {
			t.Errorf("price %d: kind got %s, want %s", s.price, kind, s.wantKind)
		}
		if len(p.queue.jobs) != s.wantJobs {
			t.Errorf("price %d: jobs got %d, want %d", s.price, len(p.queue.jobs), s.wantJobs)
		}
		if len(p.events.events) != s.wantEvents {
			t.Errorf("price %d: events got %d, want %d", s.price, len(p.events.events), s.wantEvents)
		}
	}

	if p.subs.calls != 2 {
		t.Errorf("subscriber lookups: got %d, want 2", p.subs.calls)
	}
	last := p.events.events[1]
	if last.Kind != domain.ChangePriceChanged || len(last.PriorPrices) != 1 {
		t.Errorf("price change event: got %+v", last)
	}
}

func TestProcessFlatPersistenceErrorStopsItem(t *testing.T) {
	p := newPipeline()
	p.repo.upsertErr = errors.New("disk full")

	if _, err := p.uc.Execute(context.Background(), testFlat(1)); err == nil {
		t.Fatal("expected persistence error")
	}
	if p.subs.calls != 0 || len(p.queue.jobs) != 0 || len(p.events.events) != 0 {
		t.Error("failed item must not be matched, notified or published")
	}
}

func TestProcessFlatEventFailureDoesNotBlockNotification(t *testing.T) {
	p := newPipeline()
	p.events.err = errors.New("broker unreachable")

	kind, err := p.uc.Execute(context.Background(), testFlat(1))
	if err != nil || kind != domain.ChangeNew {
		t.Fatalf("got %s, %v", kind, err)
	}
	if len(p.queue.jobs) != 1 {
		t.Errorf("jobs: got %d, want 1", len(p.queue.jobs))
	}
}
