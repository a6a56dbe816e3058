package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.calls = append(s.calls, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) snapshot() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.calls...)
}

func TestConfigInterval(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want time.Duration
	}{
		{"default channel", Config{Rate: 30, Window: time.Second, Buffer: 200 * time.Millisecond}, time.Second/30 + 200*time.Millisecond},
		{"one per second", Config{Rate: 1, Window: time.Second}, time.Second},
		{"zero rate falls back to buffer", Config{Rate: 0, Window: time.Second, Buffer: 50 * time.Millisecond}, 50 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Interval(); got != tt.want {
				t.Errorf("Interval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDispatcherRunsJobsInOrderWithPacing(t *testing.T) {
	cfg := Config{Rate: 30, Window: time.Second, Buffer: 200 * time.Millisecond}
	d := New(cfg)
	rec := &sleepRecorder{}
	d.sleep = rec.sleep

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	const jobs = 5
	wg.Add(jobs)
	for i := 0; i < jobs; i++ {
		d.Enqueue(func(ctx context.Context) error {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	wg.Wait()
	cancel()
	<-d.Done()

	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want ascending", order)
		}
	}
	calls := rec.snapshot()
	if len(calls) < jobs-1 {
		t.Fatalf("got %d pacing sleeps, want at least %d", len(calls), jobs-1)
	}
	for _, c := range calls {
		if c != cfg.Interval() {
			t.Errorf("sleep %v, want %v", c, cfg.Interval())
		}
	}
	stats := d.Stats()
	if stats.Delivered != jobs || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestDispatcherIsolatesFailures(t *testing.T) {
	d := New(Config{Rate: 1, Window: time.Millisecond})
	d.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }

	var wg sync.WaitGroup
	wg.Add(3)
	d.Enqueue(func(ctx context.Context) error { defer wg.Done(); return errors.New("chat not found") })
	d.Enqueue(func(ctx context.Context) error { defer wg.Done(); panic("boom") })
	delivered := make(chan struct{})
	d.Enqueue(func(ctx context.Context) error { defer wg.Done(); close(delivered); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("third job was not executed after failures")
	}
	wg.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for {
		stats := d.Stats()
		if stats.Delivered == 1 && stats.Failed == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("stats = %+v, want 1 delivered and 2 failed", stats)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDispatcherPendingAndStop(t *testing.T) {
	d := New(Config{Rate: 1, Window: time.Hour})
	for i := 0; i < 3; i++ {
		d.Enqueue(func(ctx context.Context) error { return nil })
	}
	d.Enqueue(nil)

	if got := d.Stats().Pending; got != 3 {
		t.Fatalf("Pending = %d, want 3", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	d.Start(ctx)
	cancel()

	select {
	case <-d.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop after cancel")
	}
	if got := d.Stats().Pending; got > 3 {
		t.Errorf("Pending = %d after stop", got)
	}
}
