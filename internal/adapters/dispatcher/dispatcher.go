package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

// Config - потолок исходящего канала: Rate сообщений за Window плюс запас Buffer после каждого
type Config struct {
	Rate   int
	Window time.Duration
	Buffer time.Duration
}

// Interval - пауза после каждой задачи
func (c Config) Interval() time.Duration {
	if c.Rate <= 0 {
		return c.Buffer
	}
	return c.Window/time.Duration(c.Rate) + c.Buffer
}

// Dispatcher - единственная очередь FIFO перед каналом доставки.
// Один потребитель выполняет задачи по одной и выдерживает паузу после каждой,
// поэтому общий темп не зависит от числа площадок, которые ставят задачи.
type Dispatcher struct {
	interval time.Duration
	sleep    func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	queue   []port.DeliveryJob
	wake    chan struct{}
	started atomic.Bool
	done    chan struct{}

	delivered atomic.Int64
	failed    atomic.Int64
}

func New(cfg Config) *Dispatcher {
	return &Dispatcher{
		interval: cfg.Interval(),
		sleep:    sleepContext,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Enqueue не блокируется: очередь не ограничена
func (d *Dispatcher) Enqueue(job port.DeliveryJob) {
	if job == nil {
		return
	}
	d.mu.Lock()
	d.queue = append(d.queue, job)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) Stats() domain.NotificationStats {
	d.mu.Lock()
	pending := len(d.queue)
	d.mu.Unlock()
	return domain.NotificationStats{
		Pending:   pending,
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
	}
}

// Start запускает потребителя. Повторный вызов ничего не делает.
// Потребитель работает до отмены ctx; Done закрывается после его выхода.
func (d *Dispatcher) Start(ctx context.Context) {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	go d.run(ctx)
}

func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) pop() (port.DeliveryJob, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil, false
	}
	job := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return job, true
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "NotificationDispatcher"})
	logger.Info("Dispatcher started", port.Fields{"interval": d.interval.String()})

	for {
		job, ok := d.pop()
		if !ok {
			select {
			case <-ctx.Done():
				logger.Info("Dispatcher stopped", port.Fields{"pending": d.Stats().Pending})
				return
			case <-d.wake:
				continue
			}
		}

		d.execute(ctx, logger, job)

		if err := d.sleep(ctx, d.interval); err != nil {
			logger.Info("Dispatcher stopped", port.Fields{"pending": d.Stats().Pending})
			return
		}
	}
}

// execute изолирует сбой одной доставки, в том числе панику, от остальной очереди
func (d *Dispatcher) execute(ctx context.Context, logger port.LoggerPort, job port.DeliveryJob) {
	defer func() {
		if r := recover(); r != nil {
			d.failed.Add(1)
			logger.Warn("Delivery job panicked", port.Fields{"panic": r})
		}
	}()

	if err := job(ctx); err != nil {
		d.failed.Add(1)
		logger.Error("Delivery failed", err, nil)
		return
	}
	d.delivered.Add(1)
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
