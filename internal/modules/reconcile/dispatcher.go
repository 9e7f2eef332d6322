package reconcile

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"venuebook/internal/logger"
)

// Runner reconciles one venue.
type Runner interface {
	Reconcile(ctx context.Context, venueID int64) (*Report, error)
}

// Dispatcher turns after-commit "venue changed" signals into reconcile runs on
// a fixed pool of workers. A venue already waiting in the queue is not queued
// twice; a signal arriving while its venue is being reconciled queues one more
// run.
type Dispatcher struct {
	runner  Runner
	queue   chan int64
	workers int
	log     *zap.Logger

	mu      sync.Mutex
	pending map[int64]struct{}
}

func NewDispatcher(runner Runner, workers, queueSize int, log *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		runner:  runner,
		queue:   make(chan int64, queueSize),
		workers: workers,
		log:     logger.OrNop(log),
		pending: make(map[int64]struct{}),
	}
}

// VenueChanged queues a reconcile of venueID. It never blocks: when the queue
// is full the signal is dropped and left for the next sweep.
func (d *Dispatcher) VenueChanged(venueID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, queued := d.pending[venueID]; queued {
		return
	}
	select {
	case d.queue <- venueID:
		d.pending[venueID] = struct{}{}
	default:
		signalsDropped.Inc()
		d.log.Warn("reconcile queue full, dropping signal", zap.Int64("venue_id", venueID))
	}
}

// Run processes signals until ctx is done, then works off what is still queued
// and returns.
func (d *Dispatcher) Run(ctx context.Context) {
	runCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					d.drain(runCtx)
					return
				case venueID := <-d.queue:
					d.run(runCtx, venueID)
				}
			}
		}()
	}
	wg.Wait()
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case venueID := <-d.queue:
			d.run(ctx, venueID)
		default:
			return
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, venueID int64) {
	d.mu.Lock()
	delete(d.pending, venueID)
	d.mu.Unlock()

	if _, err := d.runner.Reconcile(ctx, venueID); err != nil {
		d.log.Error("background reconcile failed", zap.Int64("venue_id", venueID), zap.Error(err))
	}
}
