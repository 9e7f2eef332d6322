package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"venuebook/internal/logger"
)

type VenueLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

// Sweeper reconciles every venue, repairing signals that were dropped or lost
// to a crash between commit and reconcile.
type Sweeper struct {
	venues      VenueLister
	runner      Runner
	concurrency int
	log         *zap.Logger
}

func NewSweeper(venues VenueLister, runner Runner, concurrency int, log *zap.Logger) *Sweeper {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Sweeper{venues: venues, runner: runner, concurrency: concurrency, log: logger.OrNop(log)}
}

// ReconcileAll runs every venue with bounded parallelism. A failing venue does
// not stop the others; all failures are joined into the returned error.
func (s *Sweeper) ReconcileAll(ctx context.Context) ([]*Report, error) {
	ids, err := s.venues.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		reports = make([]*Report, 0, len(ids))
		errs    []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			report, err := s.runner.Reconcile(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			reports = append(reports, report)
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info("sweep finished", zap.Int("venues", len(ids)), zap.Int("failed", len(errs)))
	return reports, errors.Join(errs...)
}

// Schedule registers ReconcileAll on a cron spec such as "@every 15m". Runs
// that would overlap a still running sweep are skipped. The caller starts and
// stops the returned scheduler.
func (s *Sweeper) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	l := cronLogger{s.log.Named("cron")}
	c := cron.New(cron.WithLogger(l), cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)))
	_, err := c.AddFunc(spec, func() {
		if _, err := s.ReconcileAll(ctx); err != nil {
			s.log.Warn("sweep had failures", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
