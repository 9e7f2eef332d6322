package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, reconcile workers, sweep schedule and sync consumer",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.dispatcher.Run(ctx)
	}()

	var scheduler *cron.Cron
	if spec := a.cfg.Reconcile.SweepSchedule; spec != "" {
		if scheduler, err = a.sweeper.Schedule(ctx, spec); err != nil {
			return fmt.Errorf("sweep schedule %q: %w", spec, err)
		}
		if _, err := scheduler.AddFunc("@daily", func() {
			if _, err := a.consumer.PruneRejected(ctx, a.cfg.Sync.RejectedRetention); err != nil {
				a.log.Warn("prune rejected sync messages", zap.Error(err))
			}
		}); err != nil {
			return err
		}
		scheduler.Start()
		a.log.Info("sweep scheduled", zap.String("spec", spec))
	}

	if a.redis != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.consumer.Run(ctx, a.redis, a.streamOptions()); err != nil {
				a.log.Error("sync consumer stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutting down")
	case err = <-serveErr:
		a.log.Error("http server failed", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			a.log.Warn("sweep still running at shutdown")
		}
	}
	// Hijacked websocket connections are not closed by Shutdown.
	a.hub.Close()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		a.log.Warn("http shutdown", zap.Error(shutdownErr))
	}
	wg.Wait()
	a.log.Info("stopped")
	return err
}
