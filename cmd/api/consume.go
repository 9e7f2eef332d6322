package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Apply inbound sync messages from the Redis stream until interrupted",
	RunE:  runConsume,
}

func init() {
	rootCmd.AddCommand(consumeCmd)
}

func runConsume(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.redis == nil {
		return fmt.Errorf("sync is disabled; set SYNC_ENABLED=true")
	}
	return a.consumer.Run(ctx, a.redis, a.streamOptions())
}
