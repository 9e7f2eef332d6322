package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"venuebook/internal/logger"
)

// configDir is where LoadConfig looks for a .env file.
var configDir string

var rootCmd = &cobra.Command{
	Use:   "venuebook",
	Short: "Venue scheduling and unavailability sync service",
	Long: `venuebook manages recurring subscriptions and one-off bookings for venues,
keeps the derived unavailability index in step with them, and mirrors index
changes to and from a remote booking system.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory holding an optional .env file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
		if logErr != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		l.Error("command failed", zap.Error(err))
		_ = l.Sync()
		os.Exit(1)
	}
}
