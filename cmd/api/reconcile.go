package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"venuebook/internal/modules/reconcile"
)

var (
	reconcileVenue int64
	reconcileAll   bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Bring the unavailability index in line with subscriptions and bookings",
	Long: `Reconcile rebuilds the index delta for one venue (--venue) or for every
venue (--all), publishes the resulting changes and prints a report.

Examples:
  venuebook reconcile --venue 12
  venuebook reconcile --all`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().Int64Var(&reconcileVenue, "venue", 0, "venue id to reconcile")
	reconcileCmd.Flags().BoolVar(&reconcileAll, "all", false, "reconcile every venue")
	reconcileCmd.MarkFlagsMutuallyExclusive("venue", "all")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	if !reconcileAll && reconcileVenue <= 0 {
		return fmt.Errorf("pass --venue <id> or --all")
	}
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	if !reconcileAll {
		report, err := a.reconciler.Reconcile(ctx, reconcileVenue)
		if err != nil {
			return err
		}
		printReport(out, report)
		return nil
	}

	reports, err := a.sweeper.ReconcileAll(ctx)
	for _, r := range reports {
		printReport(out, r)
	}
	return err
}

func printReport(w io.Writer, r *reconcile.Report) {
	fmt.Fprintf(w, "venue %d: %d created, %d updated, %d deleted, %d skipped in %s\n",
		r.VenueID, r.Created, r.Updated, r.Deleted, r.Skipped, r.Duration.Round(time.Millisecond))
}
