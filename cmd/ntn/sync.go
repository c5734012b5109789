// ABOUTME: Sync command running full reconciliation passes
// ABOUTME: One-shot by default, or periodic with --watch

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tim-projects/not-the-news-sub002/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile local state with the server",
	Long: `Run a full sync pass: replay queued operations, push buffered
changes, pull the server's user state, reconcile feed items, and prune
stale read entries.

With --watch, keep running a pass every --interval until interrupted.
Offline passes are a quiet no-op; queued work replays when connectivity
returns.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		interval, _ := cmd.Flags().GetDuration("interval")

		if !engine.SyncEnabled() {
			color.Yellow("Sync is disabled (syncEnabled=false); nothing to do.")
			return nil
		}

		if !watch {
			return runSyncPass(cmd)
		}

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		if err := runSyncPass(cmd); err != nil {
			logger.WithError(err).Warn("sync pass failed")
		}
		for {
			select {
			case <-ticker.C:
				if err := runSyncPass(cmd); err != nil {
					logger.WithError(err).Warn("sync pass failed")
				}
			case <-stop:
				fmt.Println("stopping")
				return nil
			}
		}
	},
}

func runSyncPass(cmd *cobra.Command) error {
	if !engine.Online() {
		color.Yellow("Offline; local changes stay queued.")
		return nil
	}
	err := engine.FullSync(cmd.Context())
	if errors.Is(err, syncer.ErrSyncInFlight) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	count, cerr := localDB.CountItems()
	if cerr != nil {
		return cerr
	}
	color.Green("Synced.")
	fmt.Printf("  items:   %d\n", count)
	fmt.Printf("  pending: %d\n", engine.PendingCount())
	return nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().Bool("watch", false, "keep syncing periodically until interrupted")
	syncCmd.Flags().Duration("interval", 5*time.Minute, "interval between passes with --watch")
}
