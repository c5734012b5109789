// ABOUTME: Status command summarizing connectivity, local data, and queued work
// ABOUTME: Color-coded report of the sync engine's view of the world

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tim-projects/not-the-news-sub002/internal/models"
	"github.com/tim-projects/not-the-news-sub002/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	Long:  "Display connectivity, local data counts, and queued sync work.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if engine.Online() {
			color.Green("Online")
		} else {
			color.Red("Offline")
		}
		fmt.Printf("  server: %s\n", cfg.GetServerURL())

		if engine.SyncEnabled() {
			fmt.Println("  sync:   enabled")
		} else {
			color.Yellow("  sync:   disabled")
		}

		count, err := localDB.CountItems()
		if err != nil {
			return err
		}
		hidden, err := store.StateValueOr(localDB, models.KeyHidden, []models.HiddenEntry{})
		if err != nil {
			return err
		}
		starred, err := store.StateValueOr(localDB, models.KeyStarred, []models.StarredEntry{})
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Printf("  items:   %d (%d read, %d starred)\n", count, len(hidden), len(starred))
		fmt.Printf("  deck:    %d\n", len(selector.Current()))
		if remaining, err := selector.ShufflesRemaining(); err == nil {
			fmt.Printf("  shuffles left today: %d\n", remaining)
		}

		fmt.Println()
		fmt.Printf("  pending ops:      %d\n", engine.PendingCount())
		fmt.Printf("  buffered changes: %d\n", engine.BufferedCount())
		if cursor := engine.Cursor(); cursor != "" {
			fmt.Printf("  state cursor:     %s\n", cursor)
		} else {
			fmt.Println("  state cursor:     (never synced)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
