// ABOUTME: Star and unstar commands for marking items
// ABOUTME: Local write first; the delta is queued when the server is unreachable

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var starCmd = &cobra.Command{
	Use:   "star <item-id>",
	Short: "Star an item",
	Long:  "Mark an item as starred. Works offline; the change syncs later.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := resolveItem(args[0])
		if err != nil {
			return err
		}
		if err := engine.Star(cmd.Context(), item.GUID); err != nil {
			return fmt.Errorf("failed to star: %w", err)
		}
		color.Green("Starred: %s", item.Title)
		reportQueued()
		return nil
	},
}

var unstarCmd = &cobra.Command{
	Use:   "unstar <item-id>",
	Short: "Remove a star",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := resolveItem(args[0])
		if err != nil {
			return err
		}
		if err := engine.Unstar(cmd.Context(), item.GUID); err != nil {
			return fmt.Errorf("failed to unstar: %w", err)
		}
		color.Green("Unstarred: %s", item.Title)
		reportQueued()
		return nil
	},
}

// reportQueued mentions queued work so offline use is not silent.
func reportQueued() {
	if n := engine.PendingCount(); n > 0 {
		faint := color.New(color.Faint).SprintFunc()
		fmt.Println(faint(fmt.Sprintf("(%d change(s) queued for sync)", n)))
	}
}

func init() {
	rootCmd.AddCommand(starCmd)
	rootCmd.AddCommand(unstarCmd)
}
