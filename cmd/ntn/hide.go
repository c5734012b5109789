// ABOUTME: Hide and unhide commands for the read/hidden set
// ABOUTME: Hiding a deck member shrinks the deck, refilling it when emptied

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var hideCmd = &cobra.Command{
	Use:   "hide <item-id>",
	Short: "Hide an item (mark as read)",
	Long: `Mark an item as read and hide it. If the item is in the deck it is
removed in place; a deck left with no unread members refills itself.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := resolveItem(args[0])
		if err != nil {
			return err
		}
		if err := engine.Hide(cmd.Context(), item.GUID); err != nil {
			return fmt.Errorf("failed to hide: %w", err)
		}
		if _, err := selector.Remove(item.GUID); err != nil {
			return fmt.Errorf("failed to update deck: %w", err)
		}
		color.Green("Hidden: %s", item.Title)
		reportQueued()
		return nil
	},
}

var unhideCmd = &cobra.Command{
	Use:   "unhide <item-id>",
	Short: "Unhide an item (mark as unread)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := resolveItem(args[0])
		if err != nil {
			return err
		}
		if err := engine.Unhide(cmd.Context(), item.GUID); err != nil {
			return fmt.Errorf("failed to unhide: %w", err)
		}
		color.Green("Unhidden: %s", item.Title)
		reportQueued()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hideCmd)
	rootCmd.AddCommand(unhideCmd)
}
