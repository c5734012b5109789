// ABOUTME: Shuffle command replacing the deck with a random unread selection
// ABOUTME: Rate-limited to a small daily budget that resets at local midnight

package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tim-projects/not-the-news-sub002/internal/deck"
)

var shuffleCmd = &cobra.Command{
	Use:   "shuffle",
	Short: "Shuffle the deck",
	Long: `Replace the deck with a random selection of unread items that are
not already in it. Limited to two shuffles per day; the budget resets at
local midnight.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := selector.Shuffle()
		if errors.Is(err, deck.ErrShuffleLimit) {
			color.Yellow("No shuffles left today; the budget resets at midnight.")
			return nil
		}
		if errors.Is(err, deck.ErrNoCandidates) {
			color.Yellow("Nothing to shuffle in — every unread item is already in the deck.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("shuffle failed: %w", err)
		}

		remaining, _ := selector.ShufflesRemaining()
		color.Green("Shuffled.")
		fmt.Printf("  deck size:      %d\n", len(ids))
		fmt.Printf("  shuffles left:  %d\n", remaining)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shuffleCmd)
}
