// ABOUTME: Deck command showing the current working set of unread items
// ABOUTME: Seeds the local store on first run and auto-fills an empty deck

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tim-projects/not-the-news-sub002/internal/config"
)

var deckCmd = &cobra.Command{
	Use:     "deck",
	Aliases: []string{"d"},
	Short:   "Show the current deck",
	Long: `Display the current deck: up to ten unread items, newest first.
An empty or fully read deck is refilled automatically. On first run the
local store is seeded from the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		seeded, err := engine.EnsureSeeded(cmd.Context())
		if err != nil {
			logger.WithError(err).Warn("could not seed items from server")
		}
		if seeded {
			color.Green("Seeded local store from server.")
		}

		ids, err := selector.Ensure()
		if err != nil {
			return fmt.Errorf("failed to load deck: %w", err)
		}
		if len(ids) == 0 {
			color.Yellow("Deck is empty — no unread items.")
			return nil
		}

		faint := color.New(color.Faint).SprintFunc()
		bold := color.New(color.Bold).SprintFunc()

		fmt.Println(strings.Repeat("─", config.SeparatorWidth))
		for i, id := range ids {
			item, err := localDB.GetItem(id)
			if err != nil {
				return err
			}
			if item == nil {
				// Deck member deleted since the last sync.
				continue
			}
			fmt.Printf("%2d. %s\n", i+1, bold(item.Title))
			fmt.Printf("    %s  %s\n", faint(item.PublishedAt().Format(config.DateFormatShort)), faint(shortID(item.GUID)))
		}
		fmt.Println(strings.Repeat("─", config.SeparatorWidth))

		remaining, err := selector.ShufflesRemaining()
		if err == nil {
			fmt.Printf("%s\n", faint(fmt.Sprintf("shuffles left today: %d", remaining)))
		}
		return nil
	},
}

// shortID trims an identifier for display; full GUIDs are usually URLs.
func shortID(guid string) string {
	if len(guid) <= 48 {
		return guid
	}
	return guid[:48] + "…"
}

func init() {
	rootCmd.AddCommand(deckCmd)
}
