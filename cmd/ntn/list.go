// ABOUTME: List command for browsing locally stored items
// ABOUTME: Filters by read and starred status with color formatting

package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tim-projects/not-the-news-sub002/internal/config"
	"github.com/tim-projects/not-the-news-sub002/internal/models"
	"github.com/tim-projects/not-the-news-sub002/internal/store"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List items",
	Long:    "List locally stored items, unread only by default",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		starredOnly, _ := cmd.Flags().GetBool("starred")
		limit, _ := cmd.Flags().GetInt("limit")

		// The filterMode setting supplies defaults; explicit flags win.
		if !all && !starredOnly {
			mode, err := store.StateValueOr(localDB, models.KeyFilterMode, "unread")
			if err != nil {
				return err
			}
			switch mode {
			case "all":
				all = true
			case "starred":
				starredOnly = true
			}
		}

		items, err := localDB.AllItems()
		if err != nil {
			return fmt.Errorf("failed to list items: %w", err)
		}
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].PublishedAt().After(items[j].PublishedAt())
		})

		hidden, err := store.StateValueOr(localDB, models.KeyHidden, []models.HiddenEntry{})
		if err != nil {
			return err
		}
		starred, err := store.StateValueOr(localDB, models.KeyStarred, []models.StarredEntry{})
		if err != nil {
			return err
		}
		hiddenIDs := models.MarkedIDs(hidden)
		starredIDs := models.MarkedIDs(starred)

		faint := color.New(color.Faint).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		shown := 0
		for _, item := range items {
			if shown == limit {
				break
			}
			isHidden := hiddenIDs[item.GUID]
			isStarred := starredIDs[item.GUID]
			if isHidden && !all {
				continue
			}
			if starredOnly && !isStarred {
				continue
			}

			marker := " "
			if isStarred {
				marker = yellow("★")
			}
			title := item.Title
			if isHidden {
				title = faint(title)
			}
			fmt.Printf("%s %s\n", marker, title)
			fmt.Printf("  %s  %s\n", faint(item.PublishedAt().Format(config.DateFormatShort)), faint(shortID(item.GUID)))
			shown++
		}
		if shown == 0 {
			fmt.Println(faint("no items"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("all", false, "include hidden (read) items")
	listCmd.Flags().Bool("starred", false, "only starred items")
	listCmd.Flags().Int("limit", config.DefaultListLimit, "maximum number of items to show")
}
