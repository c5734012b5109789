// ABOUTME: Read command for viewing item content
// ABOUTME: Renders the description as Markdown and marks the item read

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tim-projects/not-the-news-sub002/internal/config"
	"github.com/tim-projects/not-the-news-sub002/internal/content"
)

var readCmd = &cobra.Command{
	Use:   "read <item-id>",
	Short: "Read an item",
	Long:  "Display the full content of an item and mark it as read (hidden)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		noMark, _ := cmd.Flags().GetBool("no-mark")

		item, err := resolveItem(args[0])
		if err != nil {
			return err
		}

		bold := color.New(color.Bold).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Println(strings.Repeat("─", config.SeparatorWidth))
		fmt.Printf("%s\n\n", bold(item.Title))
		if !item.PublishedAt().IsZero() {
			fmt.Printf("%s %s\n", faint("Published:"), item.PublishedAt().Format(config.DateFormatLong))
		}
		if item.Link != "" {
			fmt.Printf("%s %s\n", faint("Link:"), cyan(item.Link))
		}
		fmt.Println(strings.Repeat("─", config.SeparatorWidth))

		if item.Description == "" {
			fmt.Println(faint("(no content)"))
		} else {
			fmt.Println(content.RenderTerminal(item.Description))
		}

		if noMark {
			return nil
		}
		if err := engine.Hide(cmd.Context(), item.GUID); err != nil {
			return fmt.Errorf("failed to mark read: %w", err)
		}
		if _, err := selector.Remove(item.GUID); err != nil {
			return fmt.Errorf("failed to update deck: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().Bool("no-mark", false, "do not mark the item as read")
}
