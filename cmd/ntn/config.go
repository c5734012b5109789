// ABOUTME: Config command for scalar settings and server-side config files
// ABOUTME: Settings changes ride the buffered-change sync path like any other mutation

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tim-projects/not-the-news-sub002/internal/models"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage settings",
	Long: `Read and write scalar settings (syncEnabled, filterMode, theme, ...)
and load or save server-side configuration files.

Settings apply locally first and sync to the server like any other
change.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show a setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if err := checkScalarKey(key); err != nil {
			return err
		}
		rec, err := localDB.GetState(key)
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Println("(unset)")
			return nil
		}
		fmt.Println(string(rec.Value))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long:  "Change a setting. Values are parsed as JSON, falling back to a plain string.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, raw := args[0], args[1]
		if err := checkScalarKey(key); err != nil {
			return err
		}

		// "true", "2", `"dark"` parse as JSON; bare words become strings.
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}

		if err := engine.SetScalar(cmd.Context(), key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
		color.Green("%s = %v", key, value)
		reportQueued()
		return nil
	},
}

var configLoadFileCmd = &cobra.Command{
	Use:   "load-file <filename>",
	Short: "Print a server-side config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := client.LoadConfigFile(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", args[0], err)
		}
		fmt.Print(body)
		return nil
	},
}

var configSaveFileCmd = &cobra.Command{
	Use:   "save-file <filename> <local-path>",
	Short: "Upload a server-side config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		if err := client.SaveConfigFile(cmd.Context(), args[0], string(data)); err != nil {
			return fmt.Errorf("failed to save %s: %w", args[0], err)
		}
		color.Green("Saved %s", args[0])
		return nil
	},
}

func checkScalarKey(key string) error {
	if !slices.Contains(models.ScalarKeys, key) {
		return fmt.Errorf("unknown setting %q (known: %v)", key, models.ScalarKeys)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configLoadFileCmd)
	configCmd.AddCommand(configSaveFileCmd)
}
