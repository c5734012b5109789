// ABOUTME: Root Cobra command and global flags
// ABOUTME: Wires config, local store, transport, sync engine, and deck selector

package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tim-projects/not-the-news-sub002/internal/config"
	"github.com/tim-projects/not-the-news-sub002/internal/deck"
	"github.com/tim-projects/not-the-news-sub002/internal/models"
	"github.com/tim-projects/not-the-news-sub002/internal/store"
	"github.com/tim-projects/not-the-news-sub002/internal/syncer"
	"github.com/tim-projects/not-the-news-sub002/internal/transport"
)

var (
	flagDataDir   string
	flagServerURL string
	flagVerbose   bool

	cfg      *config.Config
	localDB  *store.PudgeStore
	client   *transport.Client
	engine   *syncer.Syncer
	selector *deck.Selector
	logger   *logrus.Entry
)

var rootCmd = &cobra.Command{
	Use:   "ntn",
	Short: "Offline-first feed reader with opportunistic sync",
	Long: `ntn keeps a local copy of your feed items and reading state and
reconciles it with the sync server whenever connectivity allows.

Everything works offline: stars, hides, and settings changes apply
locally first and are queued for the server. The deck is your bounded
working set of unread items; reshuffle it up to twice a day.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logrus.WarnLevel
		if flagVerbose {
			level = logrus.DebugLevel
		}
		base := logrus.New()
		base.SetLevel(level)
		base.SetOutput(os.Stderr)
		logger = logrus.NewEntry(base)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if flagServerURL != "" {
			cfg.ServerURL = flagServerURL
		}
		if flagDataDir != "" {
			cfg.DataDir = flagDataDir
		}

		localDB, err = store.Open(cfg.GetDataDir())
		if err != nil {
			return fmt.Errorf("failed to open local store: %w", err)
		}

		client, err = transport.New(cfg.GetServerURL(),
			transport.WithHTTPClient(&http.Client{Timeout: cfg.GetHTTPTimeout()}),
			transport.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to create transport: %w", err)
		}

		engine = syncer.New(localDB, client, logger)
		selector = deck.New(localDB, engine, logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if localDB != nil {
			if err := localDB.Close(); err != nil {
				return fmt.Errorf("failed to close local store: %w", err)
			}
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "local store directory (default: ~/.local/share/ntn)")
	rootCmd.PersistentFlags().StringVar(&flagServerURL, "server", "", "sync server base URL (default: from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// resolveItem finds an item by exact identifier or unique prefix.
func resolveItem(ref string) (models.Item, error) {
	if item, err := localDB.GetItem(ref); err == nil && item != nil {
		return *item, nil
	}

	items, err := localDB.AllItems()
	if err != nil {
		return models.Item{}, fmt.Errorf("failed to list items: %w", err)
	}
	var matches []models.Item
	for _, it := range items {
		if strings.HasPrefix(it.GUID, ref) {
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return models.Item{}, fmt.Errorf("item not found: %s", ref)
	default:
		return models.Item{}, fmt.Errorf("ambiguous item reference %q (%d matches)", ref, len(matches))
	}
}
