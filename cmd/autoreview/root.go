package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wikimedia-suomi/pendingbot/autoreview"
	"github.com/wikimedia-suomi/pendingbot/internal/config"
	"github.com/wikimedia-suomi/pendingbot/internal/mwclient"
	"github.com/wikimedia-suomi/pendingbot/internal/storage"
	"github.com/wikimedia-suomi/pendingbot/wiki"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := &commandContext{configPath: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "autoreview",
		Short:         "Review pending wiki edits automatically",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newEvaluateCommand(ctx))
	rootCmd.AddCommand(newBenchmarkCommand(ctx))
	rootCmd.AddCommand(newChecksCommand())

	return rootCmd
}

// commandContext lazily builds the pieces commands share: the process
// config, the API client, and the per-wiki review configurations.
type commandContext struct {
	configPath *string
	cfg        *config.Config
	wikis      map[string]wiki.Configuration
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// newClient builds the API client, wrapped in the sqlite cache unless
// caching is disabled. The returned closer releases the cache.
func (c *commandContext) newClient() (autoreview.Client, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	source := mwclient.New(mwclient.Options{
		BaseURL:  cfg.APIBaseURL,
		ScoreURL: cfg.ScoreURL,
		ORESURL:  cfg.ORESURL,
	})
	if cfg.CacheFile == "" {
		return source, func() {}, nil
	}
	cache, err := storage.Open(cfg.CacheFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache %s: %w", cfg.CacheFile, err)
	}
	client := storage.NewCachedClient(source, cache, slog.Default())
	return client, func() { cache.Close() }, nil
}

// wikiConfig resolves the review configuration for one wiki. A missing
// wikis file or a wiki without an entry falls back to defaults; a present
// but invalid file is a hard error.
func (c *commandContext) wikiConfig(wikiID string) (wiki.Configuration, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return wiki.Configuration{}, err
	}
	if c.wikis == nil {
		wikis, err := wiki.LoadConfigurations(cfg.WikisFile)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return wiki.Configuration{}, err
			}
			slog.Debug("no wiki configuration file, using defaults", "path", cfg.WikisFile)
			wikis = map[string]wiki.Configuration{}
		}
		// Unknown check names must fail here, before any revision is
		// evaluated.
		for id, wikiCfg := range wikis {
			if _, err := autoreview.ChecksFor(wikiCfg.EnabledChecks); err != nil {
				return wiki.Configuration{}, fmt.Errorf("wiki %q: %w", id, err)
			}
		}
		c.wikis = wikis
	}
	if wikiCfg, ok := c.wikis[wikiID]; ok {
		return wikiCfg, nil
	}
	return wiki.DefaultConfiguration(), nil
}
