// Package config loads the process configuration: API endpoints, cache
// location, logging. Per-wiki review settings live in a separate YAML file
// handled by the wiki package.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/wikimedia-suomi/pendingbot/internal/logger"
)

// Config is the bootstrap configuration for the CLI.
type Config struct {
	// APIBaseURL is a template with one %s placeholder for the wiki id.
	APIBaseURL string
	// ScoreURL is the Lift Wing inference root.
	ScoreURL string
	// ORESURL is the ORES scoring service root.
	ORESURL string
	// CacheFile is the sqlite cache path; empty disables caching.
	CacheFile string
	// WikisFile is the per-wiki review configuration YAML.
	WikisFile     string
	CommentPrefix string
	LogFormat     string
	LogLevel      string
	Concurrency   int
}

// Load reads the config file and initializes the global logger. With an
// empty path a config.yaml in the working directory is used when present;
// defaults apply without one.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("api_base_url", "https://%s.wikipedia.org")
	v.SetDefault("score_url", "https://api.wikimedia.org/service/lw/inference/v1/models")
	v.SetDefault("ores_url", "https://ores.wikimedia.org/v3/scores")
	v.SetDefault("cache_file", "pendingbot.db")
	v.SetDefault("wikis_file", "wikis.yaml")
	v.SetDefault("comment_prefix", "")
	v.SetDefault("log_format", "pretty") // pretty, json, or text
	v.SetDefault("log_level", "info")    // debug, info, warn, error
	v.SetDefault("concurrency", 4)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		APIBaseURL:    v.GetString("api_base_url"),
		ScoreURL:      v.GetString("score_url"),
		ORESURL:       v.GetString("ores_url"),
		CacheFile:     v.GetString("cache_file"),
		WikisFile:     v.GetString("wikis_file"),
		CommentPrefix: v.GetString("comment_prefix"),
		LogFormat:     v.GetString("log_format"),
		LogLevel:      v.GetString("log_level"),
		Concurrency:   v.GetInt("concurrency"),
	}
	if !strings.Contains(cfg.APIBaseURL, "%s") {
		return nil, fmt.Errorf("api_base_url %q needs a %%s placeholder for the wiki id", cfg.APIBaseURL)
	}

	logger.Init(logger.ParseFormat(cfg.LogFormat), logger.ParseLevel(cfg.LogLevel))
	return cfg, nil
}
