package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/wikimedia-suomi/pendingbot/autoreview"
	"github.com/wikimedia-suomi/pendingbot/wiki"
)

// CachedClient wraps a collaborator client with the sqlite cache. Cache
// failures are logged and fall through to the source; a broken cache must
// never make a lookup fail that the source could answer.
type CachedClient struct {
	source autoreview.Client
	cache  *Cache
	logger *slog.Logger
}

// NewCachedClient wires a cache in front of source.
func NewCachedClient(source autoreview.Client, cache *Cache, logger *slog.Logger) *CachedClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedClient{source: source, cache: cache, logger: logger}
}

func (c *CachedClient) RevisionText(ctx context.Context, wikiID string, revID int64) (string, error) {
	text, ok, err := c.cache.RevisionText(wikiID, revID)
	if err != nil {
		c.logger.Warn("cache read failed", "table", "revision_text", "error", err)
	} else if ok {
		return text, nil
	}
	text, err = c.source.RevisionText(ctx, wikiID, revID)
	if err != nil {
		return "", err
	}
	if err := c.cache.SaveRevisionText(wikiID, revID, text); err != nil {
		c.logger.Warn("cache write failed", "table", "revision_text", "error", err)
	}
	return text, nil
}

func (c *CachedClient) RenderErrorCount(ctx context.Context, wikiID string, revID int64) (int, error) {
	count, ok, err := c.cache.RenderErrorCount(wikiID, revID)
	if err != nil {
		c.logger.Warn("cache read failed", "table", "render_errors", "error", err)
	} else if ok {
		return count, nil
	}
	count, err = c.source.RenderErrorCount(ctx, wikiID, revID)
	if err != nil {
		return 0, err
	}
	if err := c.cache.SaveRenderErrorCount(wikiID, revID, count); err != nil {
		c.logger.Warn("cache write failed", "table", "render_errors", "error", err)
	}
	return count, nil
}

func (c *CachedClient) MLScore(ctx context.Context, wikiID string, revID int64, model string) (float64, error) {
	score, ok, err := c.cache.MLScore(wikiID, revID, model)
	if err != nil {
		c.logger.Warn("cache read failed", "table", "ml_score", "error", err)
	} else if ok {
		return score, nil
	}
	score, err = c.source.MLScore(ctx, wikiID, revID, model)
	if err != nil {
		return 0, err
	}
	if err := c.cache.SaveMLScore(wikiID, revID, model, score); err != nil {
		c.logger.Warn("cache write failed", "table", "ml_score", "error", err)
	}
	return score, nil
}

// The remaining lookups are either cheap or mutable (block logs, user
// groups, domain usage) and pass straight through.

func (c *CachedClient) CompareRevisions(ctx context.Context, wikiID string, fromID, toID int64) (*wiki.Diff, error) {
	return c.source.CompareRevisions(ctx, wikiID, fromID, toID)
}

func (c *CachedClient) AddedWords(ctx context.Context, wikiID string, fromID, toID int64) ([]string, error) {
	return c.source.AddedWords(ctx, wikiID, fromID, toID)
}

func (c *CachedClient) EditorProfile(ctx context.Context, wikiID, username string) (*wiki.EditorProfile, error) {
	return c.source.EditorProfile(ctx, wikiID, username)
}

func (c *CachedClient) BlockedAfter(ctx context.Context, wikiID, username string, since time.Time) (bool, error) {
	return c.source.BlockedAfter(ctx, wikiID, username, since)
}

func (c *CachedClient) DomainUsed(ctx context.Context, wikiID, domain string) (bool, error) {
	return c.source.DomainUsed(ctx, wikiID, domain)
}

func (c *CachedClient) RenderedHTML(ctx context.Context, wikiID string, revID int64) (string, error) {
	return c.source.RenderedHTML(ctx, wikiID, revID)
}

func (c *CachedClient) ORESScores(ctx context.Context, wikiID string, revID int64, models []string) (map[string]float64, error) {
	return c.source.ORESScores(ctx, wikiID, revID, models)
}

func (c *CachedClient) ManuallyUnapproved(ctx context.Context, wikiID, pageTitle string, revID int64) (bool, error) {
	return c.source.ManuallyUnapproved(ctx, wikiID, pageTitle, revID)
}
