// Package storage caches fetched revision data in a local sqlite
// database so that repeated evaluations and benchmark runs do not hit the
// wiki APIs again for immutable data. Revision text, render error counts
// and model scores never change for a given revision id, so entries have
// no expiry.
package storage

import (
	"database/sql"
	_ "embed"
	"errors"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// PreparedStatements holds the prepared queries the cache runs. Exported
// for reuse in test helpers.
type PreparedStatements struct {
	SelectTextStmt   *sqlx.Stmt
	InsertTextStmt   *sqlx.Stmt
	SelectErrorsStmt *sqlx.Stmt
	InsertErrorsStmt *sqlx.Stmt
	SelectScoreStmt  *sqlx.Stmt
	InsertScoreStmt  *sqlx.Stmt
}

// InitializeStatements prepares every query the cache needs.
func InitializeStatements(conn *sqlx.DB) (*PreparedStatements, error) {
	stmts := &PreparedStatements{}
	var err error

	stmts.SelectTextStmt, err = conn.Preparex(
		`SELECT wikitext FROM revision_text WHERE wiki = ? AND rev_id = ?`)
	if err != nil {
		return nil, err
	}
	stmts.InsertTextStmt, err = conn.Preparex(
		`INSERT OR REPLACE INTO revision_text (wiki, rev_id, wikitext) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	stmts.SelectErrorsStmt, err = conn.Preparex(
		`SELECT error_count FROM render_errors WHERE wiki = ? AND rev_id = ?`)
	if err != nil {
		return nil, err
	}
	stmts.InsertErrorsStmt, err = conn.Preparex(
		`INSERT OR REPLACE INTO render_errors (wiki, rev_id, error_count) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	stmts.SelectScoreStmt, err = conn.Preparex(
		`SELECT score FROM ml_score WHERE wiki = ? AND rev_id = ? AND model = ?`)
	if err != nil {
		return nil, err
	}
	stmts.InsertScoreStmt, err = conn.Preparex(
		`INSERT OR REPLACE INTO ml_score (wiki, rev_id, model, score) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}

	return stmts, nil
}

// Cache is the sqlite-backed lookup table. Safe for concurrent use; sqlx
// serializes access to the underlying connection pool.
type Cache struct {
	*PreparedStatements
	conn *sqlx.DB
}

// Open connects to the cache database at path, creating the schema when
// missing. Use ":memory:" for a throwaway cache.
func Open(path string) (*Cache, error) {
	conn, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return Init(conn)
}

// Init builds a Cache on an existing connection with migrations applied.
func Init(conn *sqlx.DB) (*Cache, error) {
	stmts, err := InitializeStatements(conn)
	if err != nil {
		return nil, err
	}
	return &Cache{PreparedStatements: stmts, conn: conn}, nil
}

// RunMigrations executes the schema. Idempotent.
func RunMigrations(conn *sqlx.DB) error {
	_, err := conn.Exec(schemaSQL)
	return err
}

func (c *Cache) Close() error {
	return c.conn.Close()
}

// RevisionText returns the cached wikitext and whether it was present.
func (c *Cache) RevisionText(wikiID string, revID int64) (string, bool, error) {
	var text string
	err := c.SelectTextStmt.Get(&text, wikiID, revID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func (c *Cache) SaveRevisionText(wikiID string, revID int64, text string) error {
	_, err := c.InsertTextStmt.Exec(wikiID, revID, text)
	return err
}

// RenderErrorCount returns the cached error count and whether it was
// present.
func (c *Cache) RenderErrorCount(wikiID string, revID int64) (int, bool, error) {
	var count int
	err := c.SelectErrorsStmt.Get(&count, wikiID, revID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

func (c *Cache) SaveRenderErrorCount(wikiID string, revID int64, count int) error {
	_, err := c.InsertErrorsStmt.Exec(wikiID, revID, count)
	return err
}

// MLScore returns the cached model score and whether it was present.
func (c *Cache) MLScore(wikiID string, revID int64, model string) (float64, bool, error) {
	var score float64
	err := c.SelectScoreStmt.Get(&score, wikiID, revID, model)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

func (c *Cache) SaveMLScore(wikiID string, revID int64, model string, score float64) error {
	_, err := c.InsertScoreStmt.Exec(wikiID, revID, model, score)
	return err
}
