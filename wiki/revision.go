package wiki

import "time"

// Revision is a single edit as fetched from the wiki. Revisions are
// read-only once fetched; the review pipeline never mutates them.
type Revision struct {
	ID       int64     `db:"revid" yaml:"id"`
	ParentID int64     `db:"parentid" yaml:"parent_id"` // 0 for a page's first revision
	PageID   int64     `db:"pageid" yaml:"page_id"`
	User     string    `db:"username" yaml:"user"`
	Bot      bool      `db:"bot" yaml:"bot"` // recent-changes bot flag on the edit itself
	Created  time.Time `db:"created" yaml:"created"`
	Wikitext string    `db:"wikitext" yaml:"wikitext"` // empty if not fetched
	Comment  string    `db:"comment" yaml:"comment"`
}

// HasParent reports whether the revision diffs against an earlier revision.
func (r *Revision) HasParent() bool {
	return r.ParentID > 0
}
