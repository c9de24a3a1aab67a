package wiki

import "sort"

// Page is a wiki article with a reviewed (stable) revision and the
// pending revisions that came after it.
type Page struct {
	ID          int64  `yaml:"id"`
	Title       string `yaml:"title"`
	Wiki        string `yaml:"wiki"` // language code, e.g. "fi"
	StableRevID int64  `yaml:"stable_rev_id"`
	Categories  []string    `yaml:"categories"`
	Pending     []*Revision `yaml:"pending"` // ordered by timestamp, then id
}

// SortPending orders the pending revisions by timestamp, breaking ties by
// revision id. Callers that construct pages by hand should call this before
// handing the page to the pipeline.
func (p *Page) SortPending() {
	sort.SliceStable(p.Pending, func(i, j int) bool {
		if p.Pending[i].Created.Equal(p.Pending[j].Created) {
			return p.Pending[i].ID < p.Pending[j].ID
		}
		return p.Pending[i].Created.Before(p.Pending[j].Created)
	})
}

// Revision returns the pending revision with the given id, or nil.
func (p *Page) Revision(id int64) *Revision {
	for _, rev := range p.Pending {
		if rev.ID == id {
			return rev
		}
	}
	return nil
}

// Latest returns the newest pending revision, or nil if there are none.
func (p *Page) Latest() *Revision {
	if len(p.Pending) == 0 {
		return nil
	}
	return p.Pending[len(p.Pending)-1]
}
