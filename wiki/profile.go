package wiki

// EditorProfile describes what the wiki knows about an editor. Fetched by a
// collaborator; absent profiles are represented as nil, not zero values.
type EditorProfile struct {
	Username   string
	Bot        bool
	FormerBot  bool
	Groups     []string
	AutoReview bool // holds a right granting automatic review
	AutoPatrol bool
}

// DiffLineType classifies a line of a structured revision diff.
type DiffLineType int

const (
	DiffContext DiffLineType = iota
	DiffAdded
	DiffDeleted
)

// DiffLine is one line of a structured diff between two revisions.
type DiffLine struct {
	Type DiffLineType
	Text string
	Line int // line number in the newer revision
}

// Diff is a structured comparison of two revisions.
type Diff struct {
	FromID int64
	ToID   int64
	Lines  []DiffLine
}

// Added returns the texts of all added lines, in order.
func (d *Diff) Added() []string {
	return d.texts(DiffAdded)
}

// Deleted returns the texts of all deleted lines, in order.
func (d *Diff) Deleted() []string {
	return d.texts(DiffDeleted)
}

func (d *Diff) texts(t DiffLineType) []string {
	var out []string
	for _, line := range d.Lines {
		if line.Type == t {
			out = append(out, line.Text)
		}
	}
	return out
}
