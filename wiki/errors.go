package wiki

import "errors"

// Sentinel errors for collaborator lookups. External failures carrying one
// of these degrade the responsible check to inconclusive; they never abort
// an evaluation.
var (
	ErrRevisionNotFound   = errors.New("revision not found")
	ErrDiffUnavailable    = errors.New("diff unavailable")
	ErrScoreUnavailable   = errors.New("model score unavailable")
	ErrProfileUnavailable = errors.New("editor profile unavailable")
	ErrRenderUnavailable  = errors.New("rendered html unavailable")
	ErrNoWikitext         = errors.New("revision has no wikitext")
)
