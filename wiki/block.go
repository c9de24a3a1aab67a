package wiki

// EditBlock is a maximal run of consecutive revisions on one page by a
// single editor, with no other editor's revision in between. Blocks are
// built transiently for block-mode evaluation and never persisted.
type EditBlock struct {
	Revisions []*Revision // ordered as in the page's pending list
}

// User returns the editor shared by every revision in the block.
func (b *EditBlock) User() string {
	if len(b.Revisions) == 0 {
		return ""
	}
	return b.Revisions[0].User
}

// FirstParentID is the parent of the block's first revision.
func (b *EditBlock) FirstParentID() int64 {
	if len(b.Revisions) == 0 {
		return 0
	}
	return b.Revisions[0].ParentID
}

// First returns the oldest revision in the block.
func (b *EditBlock) First() *Revision {
	if len(b.Revisions) == 0 {
		return nil
	}
	return b.Revisions[0]
}

// Last returns the newest revision in the block.
func (b *EditBlock) Last() *Revision {
	if len(b.Revisions) == 0 {
		return nil
	}
	return b.Revisions[len(b.Revisions)-1]
}

// GroupConsecutive splits a page's ordered pending revisions into edit
// blocks. Concatenating the blocks' revision lists in order reproduces the
// input exactly.
func GroupConsecutive(revisions []*Revision) []*EditBlock {
	var blocks []*EditBlock
	for _, rev := range revisions {
		if n := len(blocks); n > 0 && blocks[n-1].User() == rev.User {
			blocks[n-1].Revisions = append(blocks[n-1].Revisions, rev)
			continue
		}
		blocks = append(blocks, &EditBlock{Revisions: []*Revision{rev}})
	}
	return blocks
}
