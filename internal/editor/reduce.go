// Package editor implements the mutation operations of the page builder over
// an in-memory content tree, plus the per-session controller that owns one
// tree during an editing session.
package editor

import (
	"github.com/ryanbastic/go-pagegrid/internal/content"
)

// IDFunc generates fresh element ids.
type IDFunc func() string

// State is everything an editing session tracks: the tree and the active
// element. Selection is the zero Address, a section address or a block
// address, and always resolves in Tree.
type State struct {
	Tree      content.Tree    `json:"tree"`
	Selection content.Address `json:"selection"`
}

// Reduce applies a to s and returns the new state. s is never modified:
// changed paths of the tree are copied, untouched sections, columns and
// blocks are shared with s. Actions that target ids absent from the tree
// return s unchanged.
func Reduce(s State, a Action, newID IDFunc) State {
	next, _ := reduce(s, a, newID)
	return next
}

func reduce(s State, a Action, newID IDFunc) (State, bool) {
	switch a := a.(type) {
	case AddSection:
		return addSection(s, a, newID)
	case RemoveSection:
		return removeSection(s, a)
	case UpdateSection:
		return updateSection(s, a, newID)
	case AddBlock:
		return addBlock(s, a, newID)
	case UpdateBlock:
		return updateBlock(s, a)
	case RemoveBlock:
		return removeBlock(s, a)
	case ReorderSections:
		return reorderSections(s, a)
	case Select:
		return selectElement(s, a)
	case ClearSelection:
		if s.Selection.IsZero() {
			return s, false
		}
		s.Selection = content.Address{}
		return s, true
	}
	return s, false
}

func addSection(s State, a AddSection, newID IDFunc) (State, bool) {
	if !a.Layout.Valid() {
		return s, false
	}
	sec := content.NewSection(a.Layout, newID)
	tree := make(content.Tree, len(s.Tree), len(s.Tree)+1)
	copy(tree, s.Tree)
	tree = append(tree, sec)
	return State{Tree: tree, Selection: content.SectionAddress(sec.ID)}, true
}

func removeSection(s State, a RemoveSection) (State, bool) {
	i := s.Tree.SectionIndex(a.SectionID)
	if i < 0 {
		return s, false
	}
	tree := make(content.Tree, 0, len(s.Tree)-1)
	tree = append(tree, s.Tree[:i]...)
	tree = append(tree, s.Tree[i+1:]...)
	return settle(State{Tree: tree, Selection: s.Selection}), true
}

func updateSection(s State, a UpdateSection, newID IDFunc) (State, bool) {
	i := s.Tree.SectionIndex(a.SectionID)
	if i < 0 {
		return s, false
	}
	sec := s.Tree[i]
	changed := false
	if st := a.Changes.Styles; st != nil && (sec.Styles == nil || *sec.Styles != *st) {
		copied := *st
		sec.Styles = &copied
		changed = true
	}
	// Setting a section's own layout repairs a stored column count that
	// disagrees with it.
	if l := a.Changes.Layout; l != nil && l.Valid() &&
		(*l != sec.Layout || len(sec.Columns) != l.ColumnCount()) {
		sec = relayout(sec, *l, newID)
		changed = true
	}
	if !changed {
		return s, false
	}
	tree := replaceSection(s.Tree, i, sec)
	return settle(State{Tree: tree, Selection: s.Selection}), true
}

// relayout rebuilds the columns of sec for layout. Surviving columns keep
// their ids and blocks and take the new widths; missing columns are added
// empty; blocks of dropped columns move, in order, to the end of the last
// surviving column.
func relayout(sec content.Section, layout content.Layout, newID IDFunc) content.Section {
	widths := layout.Widths()
	cols := make([]content.Column, len(widths))
	for i, w := range widths {
		if i < len(sec.Columns) {
			cols[i] = sec.Columns[i]
			cols[i].Width = w
			continue
		}
		cols[i] = content.Column{ID: newID(), Width: w, Blocks: []content.Block{}}
	}
	if len(sec.Columns) > len(widths) {
		last := &cols[len(cols)-1]
		blocks := make([]content.Block, 0, len(last.Blocks))
		blocks = append(blocks, last.Blocks...)
		for _, dropped := range sec.Columns[len(widths):] {
			blocks = append(blocks, dropped.Blocks...)
		}
		last.Blocks = blocks
	}
	sec.Layout = layout
	sec.Columns = cols
	return sec
}

func addBlock(s State, a AddBlock, newID IDFunc) (State, bool) {
	if !a.Type.Valid() {
		return s, false
	}
	si, ci, ok := locateColumn(s.Tree, a.SectionID, a.ColumnID)
	if !ok {
		return s, false
	}
	b := content.Block{ID: newID(), Type: a.Type, Content: "", Styles: &content.BlockStyles{}}

	col := s.Tree[si].Columns[ci]
	blocks := make([]content.Block, len(col.Blocks), len(col.Blocks)+1)
	copy(blocks, col.Blocks)
	col.Blocks = append(blocks, b)

	tree := replaceColumn(s.Tree, si, ci, col)
	return State{Tree: tree, Selection: content.BlockAddress(a.SectionID, a.ColumnID, b.ID)}, true
}

func updateBlock(s State, a UpdateBlock) (State, bool) {
	si, ci, ok := locateColumn(s.Tree, a.SectionID, a.ColumnID)
	if !ok {
		return s, false
	}
	col := s.Tree[si].Columns[ci]
	bi := col.BlockIndex(a.BlockID)
	if bi < 0 {
		return s, false
	}

	b := col.Blocks[bi]
	changed := false
	if c := a.Changes.Content; c != nil && *c != b.Content {
		b.Content = *c
		changed = true
	}
	if md := a.Changes.Metadata; md != nil && (b.Metadata == nil || *b.Metadata != *md) {
		copied := *md
		b.Metadata = &copied
		changed = true
	}
	if st := a.Changes.Styles; st != nil && (b.Styles == nil || *b.Styles != *st) {
		copied := *st
		b.Styles = &copied
		changed = true
	}
	if !changed {
		return s, false
	}

	blocks := make([]content.Block, len(col.Blocks))
	copy(blocks, col.Blocks)
	blocks[bi] = b
	col.Blocks = blocks

	tree := replaceColumn(s.Tree, si, ci, col)
	return State{Tree: tree, Selection: s.Selection}, true
}

func removeBlock(s State, a RemoveBlock) (State, bool) {
	si, ci, ok := locateColumn(s.Tree, a.SectionID, a.ColumnID)
	if !ok {
		return s, false
	}
	col := s.Tree[si].Columns[ci]
	bi := col.BlockIndex(a.BlockID)
	if bi < 0 {
		return s, false
	}

	blocks := make([]content.Block, 0, len(col.Blocks)-1)
	blocks = append(blocks, col.Blocks[:bi]...)
	blocks = append(blocks, col.Blocks[bi+1:]...)
	col.Blocks = blocks

	tree := replaceColumn(s.Tree, si, ci, col)
	return settle(State{Tree: tree, Selection: s.Selection}), true
}

func reorderSections(s State, a ReorderSections) (State, bool) {
	if a.ActiveID == a.OverID {
		return s, false
	}
	from := s.Tree.SectionIndex(a.ActiveID)
	to := s.Tree.SectionIndex(a.OverID)
	if from < 0 || to < 0 {
		return s, false
	}

	moved := s.Tree[from]
	rest := make(content.Tree, 0, len(s.Tree))
	rest = append(rest, s.Tree[:from]...)
	rest = append(rest, s.Tree[from+1:]...)

	tree := make(content.Tree, 0, len(s.Tree))
	tree = append(tree, rest[:to]...)
	tree = append(tree, moved)
	tree = append(tree, rest[to:]...)
	return State{Tree: tree, Selection: s.Selection}, true
}

func selectElement(s State, a Select) (State, bool) {
	addr := a.Address
	switch addr.Kind {
	case content.KindSection:
		addr = content.SectionAddress(addr.SectionID)
	case content.KindColumn:
		addr = content.SectionAddress(addr.SectionID)
	case content.KindBlock:
		addr = content.BlockAddress(addr.SectionID, addr.ColumnID, addr.BlockID)
	default:
		return s, false
	}
	if !s.Tree.Resolves(addr) || addr == s.Selection {
		return s, false
	}
	s.Selection = addr
	return s, true
}

// settle restores the selection invariant after a structural change. A
// selected block that moved to another column of the same section is
// followed; any other dangling selection is cleared.
func settle(s State) State {
	if s.Selection.IsZero() || s.Tree.Resolves(s.Selection) {
		return s
	}
	if s.Selection.Kind == content.KindBlock {
		if sec, ok := s.Tree.FindSection(s.Selection.SectionID); ok {
			for _, c := range sec.Columns {
				if c.BlockIndex(s.Selection.BlockID) >= 0 {
					s.Selection = content.BlockAddress(sec.ID, c.ID, s.Selection.BlockID)
					return s
				}
			}
		}
	}
	s.Selection = content.Address{}
	return s
}

func locateColumn(t content.Tree, sectionID, columnID string) (int, int, bool) {
	si := t.SectionIndex(sectionID)
	if si < 0 {
		return 0, 0, false
	}
	ci := t[si].ColumnIndex(columnID)
	if ci < 0 {
		return 0, 0, false
	}
	return si, ci, true
}

func replaceSection(t content.Tree, i int, sec content.Section) content.Tree {
	out := make(content.Tree, len(t))
	copy(out, t)
	out[i] = sec
	return out
}

func replaceColumn(t content.Tree, si, ci int, col content.Column) content.Tree {
	sec := t[si]
	cols := make([]content.Column, len(sec.Columns))
	copy(cols, sec.Columns)
	cols[ci] = col
	sec.Columns = cols
	return replaceSection(t, si, sec)
}
