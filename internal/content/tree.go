// Package content defines the page content tree: an ordered list of sections,
// each split into columns by its layout, each column holding ordered blocks.
package content

// SectionStyles are per-section visual overrides. Values are CSS values.
type SectionStyles struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	Padding         string `json:"padding,omitempty"`
	MinHeight       string `json:"minHeight,omitempty"`
}

// Column is a vertical slot inside a section. Block order is display order.
type Column struct {
	ID     string  `json:"id"`
	Width  string  `json:"width"`
	Blocks []Block `json:"blocks"`
}

// Section is a horizontal region of a page.
type Section struct {
	ID      string         `json:"id"`
	Layout  Layout         `json:"layout"`
	Columns []Column       `json:"columns"`
	Styles  *SectionStyles `json:"styles,omitempty"`
}

// Tree is the full content of one page. It is the unit of persistence.
type Tree []Section

// NewSection builds a section for layout with one empty column per layout
// segment. newID supplies every id.
func NewSection(layout Layout, newID func() string) Section {
	widths := layout.Widths()
	cols := make([]Column, len(widths))
	for i, w := range widths {
		cols[i] = Column{ID: newID(), Width: w, Blocks: []Block{}}
	}
	return Section{ID: newID(), Layout: layout, Columns: cols}
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for i, s := range t {
		out[i] = s.Clone()
	}
	return out
}

// Clone returns a deep copy of the section.
func (s Section) Clone() Section {
	if s.Styles != nil {
		st := *s.Styles
		s.Styles = &st
	}
	cols := make([]Column, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = c.Clone()
	}
	s.Columns = cols
	return s
}

// Clone returns a deep copy of the column.
func (c Column) Clone() Column {
	blocks := make([]Block, len(c.Blocks))
	for i, b := range c.Blocks {
		blocks[i] = b.clone()
	}
	c.Blocks = blocks
	return c
}

// SectionIndex returns the position of the section with id, or -1.
func (t Tree) SectionIndex(id string) int {
	for i := range t {
		if t[i].ID == id {
			return i
		}
	}
	return -1
}

// ColumnIndex returns the position of the column with id, or -1.
func (s Section) ColumnIndex(id string) int {
	for i := range s.Columns {
		if s.Columns[i].ID == id {
			return i
		}
	}
	return -1
}

// BlockIndex returns the position of the block with id, or -1.
func (c Column) BlockIndex(id string) int {
	for i := range c.Blocks {
		if c.Blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// FindSection returns the section with id.
func (t Tree) FindSection(id string) (Section, bool) {
	if i := t.SectionIndex(id); i >= 0 {
		return t[i], true
	}
	return Section{}, false
}

// FindColumn returns the column addressed by (sectionID, columnID).
func (t Tree) FindColumn(sectionID, columnID string) (Column, bool) {
	s, ok := t.FindSection(sectionID)
	if !ok {
		return Column{}, false
	}
	if i := s.ColumnIndex(columnID); i >= 0 {
		return s.Columns[i], true
	}
	return Column{}, false
}

// FindBlock returns the block addressed by (sectionID, columnID, blockID).
func (t Tree) FindBlock(sectionID, columnID, blockID string) (Block, bool) {
	c, ok := t.FindColumn(sectionID, columnID)
	if !ok {
		return Block{}, false
	}
	if i := c.BlockIndex(blockID); i >= 0 {
		return c.Blocks[i], true
	}
	return Block{}, false
}

// BlockCount returns the total number of blocks in the tree.
func (t Tree) BlockCount() int {
	n := 0
	for _, s := range t {
		for _, c := range s.Columns {
			n += len(c.Blocks)
		}
	}
	return n
}
