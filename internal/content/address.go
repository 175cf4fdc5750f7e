package content

// ElementKind names a clickable surface of a rendered tree.
type ElementKind string

const (
	KindNone    ElementKind = ""
	KindSection ElementKind = "section"
	KindColumn  ElementKind = "column"
	KindBlock   ElementKind = "block"
)

// Address locates one element of a tree. ColumnID and BlockID are empty
// for kinds that do not need them.
type Address struct {
	Kind      ElementKind `json:"kind"`
	SectionID string      `json:"section_id,omitempty"`
	ColumnID  string      `json:"column_id,omitempty"`
	BlockID   string      `json:"block_id,omitempty"`
}

// SectionAddress addresses a section.
func SectionAddress(sectionID string) Address {
	return Address{Kind: KindSection, SectionID: sectionID}
}

// ColumnAddress addresses a column.
func ColumnAddress(sectionID, columnID string) Address {
	return Address{Kind: KindColumn, SectionID: sectionID, ColumnID: columnID}
}

// BlockAddress addresses a block.
func BlockAddress(sectionID, columnID, blockID string) Address {
	return Address{Kind: KindBlock, SectionID: sectionID, ColumnID: columnID, BlockID: blockID}
}

// IsZero reports whether a addresses nothing.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Resolves reports whether a points at an element present in t.
func (t Tree) Resolves(a Address) bool {
	switch a.Kind {
	case KindSection:
		return t.SectionIndex(a.SectionID) >= 0
	case KindColumn:
		_, ok := t.FindColumn(a.SectionID, a.ColumnID)
		return ok
	case KindBlock:
		_, ok := t.FindBlock(a.SectionID, a.ColumnID, a.BlockID)
		return ok
	}
	return false
}
