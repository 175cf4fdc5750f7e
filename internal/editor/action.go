package editor

import "github.com/ryanbastic/go-pagegrid/internal/content"

// Action is one editing operation. The set of actions is closed; Reduce
// dispatches on the concrete type.
type Action interface {
	// Name is the stable identifier used in logs, metrics and the HTTP API.
	Name() string
	action()
}

// SectionPatch holds the section fields to overwrite. Nil fields are kept.
type SectionPatch struct {
	Layout *content.Layout        `json:"layout,omitempty"`
	Styles *content.SectionStyles `json:"styles,omitempty"`
}

// BlockPatch holds the block fields to overwrite. Nil fields are kept;
// non-nil fields replace the whole value.
type BlockPatch struct {
	Content  *string              `json:"content,omitempty"`
	Metadata *content.Metadata    `json:"metadata,omitempty"`
	Styles   *content.BlockStyles `json:"styles,omitempty"`
}

type AddSection struct {
	Layout content.Layout
}

type RemoveSection struct {
	SectionID string
}

type UpdateSection struct {
	SectionID string
	Changes   SectionPatch
}

type AddBlock struct {
	SectionID string
	ColumnID  string
	Type      content.BlockType
}

type UpdateBlock struct {
	SectionID string
	ColumnID  string
	BlockID   string
	Changes   BlockPatch
}

type RemoveBlock struct {
	SectionID string
	ColumnID  string
	BlockID   string
}

// ReorderSections is a drag-and-drop end event: ActiveID was dropped onto
// OverID.
type ReorderSections struct {
	ActiveID string
	OverID   string
}

// Select makes the addressed element the active one. Column addresses
// select their section.
type Select struct {
	Address content.Address
}

type ClearSelection struct{}

func (AddSection) Name() string      { return "add_section" }
func (RemoveSection) Name() string   { return "remove_section" }
func (UpdateSection) Name() string   { return "update_section" }
func (AddBlock) Name() string        { return "add_block" }
func (UpdateBlock) Name() string     { return "update_block" }
func (RemoveBlock) Name() string     { return "remove_block" }
func (ReorderSections) Name() string { return "reorder_sections" }
func (Select) Name() string          { return "select" }
func (ClearSelection) Name() string  { return "clear_selection" }

func (AddSection) action()      {}
func (RemoveSection) action()   {}
func (UpdateSection) action()   {}
func (AddBlock) action()        {}
func (UpdateBlock) action()     {}
func (RemoveBlock) action()     {}
func (ReorderSections) action() {}
func (Select) action()          {}
func (ClearSelection) action()  {}
