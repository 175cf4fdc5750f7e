package content

import (
	"errors"
	"fmt"
)

// ErrInvalidTree wraps every structural problem reported by Validate.
var ErrInvalidTree = errors.New("invalid content tree")

// Validate checks the structural invariants of a tree: known layouts and
// block types, a column count matching each layout, and ids that are
// non-empty and unique across the whole tree. The editor never produces a
// tree that fails these checks; they guard documents arriving over the API.
func Validate(t Tree) error {
	seen := make(map[string]struct{})
	claim := func(id, what string) error {
		if id == "" {
			return fmt.Errorf("%w: %s has empty id", ErrInvalidTree, what)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidTree, id)
		}
		seen[id] = struct{}{}
		return nil
	}

	for i, s := range t {
		if err := claim(s.ID, fmt.Sprintf("section %d", i)); err != nil {
			return err
		}
		if !s.Layout.Valid() {
			return fmt.Errorf("%w: section %s has unknown layout %q", ErrInvalidTree, s.ID, s.Layout)
		}
		if want := s.Layout.ColumnCount(); len(s.Columns) != want {
			return fmt.Errorf("%w: section %s has %d columns, layout %q needs %d",
				ErrInvalidTree, s.ID, len(s.Columns), s.Layout, want)
		}
		for _, c := range s.Columns {
			if err := claim(c.ID, "column in section "+s.ID); err != nil {
				return err
			}
			for _, b := range c.Blocks {
				if err := claim(b.ID, "block in column "+c.ID); err != nil {
					return err
				}
				if !b.Type.Valid() {
					return fmt.Errorf("%w: block %s has unknown type %q", ErrInvalidTree, b.ID, b.Type)
				}
			}
		}
	}
	return nil
}
