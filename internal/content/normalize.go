package content

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
)

// Shape is the format a stored document was recognized as.
type Shape string

const (
	ShapeEmpty        Shape = "empty"
	ShapeGrid         Shape = "grid"
	ShapeLegacy       Shape = "legacy"
	ShapeUnrecognized Shape = "unrecognized"
)

// legacyNamespace seeds the UUIDv5 ids given to the synthetic section and
// column that wrap a legacy flat-block document.
var legacyNamespace = uuid.MustParse("5b0f8c2e-6f7a-4c1d-9e3b-2a4d6c8e0f11")

// LegacySectionStyles are applied to the section synthesized for a legacy
// document.
var LegacySectionStyles = SectionStyles{BackgroundColor: "#ffffff", Padding: "4rem 0"}

// Normalize turns a stored content value into a tree. Grid documents are
// returned as decoded, without structural validation and with mistyped
// fields dropped, legacy flat-block arrays are wrapped into a single
// one-column section, and anything else yields an empty tree.
func Normalize(raw []byte) Tree {
	t, _ := Inspect(raw)
	return t
}

// Inspect is Normalize that also reports the detected shape.
func Inspect(raw []byte) (Tree, Shape) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Tree{}, ShapeEmpty
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return Tree{}, ShapeUnrecognized
	}
	if len(items) == 0 {
		return Tree{}, ShapeEmpty
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(items[0], &probe); err != nil {
		return Tree{}, ShapeUnrecognized
	}

	if _, ok := probe["columns"]; ok {
		t := make(Tree, 0, len(items))
		for _, item := range items {
			if s, ok := decodeSection(item); ok {
				t = append(t, s)
			}
		}
		return t, ShapeGrid
	}

	if _, ok := probe["type"]; ok {
		blocks := make([]Block, 0, len(items))
		for i, item := range items {
			b, ok := decodeBlock(item)
			if !ok {
				continue
			}
			if b.ID == "" {
				b.ID = legacyID(raw, "block-"+strconv.Itoa(i))
			}
			blocks = append(blocks, b)
		}
		styles := LegacySectionStyles
		return Tree{{
			ID:     legacyID(raw, "section"),
			Layout: LayoutOne,
			Columns: []Column{{
				ID:     legacyID(raw, "column"),
				Width:  WidthFull,
				Blocks: blocks,
			}},
			Styles: &styles,
		}}, ShapeLegacy
	}

	return Tree{}, ShapeUnrecognized
}

func legacyID(doc []byte, part string) string {
	data := make([]byte, 0, len(doc)+len(part)+1)
	data = append(data, doc...)
	data = append(data, 0)
	data = append(data, part...)
	return uuid.NewSHA1(legacyNamespace, data).String()
}
