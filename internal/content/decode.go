package content

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Stored documents are decoded field by field. A value of the wrong JSON
// type loses that field only: numbers are accepted where strings are
// expected, numeric strings where integers are expected, and anything else
// is dropped.

type object map[string]json.RawMessage

func decodeObject(raw json.RawMessage) (object, bool) {
	var o object
	if err := json.Unmarshal(raw, &o); err != nil || o == nil {
		return nil, false
	}
	return o, true
}

func decodeArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}
	return items, true
}

// str reads key as a string. JSON numbers are kept in their literal form,
// so numeric ids survive.
func (o object) str(key string) string {
	raw := bytes.TrimSpace(o[key])
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
		return ""
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

func (o object) integer(key string) int {
	raw := bytes.TrimSpace(o[key])
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0
		}
		n = json.Number(strings.TrimSpace(s))
	} else if json.Unmarshal(raw, &n) != nil {
		return 0
	}
	if i, err := strconv.ParseInt(n.String(), 10, 0); err == nil {
		return int(i)
	}
	if f, err := n.Float64(); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) &&
		f >= math.MinInt32 && f <= math.MaxInt32 {
		return int(f)
	}
	return 0
}

// stringValues reads every string-valued member of o, applying the same
// tolerance as str.
func (o object) stringValues() map[string]string {
	out := make(map[string]string, len(o))
	for k := range o {
		if v := o.str(k); v != "" {
			out[k] = v
		}
	}
	return out
}

// styles fills dst, a struct of string fields, from the object at key.
// It reports false when key is absent or not an object.
func (o object) styles(key string, dst any) bool {
	inner, ok := decodeObject(o[key])
	if !ok {
		return false
	}
	data, err := json.Marshal(inner.stringValues())
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func decodeSection(raw json.RawMessage) (Section, bool) {
	o, ok := decodeObject(raw)
	if !ok {
		return Section{}, false
	}
	s := Section{
		ID:     o.str("id"),
		Layout: Layout(o.str("layout")),
	}
	if items, ok := decodeArray(o["columns"]); ok {
		s.Columns = make([]Column, 0, len(items))
		for _, item := range items {
			if c, ok := decodeColumn(item); ok {
				s.Columns = append(s.Columns, c)
			}
		}
	}
	var st SectionStyles
	if o.styles("styles", &st) {
		s.Styles = &st
	}
	return s, true
}

func decodeColumn(raw json.RawMessage) (Column, bool) {
	o, ok := decodeObject(raw)
	if !ok {
		return Column{}, false
	}
	c := Column{ID: o.str("id"), Width: o.str("width")}
	if items, ok := decodeArray(o["blocks"]); ok {
		c.Blocks = make([]Block, 0, len(items))
		for _, item := range items {
			if b, ok := decodeBlock(item); ok {
				c.Blocks = append(c.Blocks, b)
			}
		}
	}
	return c, true
}

func decodeBlock(raw json.RawMessage) (Block, bool) {
	o, ok := decodeObject(raw)
	if !ok {
		return Block{}, false
	}
	b := Block{
		ID:      o.str("id"),
		Type:    BlockType(o.str("type")),
		Content: o.str("content"),
	}
	if md, ok := decodeObject(o["metadata"]); ok {
		b.Metadata = &Metadata{
			URL:    md.str("url"),
			Alt:    md.str("alt"),
			Width:  md.integer("width"),
			Height: md.integer("height"),
		}
	}
	var st BlockStyles
	if o.styles("styles", &st) {
		b.Styles = &st
	}
	return b, true
}
