// Package render turns a content tree into HTML. The same fragment is served
// to the editor preview and the public page viewer; every section, column
// and block carries data-pg-* attributes with its address so the editor
// front-end can map clicks back to selections.
package render

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/ryanbastic/go-pagegrid/internal/content"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EmptyMessage is shown in place of a tree with no sections.
const EmptyMessage = "This page has no content yet."

// Address attributes.
const (
	AttrKind    = "data-pg-kind"
	AttrSection = "data-pg-section"
	AttrColumn  = "data-pg-column"
	AttrBlock   = "data-pg-block"
)

// Renderer renders content trees. The zero value is ready to use.
type Renderer struct {
	// Gap is the CSS gap between columns. Empty means "2rem".
	Gap string
}

// New returns a Renderer with default settings.
func New() *Renderer {
	return &Renderer{}
}

// Render returns the HTML fragment for t. Equal trees produce identical
// bytes.
func (r *Renderer) Render(t content.Tree) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer do not fail.
	_ = r.WriteFragment(&buf, t)
	return buf.Bytes()
}

// WriteFragment writes the HTML fragment for t to w.
func (r *Renderer) WriteFragment(w io.Writer, t content.Tree) error {
	for _, n := range r.nodes(t) {
		if err := html.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) nodes(t content.Tree) []*html.Node {
	if len(t) == 0 {
		empty := element(atom.Div, attr("class", "pg-empty"))
		empty.AppendChild(text(EmptyMessage))
		return []*html.Node{empty}
	}
	out := make([]*html.Node, 0, len(t))
	for _, s := range t {
		out = append(out, r.section(s))
	}
	return out
}

func (r *Renderer) section(s content.Section) *html.Node {
	attrs := []html.Attribute{attr("class", "pg-section")}
	if s.Styles != nil {
		if style := sectionStyle(*s.Styles); style != "" {
			attrs = append(attrs, attr("style", style))
		}
	}
	attrs = append(attrs, attr(AttrKind, string(content.KindSection)), attr(AttrSection, s.ID))
	sec := element(atom.Section, attrs...)

	gap := r.Gap
	if gap == "" {
		gap = "2rem"
	}
	spans := s.Layout.Spans()
	tracks := s.Layout.Tracks()
	if !s.Layout.Valid() && len(s.Columns) > 1 {
		tracks = len(s.Columns)
	}
	grid := element(atom.Div,
		attr("class", "pg-grid pg-layout-"+string(s.Layout)),
		attr("style", "display:grid;grid-template-columns:repeat("+strconv.Itoa(tracks)+",minmax(0,1fr));gap:"+gap),
	)
	for i, c := range s.Columns {
		span := 1
		if i < len(spans) {
			span = spans[i]
		}
		grid.AppendChild(r.column(s.ID, c, span))
	}
	sec.AppendChild(grid)
	return sec
}

func (r *Renderer) column(sectionID string, c content.Column, span int) *html.Node {
	col := element(atom.Div,
		attr("class", "pg-column"),
		attr("style", "grid-column:span "+strconv.Itoa(span)),
		attr(AttrKind, string(content.KindColumn)),
		attr(AttrSection, sectionID),
		attr(AttrColumn, c.ID),
	)
	for _, b := range c.Blocks {
		if n := block(content.BlockAddress(sectionID, c.ID, b.ID), b); n != nil {
			col.AppendChild(n)
		}
	}
	return col
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

type declaration struct {
	property string
	value    string
}

// inlineStyle joins the non-empty declarations in the given order. Values
// that could end the declaration or the attribute are dropped.
func inlineStyle(decls ...declaration) string {
	var b strings.Builder
	for _, d := range decls {
		v := strings.TrimSpace(d.value)
		if v == "" || strings.ContainsAny(v, ";{}<>\"\\") {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(';')
		}
		b.WriteString(d.property)
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}

func sectionStyle(s content.SectionStyles) string {
	return inlineStyle(
		declaration{"background-color", s.BackgroundColor},
		declaration{"padding", s.Padding},
		declaration{"min-height", s.MinHeight},
	)
}
