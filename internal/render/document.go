package render

import (
	"bytes"
	"strings"

	"github.com/ryanbastic/go-pagegrid/internal/content"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Meta is the page-level information of a standalone document.
type Meta struct {
	Title       string
	Description string
	Lang        string
}

const baseCSS = `*,*::before,*::after{box-sizing:border-box}` +
	`body{margin:0;font-family:system-ui,sans-serif;line-height:1.5;color:#111827}` +
	`.pg-grid{max-width:72rem;margin:0 auto;padding:0 1.5rem}` +
	`.pg-block+.pg-block{margin-top:1rem}` +
	`.pg-block img,.pg-block video{display:block;max-width:100%;height:auto}` +
	`.pg-empty{padding:4rem 1.5rem;text-align:center;color:#6b7280}` +
	`@media (max-width:768px){.pg-grid{grid-template-columns:minmax(0,1fr)!important}.pg-column{grid-column:auto!important}}`

// Document returns a complete HTML page with t as its body.
func (r *Renderer) Document(meta Meta, t content.Tree) []byte {
	lang := meta.Lang
	if lang == "" {
		lang = "en"
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html, attr("lang", lang))
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	head.AppendChild(element(atom.Meta, attr("name", "viewport"), attr("content", "width=device-width, initial-scale=1")))
	title := element(atom.Title)
	title.AppendChild(text(meta.Title))
	head.AppendChild(title)
	if meta.Description != "" {
		head.AppendChild(element(atom.Meta, attr("name", "description"), attr("content", meta.Description)))
	}
	style := element(atom.Style)
	style.AppendChild(text(baseCSS))
	head.AppendChild(style)

	body := element(atom.Body)
	page := element(atom.Main, attr("class", "pg-page"))
	for _, n := range r.nodes(t) {
		page.AppendChild(n)
	}
	body.AppendChild(page)

	root.AppendChild(head)
	root.AppendChild(body)
	doc.AppendChild(root)

	var buf bytes.Buffer
	_ = html.Render(&buf, doc)
	return buf.Bytes()
}

// Preview returns the editor preview of t: the same fragment Render
// produces, preceded by a style rule outlining the selected element.
func (r *Renderer) Preview(t content.Tree, selection content.Address) []byte {
	var buf bytes.Buffer
	if rule := selectionRule(selection); rule != "" {
		style := element(atom.Style)
		style.AppendChild(text(rule))
		_ = html.Render(&buf, style)
	}
	_ = r.WriteFragment(&buf, t)
	return buf.Bytes()
}

func selectionRule(a content.Address) string {
	var selector string
	switch a.Kind {
	case content.KindSection:
		selector = `[` + AttrKind + `="section"][` + AttrSection + `="` + cssString(a.SectionID) + `"]`
	case content.KindBlock:
		selector = `[` + AttrBlock + `="` + cssString(a.BlockID) + `"]`
	default:
		return ""
	}
	return selector + `{outline:2px solid #3b82f6;outline-offset:2px}`
}

var cssEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `<`, `\3c `, "\n", `\a `)

func cssString(s string) string {
	return cssEscaper.Replace(s)
}
