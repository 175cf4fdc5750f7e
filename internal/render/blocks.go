package render

import (
	"strconv"
	"strings"

	"github.com/ryanbastic/go-pagegrid/internal/content"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// block renders b inside its address wrapper. It returns nil for blocks
// with nothing to show: unknown types and media without a source.
func block(addr content.Address, b content.Block) *html.Node {
	var inner []*html.Node

	switch body := b.Body().(type) {
	case content.Heading:
		a := atom.H1
		if body.Level == 2 {
			a = atom.H2
		}
		h := element(a)
		h.AppendChild(text(body.Text))
		inner = []*html.Node{h}
	case content.RichText:
		inner = richText(body.HTML)
	case content.Media:
		if body.Src == "" || !content.SafeURL(body.Src) {
			return nil
		}
		inner = []*html.Node{media(body)}
	default:
		return nil
	}

	attrs := []html.Attribute{attr("class", "pg-block pg-block-"+string(b.Type))}
	if b.Styles != nil {
		if style := blockStyle(*b.Styles); style != "" {
			attrs = append(attrs, attr("style", style))
		}
	}
	attrs = append(attrs,
		attr(AttrKind, string(content.KindBlock)),
		attr(AttrSection, addr.SectionID),
		attr(AttrColumn, addr.ColumnID),
		attr(AttrBlock, addr.BlockID),
	)
	wrapper := element(atom.Div, attrs...)
	for _, n := range inner {
		wrapper.AppendChild(n)
	}
	return wrapper
}

// richText parses stored markup as a fragment of a div. Markup that fails
// to parse is shown as text.
func richText(markup string) []*html.Node {
	div := element(atom.Div, attr("class", "pg-text"))
	nodes, err := html.ParseFragment(strings.NewReader(markup), element(atom.Div))
	if err != nil {
		div.AppendChild(text(markup))
		return []*html.Node{div}
	}
	for _, n := range nodes {
		div.AppendChild(n)
	}
	return []*html.Node{div}
}

func media(m content.Media) *html.Node {
	if m.Kind == content.BlockVideo {
		v := element(atom.Video, attr("src", m.Src), attr("controls", ""))
		appendDimensions(v, m)
		v.Attr = append(v.Attr, attr("preload", "metadata"))
		return v
	}
	img := element(atom.Img, attr("src", m.Src), attr("alt", m.Alt))
	appendDimensions(img, m)
	img.Attr = append(img.Attr, attr("loading", "lazy"))
	return img
}

func appendDimensions(n *html.Node, m content.Media) {
	if m.Width > 0 {
		n.Attr = append(n.Attr, attr("width", strconv.Itoa(m.Width)))
	}
	if m.Height > 0 {
		n.Attr = append(n.Attr, attr("height", strconv.Itoa(m.Height)))
	}
}

func blockStyle(s content.BlockStyles) string {
	return inlineStyle(
		declaration{"font-size", s.FontSize},
		declaration{"color", s.Color},
		declaration{"background-color", s.BackgroundColor},
		declaration{"text-align", s.TextAlign},
		declaration{"font-weight", s.FontWeight},
		declaration{"padding", s.Padding},
		declaration{"margin", s.Margin},
		declaration{"width", s.Width},
		declaration{"height", s.Height},
		declaration{"border-radius", s.BorderRadius},
	)
}
