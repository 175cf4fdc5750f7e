package content

import (
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips unsafe markup from text blocks before a tree is stored.
// The renderer treats stored text markup as trusted, so this is the only
// place user-authored HTML is filtered.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns a sanitizer allowing the user-generated-content subset
// of HTML, class attributes and the inline text styles the rich text editor
// emits.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowStyling()
	p.AllowStyles("color", "background-color", "font-size", "font-weight",
		"font-style", "text-align", "text-decoration").Globally()
	return &Sanitizer{policy: p}
}

// Sanitize returns a copy of t whose text blocks contain only allowed
// markup and whose media blocks have only safe sources (see SafeURL).
// Headings are copied unchanged; they are rendered as plain text.
func (s *Sanitizer) Sanitize(t Tree) Tree {
	out := t.Clone()
	for si := range out {
		for ci := range out[si].Columns {
			blocks := out[si].Columns[ci].Blocks
			for bi := range blocks {
				b := &blocks[bi]
				switch {
				case b.Type == BlockText:
					b.Content = s.policy.Sanitize(b.Content)
				case b.Type.IsMedia():
					if !SafeURL(b.Content) {
						b.Content = ""
					}
					if b.Metadata != nil && !SafeURL(b.Metadata.URL) {
						b.Metadata.URL = ""
					}
				}
			}
		}
	}
	return out
}

// SafeURL reports whether u may be used as a media source: a relative
// reference or an absolute http(s) URL. The empty string is safe.
func SafeURL(u string) bool {
	u = strings.TrimSpace(u)
	if u == "" {
		return true
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "", "http", "https":
		return true
	}
	return false
}
