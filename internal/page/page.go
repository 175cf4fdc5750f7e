package page

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ryanbastic/go-pagegrid/internal/content"
)

// ErrInvalidSlug is returned for slugs that are not lowercase words joined
// by single hyphens.
var ErrInvalidSlug = errors.New("invalid slug")

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Page is a stored page. Content is the document exactly as stored; it may
// still be in the legacy flat-block format until the page is saved again.
type Page struct {
	ID              uuid.UUID       `json:"id"`
	Slug            string          `json:"slug"`
	Title           string          `json:"title"`
	MetaTitle       string          `json:"meta_title"`
	MetaDescription string          `json:"meta_description"`
	Content         json.RawMessage `json:"content"`
	IsPublished     bool            `json:"is_published"`
	Revision        int64           `json:"revision"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	PublishedAt     *time.Time      `json:"published_at,omitempty"`
}

// Tree normalizes the stored content and reports the shape it had.
func (p *Page) Tree() (content.Tree, content.Shape) {
	return content.Inspect(p.Content)
}

// DisplayTitle is the document title: MetaTitle when set, else Title.
func (p *Page) DisplayTitle() string {
	if p.MetaTitle != "" {
		return p.MetaTitle
	}
	return p.Title
}

// Record is what a store writes for a page: every editable field, replaced
// as a whole on each save.
type Record struct {
	Slug            string          `json:"slug"`
	Title           string          `json:"title"`
	MetaTitle       string          `json:"meta_title"`
	MetaDescription string          `json:"meta_description"`
	Content         json.RawMessage `json:"content"`
	IsPublished     bool            `json:"is_published"`
}

// SaveRequest is a full-document save coming from an editor.
type SaveRequest struct {
	Slug            string
	Title           string
	MetaTitle       string
	MetaDescription string
	Content         content.Tree
	IsPublished     bool
}

// Record validates the request's slug and serializes its content.
func (r SaveRequest) Record() (Record, error) {
	slug := r.Slug
	if slug == "" {
		slug = Slugify(r.Title)
	}
	if !ValidSlug(slug) {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	tree := r.Content
	if tree == nil {
		tree = content.Tree{}
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return Record{}, fmt.Errorf("marshal content: %w", err)
	}
	return Record{
		Slug:            slug,
		Title:           r.Title,
		MetaTitle:       r.MetaTitle,
		MetaDescription: r.MetaDescription,
		Content:         data,
		IsPublished:     r.IsPublished,
	}, nil
}

// Revision is an immutable snapshot written on every save.
type Revision struct {
	PageID    uuid.UUID       `json:"page_id"`
	Revision  int64           `json:"revision"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
}

// ValidSlug reports whether s can be used in a public page URL.
func ValidSlug(s string) bool {
	return len(s) <= 200 && slugPattern.MatchString(s)
}

// Slugify derives a slug from a title: lowercase ASCII letters and digits,
// every other run of characters collapsed to one hyphen.
func Slugify(title string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
