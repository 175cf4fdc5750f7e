package page

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/ryanbastic/go-pagegrid/internal/content"
)

func TestValidSlug(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"about", true},
		{"about-us", true},
		{"2024-report", true},
		{"", false},
		{"About", false},
		{"about--us", false},
		{"-about", false},
		{"about-", false},
		{"about us", false},
		{"über", false},
	}

	for _, tt := range tests {
		if got := ValidSlug(tt.slug); got != tt.want {
			t.Errorf("ValidSlug(%q): got %v, want %v", tt.slug, got, tt.want)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"About Us", "about-us"},
		{"  Hello,   World!  ", "hello-world"},
		{"Q3 2024 -- Results", "q3-2024-results"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.title); got != tt.want {
			t.Errorf("Slugify(%q): got %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestSaveRequest_Record(t *testing.T) {
	req := SaveRequest{
		Title:   "Landing Page",
		Content: content.Tree{{ID: "s", Layout: content.LayoutOne, Columns: []content.Column{{ID: "c", Width: content.WidthFull, Blocks: []content.Block{}}}}},
	}

	rec, err := req.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.Slug != "landing-page" {
		t.Errorf("slug: got %q", rec.Slug)
	}

	tree := content.Normalize(rec.Content)
	if len(tree) != 1 || tree[0].ID != "s" {
		t.Errorf("content did not round-trip: %s", rec.Content)
	}
}

func TestSaveRequest_RecordNilContent(t *testing.T) {
	rec, err := SaveRequest{Slug: "empty"}.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if string(rec.Content) != "[]" {
		t.Errorf("content: got %s, want []", rec.Content)
	}
}

func TestSaveRequest_RecordInvalidSlug(t *testing.T) {
	_, err := SaveRequest{Slug: "Not A Slug"}.Record()
	if !errors.Is(err, ErrInvalidSlug) {
		t.Errorf("got %v, want ErrInvalidSlug", err)
	}
}

func TestPage_TreeNormalizesLegacyContent(t *testing.T) {
	p := Page{ID: uuid.New(), Content: json.RawMessage(`[{"type":"heading1","content":"Old"}]`)}

	tree, shape := p.Tree()
	if shape != content.ShapeLegacy {
		t.Errorf("shape: got %q", shape)
	}
	if tree.BlockCount() != 1 {
		t.Errorf("blocks: got %d", tree.BlockCount())
	}
}

func TestPage_JSONFields(t *testing.T) {
	p := Page{ID: uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"), Slug: "x", Content: json.RawMessage(`[]`)}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal to map: %v", err)
	}
	for _, key := range []string{"id", "slug", "meta_title", "meta_description", "content", "is_published", "revision"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if _, ok := m["published_at"]; ok {
		t.Error("published_at should be omitted when nil")
	}
}

func TestPage_DisplayTitle(t *testing.T) {
	p := Page{Title: "Home"}
	if p.DisplayTitle() != "Home" {
		t.Errorf("got %q", p.DisplayTitle())
	}
	p.MetaTitle = "Welcome"
	if p.DisplayTitle() != "Welcome" {
		t.Errorf("got %q", p.DisplayTitle())
	}
}
