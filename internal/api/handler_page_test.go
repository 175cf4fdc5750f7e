package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/ryanbastic/go-pagegrid/internal/content"
)

const twoColumnContent = `[{"id":"s1","layout":"2","columns":[` +
	`{"id":"c1","width":"1/2","blocks":[{"id":"b1","type":"heading1","content":"Welcome"}]},` +
	`{"id":"c2","width":"1/2","blocks":[{"id":"b2","type":"text","content":"<p>Hi</p><script>alert(1)</script>"}]}]}]`

func pageBody(title, contentJSON string, published bool) string {
	return fmt.Sprintf(`{"title":%q,"content":%s,"is_published":%t}`, title, contentJSON, published)
}

func createPage(t *testing.T, env *testEnv, body string) PageResponse {
	t.Helper()
	w := env.do(t, http.MethodPost, "/v1/pages", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create page: got %d\nbody: %s", w.Code, w.Body.String())
	}
	return decode[PageResponse](t, w)
}

func TestCreatePage(t *testing.T) {
	env := newTestEnv(t)
	p := createPage(t, env, pageBody("About Us", twoColumnContent, false))

	if p.ID == uuid.Nil || p.Revision != 1 {
		t.Errorf("created page: %+v", p)
	}
	if p.Slug != "about-us" {
		t.Errorf("slug: got %q, want derived %q", p.Slug, "about-us")
	}
	if len(p.Content) != 1 || len(p.Content[0].Columns) != 2 {
		t.Fatalf("content: %+v", p.Content)
	}
	text := p.Content[0].Columns[1].Blocks[0].Content
	if strings.Contains(text, "<script") || !strings.Contains(text, "<p>Hi</p>") {
		t.Errorf("text block not sanitized: %q", text)
	}
}

func TestCreatePage_LegacyContentIsConverted(t *testing.T) {
	env := newTestEnv(t)
	legacy := `[{"type":"heading1","content":"Old"},{"type":"text","content":"<p>body</p>"}]`
	p := createPage(t, env, pageBody("Legacy", legacy, false))

	if len(p.Content) != 1 {
		t.Fatalf("sections: got %d, want 1", len(p.Content))
	}
	sec := p.Content[0]
	if sec.Layout != content.LayoutOne || len(sec.Columns) != 1 || len(sec.Columns[0].Blocks) != 2 {
		t.Errorf("legacy wrap: %+v", sec)
	}
}

func TestCreatePage_Rejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing title", `{"content":[]}`, http.StatusUnprocessableEntity},
		{"missing content", `{"title":"x"}`, http.StatusUnprocessableEntity},
		{"unrecognized content", pageBody("x", `{"sections":1}`, false), http.StatusUnprocessableEntity},
		{"invalid tree", pageBody("x", `[{"id":"s","layout":"3","columns":[{"id":"c","width":"full","blocks":[]}]}]`, false), http.StatusUnprocessableEntity},
		{"invalid slug", `{"slug":"Not A Slug","title":"x","content":[]}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			w := env.do(t, http.MethodPost, "/v1/pages", tt.body)
			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d\nbody: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestCreatePage_DuplicateSlug(t *testing.T) {
	env := newTestEnv(t)
	createPage(t, env, pageBody("Home", `[]`, false))

	w := env.do(t, http.MethodPost, "/v1/pages", pageBody("Home", `[]`, false))
	if w.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestGetPage(t *testing.T) {
	env := newTestEnv(t)
	created := createPage(t, env, pageBody("Home", twoColumnContent, false))

	w := env.do(t, http.MethodGet, "/v1/pages/"+created.ID.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	got := decode[PageResponse](t, w)
	if got.ID != created.ID || got.Content[0].ID != "s1" {
		t.Errorf("got %+v", got)
	}

	w = env.do(t, http.MethodGet, "/v1/pages/"+uuid.NewString(), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown page: got %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestSavePage_ReplacesAndKeepsRevisions(t *testing.T) {
	env := newTestEnv(t)
	created := createPage(t, env, pageBody("Home", twoColumnContent, false))
	path := "/v1/pages/" + created.ID.String()

	w := env.do(t, http.MethodPut, path, `{"slug":"home","title":"Home v2","content":[]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("save: got %d\nbody: %s", w.Code, w.Body.String())
	}
	saved := decode[PageResponse](t, w)
	if saved.Revision != 2 || saved.Title != "Home v2" || len(saved.Content) != 0 {
		t.Errorf("saved: %+v", saved)
	}

	w = env.do(t, http.MethodGet, path+"/revisions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("revisions: got %d", w.Code)
	}
	revs := decode[[]RevisionResponse](t, w)
	if len(revs) != 2 || revs[0].Revision != 2 || revs[1].Revision != 1 {
		t.Fatalf("revisions: %+v", revs)
	}

	w = env.do(t, http.MethodGet, path+"/revisions/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("revision 1: got %d", w.Code)
	}
	first := decode[RevisionResponse](t, w)
	if first.Title != "Home" || len(first.Content) != 1 {
		t.Errorf("revision 1: %+v", first)
	}

	w = env.do(t, http.MethodGet, path+"/revisions/7", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown revision: got %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestSavePage_NotFound(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPut, "/v1/pages/"+uuid.NewString(), pageBody("Ghost", `[]`, false))
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDeletePage(t *testing.T) {
	env := newTestEnv(t)
	created := createPage(t, env, pageBody("Temp", `[]`, true))
	path := "/v1/pages/" + created.ID.String()

	w := env.do(t, http.MethodDelete, path, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, path, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d", w.Code)
	}
}

func TestListPages(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		createPage(t, env, pageBody(fmt.Sprintf("Page %d", i), `[]`, i == 1))
	}

	w := env.do(t, http.MethodGet, "/v1/pages?limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: got %d", w.Code)
	}
	first := decode[struct {
		Pages      []PageSummary `json:"pages"`
		NextCursor string        `json:"next_cursor"`
		HasMore    bool          `json:"has_more"`
	}](t, w)
	if len(first.Pages) != 2 || !first.HasMore || first.NextCursor == "" {
		t.Fatalf("first page: %+v", first)
	}

	w = env.do(t, http.MethodGet, "/v1/pages?limit=2&cursor="+first.NextCursor, nil)
	second := decode[struct {
		Pages   []PageSummary `json:"pages"`
		HasMore bool          `json:"has_more"`
	}](t, w)
	if len(second.Pages) != 1 || second.HasMore {
		t.Errorf("second page: %+v", second)
	}

	w = env.do(t, http.MethodGet, "/v1/pages?published=true", nil)
	published := decode[struct {
		Pages []PageSummary `json:"pages"`
	}](t, w)
	if len(published.Pages) != 1 || published.Pages[0].Slug != "page-1" {
		t.Errorf("published: %+v", published.Pages)
	}

	if w := env.do(t, http.MethodGet, "/v1/pages?cursor=not-a-cursor", nil); w.Code != http.StatusBadRequest {
		t.Errorf("invalid cursor: got %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRenderPage(t *testing.T) {
	env := newTestEnv(t)
	created := createPage(t, env, pageBody("Draft", twoColumnContent, false))

	w := env.do(t, http.MethodGet, "/v1/pages/"+created.ID.String()+"/render", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("render: got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{`data-pg-section="s1"`, `data-pg-block="b1"`, "Welcome"} {
		if !strings.Contains(body, want) {
			t.Errorf("fragment lacks %s:\n%s", want, body)
		}
	}
	if strings.Contains(body, "<html") {
		t.Error("fragment should not be a full document")
	}
}

func TestServePublic(t *testing.T) {
	env := newTestEnv(t)
	createPage(t, env, `{"title":"Launch","meta_title":"Launch | Acme","meta_description":"New things","content":`+twoColumnContent+`,"is_published":true}`)
	createPage(t, env, pageBody("Secret", `[]`, false))

	w := env.do(t, http.MethodGet, "/p/launch", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("published page: got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", "<title>Launch | Acme</title>", `content="New things"`, "Welcome"} {
		if !strings.Contains(body, want) {
			t.Errorf("document lacks %s", want)
		}
	}
	if strings.Contains(body, "<script>alert") {
		t.Error("unsanitized script in public page")
	}

	if w := env.do(t, http.MethodGet, "/p/secret", nil); w.Code != http.StatusNotFound {
		t.Errorf("draft: got %d, want %d", w.Code, http.StatusNotFound)
	}
	if w := env.do(t, http.MethodGet, "/p/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing: got %d, want %d", w.Code, http.StatusNotFound)
	}
}
