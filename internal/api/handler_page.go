package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ryanbastic/go-pagegrid/internal/content"
	"github.com/ryanbastic/go-pagegrid/internal/metrics"
	"github.com/ryanbastic/go-pagegrid/internal/page"
	"github.com/ryanbastic/go-pagegrid/internal/render"
	"github.com/ryanbastic/go-pagegrid/internal/service"
	"github.com/ryanbastic/go-pagegrid/internal/storage"
)

// --- Huma Input/Output types ---

type PageBody struct {
	Slug            string          `json:"slug,omitempty" doc:"URL slug; derived from the title when empty" maxLength:"200"`
	Title           string          `json:"title" doc:"Page title" minLength:"1"`
	MetaTitle       string          `json:"meta_title,omitempty" doc:"Document title override"`
	MetaDescription string          `json:"meta_description,omitempty" doc:"Meta description"`
	Content         json.RawMessage `json:"content" doc:"Section tree; legacy flat block arrays are accepted and converted"`
	IsPublished     bool            `json:"is_published,omitempty" doc:"Whether the page is served publicly"`
}

type CreatePageInput struct {
	Body PageBody
}

type SavePageInput struct {
	PageID string `path:"page_id" doc:"Page UUID" format:"uuid"`
	Body   PageBody
}

type PageResponse struct {
	ID              uuid.UUID    `json:"id" doc:"Page UUID"`
	Slug            string       `json:"slug"`
	Title           string       `json:"title"`
	MetaTitle       string       `json:"meta_title"`
	MetaDescription string       `json:"meta_description"`
	Content         content.Tree `json:"content" doc:"Normalized section tree"`
	IsPublished     bool         `json:"is_published"`
	Revision        int64        `json:"revision"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	PublishedAt     *time.Time   `json:"published_at,omitempty"`
}

type PageOutput struct {
	Body PageResponse
}

type PageIDInput struct {
	PageID string `path:"page_id" doc:"Page UUID" format:"uuid"`
}

type ListPagesInput struct {
	Cursor    string `query:"cursor" doc:"Opaque cursor from a previous response"`
	Limit     int    `query:"limit" doc:"Maximum number of pages" minimum:"0" maximum:"500"`
	Published bool   `query:"published" doc:"Only list published pages"`
}

type PageSummary struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	IsPublished bool      `json:"is_published"`
	Revision    int64     `json:"revision"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListPagesOutput struct {
	Body struct {
		Pages      []PageSummary `json:"pages"`
		NextCursor string        `json:"next_cursor,omitempty"`
		HasMore    bool          `json:"has_more"`
	}
}

type RevisionResponse struct {
	PageID    uuid.UUID    `json:"page_id"`
	Revision  int64        `json:"revision"`
	Title     string       `json:"title"`
	Content   content.Tree `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
}

type ListRevisionsOutput struct {
	Body []RevisionResponse
}

type GetRevisionInput struct {
	PageID   string `path:"page_id" doc:"Page UUID" format:"uuid"`
	Revision int64  `path:"revision" doc:"Revision number" minimum:"1"`
}

type RevisionOutput struct {
	Body RevisionResponse
}

type HTMLOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// --- Handler ---

type PageHandler struct {
	pages    *service.PageService
	renderer *render.Renderer
	logger   *slog.Logger
}

func NewPageHandler(pages *service.PageService, renderer *render.Renderer, logger *slog.Logger) *PageHandler {
	return &PageHandler{pages: pages, renderer: renderer, logger: logger}
}

func registerPageRoutes(api huma.API, h *PageHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-page",
		Method:        http.MethodPost,
		Path:          "/v1/pages",
		Summary:       "Create a page",
		Tags:          []string{"pages"},
		DefaultStatus: http.StatusCreated,
	}, h.CreatePage)

	huma.Register(api, huma.Operation{
		OperationID: "list-pages",
		Method:      http.MethodGet,
		Path:        "/v1/pages",
		Summary:     "List pages",
		Tags:        []string{"pages"},
	}, h.ListPages)

	huma.Register(api, huma.Operation{
		OperationID: "get-page",
		Method:      http.MethodGet,
		Path:        "/v1/pages/{page_id}",
		Summary:     "Get a page with its normalized content",
		Tags:        []string{"pages"},
	}, h.GetPage)

	huma.Register(api, huma.Operation{
		OperationID: "save-page",
		Method:      http.MethodPut,
		Path:        "/v1/pages/{page_id}",
		Summary:     "Replace a page",
		Tags:        []string{"pages"},
	}, h.SavePage)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-page",
		Method:        http.MethodDelete,
		Path:          "/v1/pages/{page_id}",
		Summary:       "Delete a page and its revisions",
		Tags:          []string{"pages"},
		DefaultStatus: http.StatusNoContent,
	}, h.DeletePage)

	huma.Register(api, huma.Operation{
		OperationID: "list-revisions",
		Method:      http.MethodGet,
		Path:        "/v1/pages/{page_id}/revisions",
		Summary:     "List page revisions, newest first",
		Tags:        []string{"pages"},
	}, h.ListRevisions)

	huma.Register(api, huma.Operation{
		OperationID: "get-revision",
		Method:      http.MethodGet,
		Path:        "/v1/pages/{page_id}/revisions/{revision}",
		Summary:     "Get one page revision",
		Tags:        []string{"pages"},
	}, h.GetRevision)

	huma.Register(api, huma.Operation{
		OperationID: "render-page",
		Method:      http.MethodGet,
		Path:        "/v1/pages/{page_id}/render",
		Summary:     "Render a page's content as an HTML fragment",
		Tags:        []string{"pages"},
	}, h.RenderPage)
}

func (h *PageHandler) CreatePage(ctx context.Context, input *CreatePageInput) (*PageOutput, error) {
	req, err := saveRequest(input.Body)
	if err != nil {
		return nil, err
	}
	p, err := h.pages.Create(ctx, req)
	if err != nil {
		return nil, apiError(h.logger, "create page", err)
	}
	return &PageOutput{Body: h.pageResponse(p)}, nil
}

func (h *PageHandler) ListPages(ctx context.Context, input *ListPagesInput) (*ListPagesOutput, error) {
	list, err := h.pages.List(ctx, storage.ListOptions{
		Cursor:        input.Cursor,
		Limit:         input.Limit,
		PublishedOnly: input.Published,
	})
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCursor) {
			return nil, huma.Error400BadRequest("invalid cursor")
		}
		return nil, apiError(h.logger, "list pages", err)
	}

	out := &ListPagesOutput{}
	out.Body.Pages = make([]PageSummary, len(list.Pages))
	for i, p := range list.Pages {
		out.Body.Pages[i] = PageSummary{
			ID:          p.ID,
			Slug:        p.Slug,
			Title:       p.Title,
			IsPublished: p.IsPublished,
			Revision:    p.Revision,
			UpdatedAt:   p.UpdatedAt,
		}
	}
	out.Body.NextCursor = list.NextCursor
	out.Body.HasMore = list.HasMore
	return out, nil
}

func (h *PageHandler) GetPage(ctx context.Context, input *PageIDInput) (*PageOutput, error) {
	id, err := parsePageID(input.PageID)
	if err != nil {
		return nil, err
	}
	p, err := h.pages.Get(ctx, id)
	if err != nil {
		return nil, apiError(h.logger, "get page", err)
	}
	return &PageOutput{Body: h.pageResponse(p)}, nil
}

func (h *PageHandler) SavePage(ctx context.Context, input *SavePageInput) (*PageOutput, error) {
	id, err := parsePageID(input.PageID)
	if err != nil {
		return nil, err
	}
	req, err := saveRequest(input.Body)
	if err != nil {
		return nil, err
	}
	p, err := h.pages.Save(ctx, id, req)
	if err != nil {
		return nil, apiError(h.logger, "save page", err)
	}
	return &PageOutput{Body: h.pageResponse(p)}, nil
}

func (h *PageHandler) DeletePage(ctx context.Context, input *PageIDInput) (*struct{}, error) {
	id, err := parsePageID(input.PageID)
	if err != nil {
		return nil, err
	}
	if err := h.pages.Delete(ctx, id); err != nil {
		return nil, apiError(h.logger, "delete page", err)
	}
	return nil, nil
}

func (h *PageHandler) ListRevisions(ctx context.Context, input *PageIDInput) (*ListRevisionsOutput, error) {
	id, err := parsePageID(input.PageID)
	if err != nil {
		return nil, err
	}
	revs, err := h.pages.Revisions(ctx, id)
	if err != nil {
		return nil, apiError(h.logger, "list revisions", err)
	}
	out := &ListRevisionsOutput{Body: make([]RevisionResponse, len(revs))}
	for i := range revs {
		out.Body[i] = revisionResponse(&revs[i])
	}
	return out, nil
}

func (h *PageHandler) GetRevision(ctx context.Context, input *GetRevisionInput) (*RevisionOutput, error) {
	id, err := parsePageID(input.PageID)
	if err != nil {
		return nil, err
	}
	rev, err := h.pages.Revision(ctx, id, input.Revision)
	if err != nil {
		return nil, apiError(h.logger, "get revision", err)
	}
	return &RevisionOutput{Body: revisionResponse(rev)}, nil
}

// RenderPage renders drafts as well as published pages.
func (h *PageHandler) RenderPage(ctx context.Context, input *PageIDInput) (*HTMLOutput, error) {
	id, err := parsePageID(input.PageID)
	if err != nil {
		return nil, err
	}
	_, tree, err := h.pages.Load(ctx, id)
	if err != nil {
		return nil, apiError(h.logger, "render page", err)
	}

	start := time.Now()
	body := h.renderer.Render(h.pages.Sanitize(tree))
	metrics.ObserveRender("fragment", time.Since(start))
	return &HTMLOutput{ContentType: "text/html; charset=utf-8", Body: body}, nil
}

// ServePublic is the public page viewer. Drafts and unknown slugs are 404.
func (h *PageHandler) ServePublic(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !page.ValidSlug(slug) {
		http.NotFound(w, r)
		return
	}

	p, err := h.pages.GetPublished(r.Context(), slug)
	if errors.Is(err, storage.ErrPageNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("failed to load public page", "slug", slug, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	start := time.Now()
	doc := h.renderer.Document(render.Meta{
		Title:       p.DisplayTitle(),
		Description: p.MetaDescription,
		Lang:        "en",
	}, h.pages.Sanitize(h.pages.Tree(p)))
	metrics.ObserveRender("document", time.Since(start))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=60")
	if _, err := w.Write(doc); err != nil {
		h.logger.Debug("failed to write public page", "slug", slug, "error", err)
	}
}

func (h *PageHandler) pageResponse(p *page.Page) PageResponse {
	return newPageResponse(p, h.pages.Tree(p))
}

func newPageResponse(p *page.Page, tree content.Tree) PageResponse {
	return PageResponse{
		ID:              p.ID,
		Slug:            p.Slug,
		Title:           p.Title,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		Content:         tree,
		IsPublished:     p.IsPublished,
		Revision:        p.Revision,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		PublishedAt:     p.PublishedAt,
	}
}

func revisionResponse(r *page.Revision) RevisionResponse {
	return RevisionResponse{
		PageID:    r.PageID,
		Revision:  r.Revision,
		Title:     r.Title,
		Content:   content.Normalize(r.Content),
		CreatedAt: r.CreatedAt,
	}
}

// saveRequest decodes the content of a page body. Legacy documents are
// converted; documents in no known format are rejected rather than stored
// as an empty page.
func saveRequest(b PageBody) (page.SaveRequest, error) {
	tree, shape := content.Inspect(b.Content)
	if shape == content.ShapeUnrecognized {
		return page.SaveRequest{}, huma.Error422UnprocessableEntity("content is not a section tree")
	}
	return page.SaveRequest{
		Slug:            b.Slug,
		Title:           b.Title,
		MetaTitle:       b.MetaTitle,
		MetaDescription: b.MetaDescription,
		Content:         tree,
		IsPublished:     b.IsPublished,
	}, nil
}

func parsePageID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, huma.Error400BadRequest("invalid page_id")
	}
	return id, nil
}
