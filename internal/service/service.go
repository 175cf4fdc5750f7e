package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ryanbastic/go-pagegrid/internal/content"
	"github.com/ryanbastic/go-pagegrid/internal/hook"
	"github.com/ryanbastic/go-pagegrid/internal/metrics"
	"github.com/ryanbastic/go-pagegrid/internal/page"
	"github.com/ryanbastic/go-pagegrid/internal/storage"
)

// Notifier receives page lifecycle events after a successful write.
type Notifier interface {
	Notify(e hook.PageEvent)
}

// PageService is the only write path for pages: every tree is sanitized
// and validated before it reaches the store, and subscribers are told
// about the result.
type PageService struct {
	store     storage.PageStore
	sanitizer *content.Sanitizer
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a PageService. notifier may be nil.
func New(store storage.PageStore, notifier Notifier, logger *slog.Logger) *PageService {
	return &PageService{
		store:     store,
		sanitizer: content.NewSanitizer(),
		notifier:  notifier,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Sanitize filters the markup of t's text blocks.
func (s *PageService) Sanitize(t content.Tree) content.Tree {
	return s.sanitizer.Sanitize(t)
}

// Prepare sanitizes t and checks its structure. The result is what would be
// stored and rendered for t.
func (s *PageService) Prepare(t content.Tree) (content.Tree, error) {
	clean := s.sanitizer.Sanitize(t)
	if err := content.Validate(clean); err != nil {
		return nil, err
	}
	return clean, nil
}

// Create stores a new page.
func (s *PageService) Create(ctx context.Context, req page.SaveRequest) (*page.Page, error) {
	rec, err := s.record(req)
	if err != nil {
		return nil, err
	}
	p, err := s.store.CreatePage(ctx, rec)
	if err != nil {
		return nil, err
	}

	s.logger.Info("page created", "page_id", p.ID, "slug", p.Slug)
	s.announce(p)
	return p, nil
}

// Save replaces every editable field of page id. There is no conflict
// detection: the last save wins.
func (s *PageService) Save(ctx context.Context, id uuid.UUID, req page.SaveRequest) (*page.Page, error) {
	rec, err := s.record(req)
	if err != nil {
		return nil, err
	}
	p, err := s.store.SavePage(ctx, id, rec)
	if err != nil {
		return nil, err
	}

	s.logger.Info("page saved", "page_id", p.ID, "slug", p.Slug, "revision", p.Revision)
	s.announce(p)
	return p, nil
}

// Delete removes page id and its revisions.
func (s *PageService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.store.GetPage(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeletePage(ctx, id); err != nil {
		return err
	}

	s.logger.Info("page deleted", "page_id", id, "slug", p.Slug)
	s.notify(hook.EventPageDeleted, p)
	return nil
}

func (s *PageService) Get(ctx context.Context, id uuid.UUID) (*page.Page, error) {
	return s.store.GetPage(ctx, id)
}

// GetPublished returns the published page at slug. Drafts are reported as
// not found.
func (s *PageService) GetPublished(ctx context.Context, slug string) (*page.Page, error) {
	p, err := s.store.GetPageBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.IsPublished {
		return nil, storage.ErrPageNotFound
	}
	return p, nil
}

func (s *PageService) List(ctx context.Context, opts storage.ListOptions) (*storage.PageList, error) {
	return s.store.ListPages(ctx, opts)
}

func (s *PageService) Revisions(ctx context.Context, id uuid.UUID) ([]page.Revision, error) {
	return s.store.ListRevisions(ctx, id)
}

func (s *PageService) Revision(ctx context.Context, id uuid.UUID, revision int64) (*page.Revision, error) {
	return s.store.GetRevision(ctx, id, revision)
}

// Load fetches page id and normalizes its stored content.
func (s *PageService) Load(ctx context.Context, id uuid.UUID) (*page.Page, content.Tree, error) {
	p, err := s.store.GetPage(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return p, s.Tree(p), nil
}

// Tree normalizes p's stored content. Documents in no recognized format
// load as an empty tree; that is logged, and the stored document is left
// as it is until the page is saved again.
func (s *PageService) Tree(p *page.Page) content.Tree {
	t, shape := p.Tree()
	metrics.ObserveShape(string(shape))

	switch shape {
	case content.ShapeUnrecognized:
		s.logger.Warn("unrecognized page content, loading as empty", "page_id", p.ID, "bytes", len(p.Content))
	case content.ShapeLegacy:
		s.logger.Debug("legacy page content wrapped into a section", "page_id", p.ID)
	}
	return t
}

func (s *PageService) record(req page.SaveRequest) (page.Record, error) {
	clean, err := s.Prepare(req.Content)
	if err != nil {
		return page.Record{}, err
	}
	req.Content = clean
	rec, err := req.Record()
	if err != nil {
		return page.Record{}, fmt.Errorf("build page record: %w", err)
	}
	return rec, nil
}

func (s *PageService) announce(p *page.Page) {
	s.notify(hook.EventPageSaved, p)
	if p.IsPublished {
		s.notify(hook.EventPagePublished, p)
	}
}

func (s *PageService) notify(e hook.Event, p *page.Page) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(hook.PageEvent{
		Event:       e,
		PageID:      p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		Revision:    p.Revision,
		IsPublished: p.IsPublished,
		OccurredAt:  s.now(),
	})
}
