package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ryanbastic/go-pagegrid/internal/page"
)

// MemoryStore is a PageStore kept in process memory. It is used when no
// database is configured and in tests; contents are lost on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	pages     map[uuid.UUID]*page.Page
	revisions map[uuid.UUID][]page.Revision
	now       func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pages:     make(map[uuid.UUID]*page.Page),
		revisions: make(map[uuid.UUID][]page.Revision),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) CreatePage(ctx context.Context, rec page.Record) (*page.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slugOwnerLocked(rec.Slug) != uuid.Nil {
		return nil, fmt.Errorf("create page: %w", ErrSlugTaken)
	}

	now := s.now()
	p := &page.Page{
		ID:        uuid.New(),
		Revision:  1,
		CreatedAt: now,
	}
	applyRecord(p, rec, now)
	s.pages[p.ID] = p
	s.revisions[p.ID] = []page.Revision{revisionOf(p)}
	return copyPage(p), nil
}

func (s *MemoryStore) GetPage(ctx context.Context, id uuid.UUID) (*page.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[id]
	if !ok {
		return nil, ErrPageNotFound
	}
	return copyPage(p), nil
}

func (s *MemoryStore) GetPageBySlug(ctx context.Context, slug string) (*page.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id := s.slugOwnerLocked(slug)
	if id == uuid.Nil {
		return nil, ErrPageNotFound
	}
	return copyPage(s.pages[id]), nil
}

func (s *MemoryStore) ListPages(ctx context.Context, opts ListOptions) (*PageList, error) {
	var cursor *Cursor
	if opts.Cursor != "" {
		c, err := DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
		cursor = c
	}

	s.mu.RLock()
	all := make([]page.Page, 0, len(s.pages))
	for _, p := range s.pages {
		if opts.PublishedOnly && !p.IsPublished {
			continue
		}
		if cursor != nil && !cursor.after(p.CreatedAt, p.ID) {
			continue
		}
		all = append(all, *copyPage(p))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})

	limit := opts.limit()
	if len(all) > limit+1 {
		all = all[:limit+1]
	}
	return buildPageList(all, limit)
}

func (s *MemoryStore) SavePage(ctx context.Context, id uuid.UUID, rec page.Record) (*page.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pages[id]
	if !ok {
		return nil, ErrPageNotFound
	}
	if owner := s.slugOwnerLocked(rec.Slug); owner != uuid.Nil && owner != id {
		return nil, fmt.Errorf("save page: %w", ErrSlugTaken)
	}

	next := copyPage(p)
	next.Revision++
	applyRecord(next, rec, s.now())
	s.pages[id] = next
	s.revisions[id] = append(s.revisions[id], revisionOf(next))
	return copyPage(next), nil
}

func (s *MemoryStore) DeletePage(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[id]; !ok {
		return ErrPageNotFound
	}
	delete(s.pages, id)
	delete(s.revisions, id)
	return nil
}

func (s *MemoryStore) GetRevision(ctx context.Context, id uuid.UUID, revision int64) (*page.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.revisions[id] {
		if r.Revision == revision {
			r.Content = append([]byte(nil), r.Content...)
			return &r, nil
		}
	}
	return nil, ErrRevisionNotFound
}

func (s *MemoryStore) ListRevisions(ctx context.Context, id uuid.UUID) ([]page.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	revs, ok := s.revisions[id]
	if !ok {
		return nil, ErrPageNotFound
	}
	out := make([]page.Revision, len(revs))
	for i, r := range revs {
		r.Content = append([]byte(nil), r.Content...)
		out[len(revs)-1-i] = r
	}
	return out, nil
}

func (s *MemoryStore) slugOwnerLocked(slug string) uuid.UUID {
	for id, p := range s.pages {
		if p.Slug == slug {
			return id
		}
	}
	return uuid.Nil
}

func applyRecord(p *page.Page, rec page.Record, now time.Time) {
	wasPublished := p.IsPublished
	p.Slug = rec.Slug
	p.Title = rec.Title
	p.MetaTitle = rec.MetaTitle
	p.MetaDescription = rec.MetaDescription
	p.Content = append([]byte(nil), storedContent(rec.Content)...)
	p.IsPublished = rec.IsPublished
	p.UpdatedAt = now

	switch {
	case !rec.IsPublished:
		p.PublishedAt = nil
	case !wasPublished:
		p.PublishedAt = &now
	}
}

func revisionOf(p *page.Page) page.Revision {
	return page.Revision{
		PageID:    p.ID,
		Revision:  p.Revision,
		Title:     p.Title,
		Content:   append([]byte(nil), p.Content...),
		CreatedAt: p.UpdatedAt,
	}
}

func copyPage(p *page.Page) *page.Page {
	cp := *p
	cp.Content = append([]byte(nil), p.Content...)
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		cp.PublishedAt = &t
	}
	return &cp
}
