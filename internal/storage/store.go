package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ryanbastic/go-pagegrid/internal/page"
)

var (
	// ErrPageNotFound is returned when a page lookup finds no matching row.
	ErrPageNotFound = errors.New("page not found")
	// ErrRevisionNotFound is returned for unknown (page, revision) pairs.
	ErrRevisionNotFound = errors.New("revision not found")
	// ErrSlugTaken is returned when another page already uses the slug.
	ErrSlugTaken = errors.New("slug already in use")
	// ErrInvalidCursor is returned for list cursors that do not decode.
	ErrInvalidCursor = errors.New("invalid cursor")
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ListOptions selects a page of the page listing.
type ListOptions struct {
	// Cursor is the NextCursor of the previous page; empty starts over.
	Cursor string
	Limit  int
	// PublishedOnly skips drafts.
	PublishedOnly bool
}

func (o ListOptions) limit() int {
	switch {
	case o.Limit <= 0:
		return defaultListLimit
	case o.Limit > maxListLimit:
		return maxListLimit
	}
	return o.Limit
}

// PageList is one page of ListPages results, oldest first.
type PageList struct {
	Pages      []page.Page `json:"pages"`
	NextCursor string      `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
}

// PageStore persists pages. Saves replace the whole record; there is no
// merging and the last write wins. Every save appends an immutable revision.
type PageStore interface {
	// CreatePage stores a new page at revision 1.
	CreatePage(ctx context.Context, rec page.Record) (*page.Page, error)

	// GetPage returns the page with id.
	GetPage(ctx context.Context, id uuid.UUID) (*page.Page, error)

	// GetPageBySlug returns the page with slug.
	GetPageBySlug(ctx context.Context, slug string) (*page.Page, error)

	// ListPages returns pages ordered by creation time.
	ListPages(ctx context.Context, opts ListOptions) (*PageList, error)

	// SavePage replaces the page record and bumps its revision.
	SavePage(ctx context.Context, id uuid.UUID, rec page.Record) (*page.Page, error)

	// DeletePage removes the page and its revisions.
	DeletePage(ctx context.Context, id uuid.UUID) error

	// GetRevision returns one stored revision of a page.
	GetRevision(ctx context.Context, id uuid.UUID, revision int64) (*page.Revision, error)

	// ListRevisions returns every revision of a page, newest first.
	ListRevisions(ctx context.Context, id uuid.UUID) ([]page.Revision, error)
}
