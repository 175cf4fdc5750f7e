package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ryanbastic/go-pagegrid/internal/page"
)

const pageColumns = `id, slug, title, meta_title, meta_description, content, is_published,
	revision, created_at, updated_at, published_at`

// PostgresStore implements PageStore using PostgreSQL.
type PostgresStore struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// NewPostgresStore creates a PageStore using the given connection pool.
// queryTimeout sets the per-query context deadline; zero means no timeout.
func NewPostgresStore(pool *pgxpool.Pool, queryTimeout time.Duration) *PostgresStore {
	return &PostgresStore{pool: pool, queryTimeout: queryTimeout}
}

// withTimeout derives a child context with the configured query timeout.
// If queryTimeout is zero, the parent context is returned unchanged.
func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout > 0 {
		return context.WithTimeout(ctx, s.queryTimeout)
	}
	return ctx, func() {}
}

func (s *PostgresStore) CreatePage(ctx context.Context, rec page.Record) (*page.Page, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create page: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanPage(tx.QueryRow(ctx, `
		INSERT INTO pages (id, slug, title, meta_title, meta_description, content, is_published, revision, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, CASE WHEN $7 THEN now() END)
		RETURNING `+pageColumns,
		uuid.New(), rec.Slug, rec.Title, rec.MetaTitle, rec.MetaDescription, storedContent(rec.Content), rec.IsPublished,
	))
	if err != nil {
		return nil, fmt.Errorf("create page: %w", mapWriteError(err))
	}

	if err := insertRevision(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create page: commit: %w", mapWriteError(err))
	}
	return p, nil
}

func (s *PostgresStore) GetPage(ctx context.Context, id uuid.UUID) (*page.Page, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := scanPage(s.pool.QueryRow(ctx, `SELECT `+pageColumns+` FROM pages WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetPageBySlug(ctx context.Context, slug string) (*page.Page, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := scanPage(s.pool.QueryRow(ctx, `SELECT `+pageColumns+` FROM pages WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("get page by slug: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPages(ctx context.Context, opts ListOptions) (*PageList, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	limit := opts.limit()

	var (
		afterTime time.Time
		afterID   uuid.UUID
		hasCursor bool
	)
	if opts.Cursor != "" {
		c, err := DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
		afterTime, afterID, hasCursor = c.CreatedAt, c.ID, true
	}

	// One extra row tells whether another page follows.
	rows, err := s.pool.Query(ctx, `
		SELECT `+pageColumns+`
		FROM pages
		WHERE (NOT $1 OR (created_at, id) > ($2, $3))
		  AND (NOT $4 OR is_published)
		ORDER BY created_at ASC, id ASC
		LIMIT $5
	`, hasCursor, afterTime, afterID, opts.PublishedOnly, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	pages := make([]page.Page, 0, limit)
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("list pages: %w", err)
		}
		pages = append(pages, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pages rows: %w", err)
	}

	return buildPageList(pages, limit)
}

func (s *PostgresStore) SavePage(ctx context.Context, id uuid.UUID, rec page.Record) (*page.Page, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("save page: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanPage(tx.QueryRow(ctx, `
		UPDATE pages SET
			slug = $2,
			title = $3,
			meta_title = $4,
			meta_description = $5,
			content = $6,
			is_published = $7,
			revision = revision + 1,
			updated_at = now(),
			published_at = CASE
				WHEN NOT $7 THEN NULL
				WHEN is_published THEN published_at
				ELSE now()
			END
		WHERE id = $1
		RETURNING `+pageColumns,
		id, rec.Slug, rec.Title, rec.MetaTitle, rec.MetaDescription, storedContent(rec.Content), rec.IsPublished,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("save page: %w", mapWriteError(err))
	}

	if err := insertRevision(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("save page: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("save page: commit: %w", mapWriteError(err))
	}
	return p, nil
}

func (s *PostgresStore) DeletePage(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM pages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPageNotFound
	}
	return nil
}

func (s *PostgresStore) GetRevision(ctx context.Context, id uuid.UUID, revision int64) (*page.Revision, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var r page.Revision
	err := s.pool.QueryRow(ctx, `
		SELECT page_id, revision, title, content, created_at
		FROM page_revisions
		WHERE page_id = $1 AND revision = $2
	`, id, revision).Scan(&r.PageID, &r.Revision, &r.Title, &r.Content, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRevisionNotFound
		}
		return nil, fmt.Errorf("get revision: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) ListRevisions(ctx context.Context, id uuid.UUID) ([]page.Revision, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT page_id, revision, title, content, created_at
		FROM page_revisions
		WHERE page_id = $1
		ORDER BY revision DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var revs []page.Revision
	for rows.Next() {
		var r page.Revision
		if err := rows.Scan(&r.PageID, &r.Revision, &r.Title, &r.Content, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("list revisions scan: %w", err)
		}
		revs = append(revs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list revisions rows: %w", err)
	}
	if len(revs) == 0 {
		// Every stored page has at least its first revision.
		return nil, ErrPageNotFound
	}
	return revs, nil
}

func insertRevision(ctx context.Context, tx pgx.Tx, p *page.Page) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO page_revisions (page_id, revision, title, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.Revision, p.Title, []byte(p.Content), p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return nil
}

func scanPage(row pgx.Row) (*page.Page, error) {
	var p page.Page
	if err := row.Scan(
		&p.ID, &p.Slug, &p.Title, &p.MetaTitle, &p.MetaDescription, &p.Content, &p.IsPublished,
		&p.Revision, &p.CreatedAt, &p.UpdatedAt, &p.PublishedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// storedContent substitutes an empty tree for missing content.
func storedContent(c []byte) []byte {
	if len(c) == 0 {
		return []byte("[]")
	}
	return c
}

// mapWriteError turns a unique-slug violation into ErrSlugTaken.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrSlugTaken
	}
	return err
}

func buildPageList(pages []page.Page, limit int) (*PageList, error) {
	list := &PageList{Pages: pages}
	if len(pages) <= limit {
		return list, nil
	}

	list.Pages = pages[:limit]
	last := list.Pages[limit-1]
	next := Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	encoded, err := next.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode next cursor: %w", err)
	}
	list.NextCursor = encoded
	list.HasMore = true
	return list, nil
}
