package hook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSubscriberStore implements SubscriberStore on the
// hook_subscribers table.
type PostgresSubscriberStore struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// NewPostgresSubscriberStore creates a SubscriberStore using pool.
// queryTimeout sets the per-query context deadline; zero means no timeout.
func NewPostgresSubscriberStore(pool *pgxpool.Pool, queryTimeout time.Duration) *PostgresSubscriberStore {
	return &PostgresSubscriberStore{pool: pool, queryTimeout: queryTimeout}
}

func (s *PostgresSubscriberStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout > 0 {
		return context.WithTimeout(ctx, s.queryTimeout)
	}
	return ctx, func() {}
}

func (s *PostgresSubscriberStore) SaveSubscriber(ctx context.Context, sub *Subscriber) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO hook_subscribers (id, name, endpoint, events, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sub.ID, sub.Name, sub.Endpoint, eventStrings(sub.Events), string(sub.Status), sub.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEndpointTaken
		}
		return fmt.Errorf("save subscriber: %w", err)
	}
	return nil
}

func (s *PostgresSubscriberStore) DeleteSubscriber(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM hook_subscribers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriberNotFound
	}
	return nil
}

func (s *PostgresSubscriberStore) ListSubscribers(ctx context.Context) ([]*Subscriber, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, endpoint, events, status, created_at
		FROM hook_subscribers
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []*Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func scanSubscriber(row pgx.Row) (*Subscriber, error) {
	var (
		sub    Subscriber
		events []string
		status string
	)
	if err := row.Scan(&sub.ID, &sub.Name, &sub.Endpoint, &events, &status, &sub.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan subscriber: %w", err)
	}
	sub.Status = Status(status)
	sub.Events = make([]Event, len(events))
	for i, e := range events {
		sub.Events[i] = Event(e)
	}
	return &sub, nil
}

func eventStrings(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = string(e)
	}
	return out
}
