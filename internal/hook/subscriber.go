package hook

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrInvalidSubscriber  = errors.New("invalid subscriber")
	ErrEndpointTaken      = errors.New("endpoint already registered")
)

// Status is the activation state of a subscriber.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Subscriber is an external JSON-RPC service notified of page events,
// e.g. a CDN purger or a search indexer.
type Subscriber struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Endpoint  string    `json:"endpoint"`
	Events    []Event   `json:"events"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Subscriber) validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSubscriber)
	}
	u, err := url.Parse(s.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: endpoint must be an http(s) URL", ErrInvalidSubscriber)
	}
	if len(s.Events) == 0 {
		return fmt.Errorf("%w: at least one event is required", ErrInvalidSubscriber)
	}
	for _, e := range s.Events {
		if !e.Valid() {
			return fmt.Errorf("%w: unknown event %q", ErrInvalidSubscriber, e)
		}
	}
	switch s.Status {
	case StatusActive, StatusInactive:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidSubscriber, s.Status)
	}
	return nil
}

// SubscriberStore persists subscribers across restarts.
type SubscriberStore interface {
	SaveSubscriber(ctx context.Context, s *Subscriber) error
	DeleteSubscriber(ctx context.Context, id uuid.UUID) error
	ListSubscribers(ctx context.Context) ([]*Subscriber, error)
}

// Registry is the set of known subscribers. With a store, changes are
// written through before the in-memory set is updated.
type Registry struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]*Subscriber
	store       SubscriberStore
}

// NewRegistry creates an empty registry. store may be nil.
func NewRegistry(store SubscriberStore) *Registry {
	return &Registry{
		subscribers: make(map[uuid.UUID]*Subscriber),
		store:       store,
	}
}

// Load replaces the in-memory set with the store's contents.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	subs, err := r.store.ListSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = make(map[uuid.UUID]*Subscriber, len(subs))
	for _, s := range subs {
		r.subscribers[s.ID] = s
	}
	return nil
}

// Register validates s, assigns its id and creation time, and adds it.
func (r *Registry) Register(ctx context.Context, s *Subscriber) error {
	if s.Status == "" {
		s.Status = StatusActive
	}
	if err := s.validate(); err != nil {
		return err
	}
	if r.endpointTaken(s.Endpoint) {
		return fmt.Errorf("register subscriber: %w", ErrEndpointTaken)
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now().UTC()

	if r.store != nil {
		if err := r.store.SaveSubscriber(ctx, s); err != nil {
			return fmt.Errorf("register subscriber: %w", err)
		}
	}

	r.mu.Lock()
	r.subscribers[s.ID] = s
	r.mu.Unlock()
	return nil
}

func (r *Registry) endpointTaken(endpoint string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.subscribers {
		if s.Endpoint == endpoint {
			return true
		}
	}
	return false
}

// Get returns the subscriber with id.
func (r *Registry) Get(id uuid.UUID) (*Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subscribers[id]
	if !ok {
		return nil, ErrSubscriberNotFound
	}
	return s, nil
}

// List returns all subscribers, oldest first.
func (r *Registry) List() []*Subscriber {
	r.mu.RLock()
	out := make([]*Subscriber, 0, len(r.subscribers))
	for _, s := range r.subscribers {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Delete removes the subscriber with id.
func (r *Registry) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.Get(id); err != nil {
		return err
	}
	if r.store != nil {
		if err := r.store.DeleteSubscriber(ctx, id); err != nil {
			return fmt.Errorf("delete subscriber: %w", err)
		}
	}

	r.mu.Lock()
	delete(r.subscribers, id)
	r.mu.Unlock()
	return nil
}

// For returns the active subscribers of e.
func (r *Registry) For(e Event) []*Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Subscriber
	for _, s := range r.subscribers {
		if s.Status == StatusActive && slices.Contains(s.Events, e) {
			out = append(out, s)
		}
	}
	return out
}
