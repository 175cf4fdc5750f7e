package hook

import (
	"time"

	"github.com/google/uuid"
)

// Event names a page lifecycle notification.
type Event string

const (
	EventPageSaved     Event = "page.saved"
	EventPagePublished Event = "page.published"
	EventPageDeleted   Event = "page.deleted"
)

// Valid reports whether e is a known event.
func (e Event) Valid() bool {
	switch e {
	case EventPageSaved, EventPagePublished, EventPageDeleted:
		return true
	}
	return false
}

// PageEvent is the JSON-RPC params object sent to subscribers. The method
// name is the event itself.
type PageEvent struct {
	Event       Event     `json:"event"`
	PageID      uuid.UUID `json:"page_id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title,omitempty"`
	Revision    int64     `json:"revision,omitempty"`
	IsPublished bool      `json:"is_published"`
	OccurredAt  time.Time `json:"occurred_at"`
}
