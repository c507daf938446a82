// internal/models/events.go
package models

// EventType enumerates the framed events emitted on a quote-run stream.
type EventType string

const (
	EventStarted  EventType = "started"
	EventMatch    EventType = "match"
	EventItemDone EventType = "item_done"
	EventDone     EventType = "done"
	EventError    EventType = "error"
)

// StreamEvent is one framed event on the caller-facing run stream. Fields
// are populated per event type; unused ones are omitted from the JSON frame.
type StreamEvent struct {
	Type       EventType  `json:"type"`
	RunID      string     `json:"run_id,omitempty"`
	StartedAt  string     `json:"started_at,omitempty"`
	ItemIndex  *int       `json:"item_index,omitempty"`
	Query      string     `json:"query,omitempty"`
	Match      *SiteMatch `json:"match,omitempty"`
	Best       *BestMatch `json:"best,omitempty"`
	DurationMS int64      `json:"duration_ms,omitempty"`
	Message    string     `json:"message,omitempty"`
}
