package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Source tags where a session's payload came from. It determines which
// ingestion path produced the session and which lifecycle rules apply.
type Source string

const (
	SourceLiveTab    Source = "live_tab"
	SourceCrossFrame Source = "cross_frame"
	SourceImported   Source = "imported"
	SourceMock       Source = "mock"
	SourceSaved      Source = "saved"
)

// Draft reports whether a session with this source is still unsaved.
func (s Source) Draft() bool {
	return s != SourceSaved
}

// Visibility controls who may fetch a saved session.
type Visibility string

const (
	VisibilityPrivate  Visibility = "private"
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityPublic, VisibilityUnlisted:
		return true
	}
	return false
}

// Event is one timestamped record of captured page interaction or state.
// Data is an opaque JSON document produced by the external recorder; this
// core never interprets it beyond carrying it losslessly.
type Event struct {
	Type        int             `json:"type"`
	TimestampMs int64           `json:"timestamp"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// Metadata describes a session independent of its event stream.
type Metadata struct {
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	DurationMs int64      `json:"duration_ms"`
	PageURL    string     `json:"page_url"`
	Visibility Visibility `json:"visibility"`
	CreatedBy  string     `json:"created_by"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Session is the unit of work: metadata plus an ordered, append-only event
// stream. ID is empty while the session is an unsaved draft.
type Session struct {
	ID       string   `json:"id,omitempty"`
	Metadata Metadata `json:"metadata"`
	Events   []Event  `json:"events"`
	Source   Source   `json:"source"`
}

// MinCaptureEvents is the smallest event stream that yields a playable
// session. Anything shorter is an incomplete capture and is rejected
// before it can enter the canonical store.
const MinCaptureEvents = 2

// Validate checks the structural invariants of a session.
func (s *Session) Validate() error {
	if len(s.Events) < MinCaptureEvents {
		return fmt.Errorf("session has %d events: %w", len(s.Events), ErrIncompleteCapture)
	}
	if s.Source == SourceSaved && s.ID == "" {
		return fmt.Errorf("saved session without id: %w", ErrMalformedData)
	}
	return nil
}

// EventsDurationMs derives the capture duration from the first and last
// event timestamps. Returns 0 for streams shorter than two events.
func (s *Session) EventsDurationMs() int64 {
	if len(s.Events) < MinCaptureEvents {
		return 0
	}
	d := s.Events[len(s.Events)-1].TimestampMs - s.Events[0].TimestampMs
	if d < 0 {
		return 0
	}
	return d
}

// CloneEvents returns an independent copy of the event sequence. The store
// and the codec both operate on copies so a stream handed out once is never
// mutated in place.
func CloneEvents(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// Summarize projects a saved session into its list representation.
func (s *Session) Summarize() SessionSummary {
	return SessionSummary{
		ID:         s.ID,
		Name:       s.Metadata.Name,
		DurationMs: s.Metadata.DurationMs,
		StartTime:  s.Metadata.CreatedAt,
		URL:        s.Metadata.PageURL,
		Visibility: s.Metadata.Visibility,
		CreatedBy:  s.Metadata.CreatedBy,
		UpdatedAt:  s.Metadata.UpdatedAt,
	}
}
