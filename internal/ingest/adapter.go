// Package ingest normalizes raw session payloads from their distinct
// sources (live browser tab, cross-frame message, imported fixture, saved
// record) into one canonical domain.Session. The adapter is pure: it never
// writes to the canonical store, it only returns a session or a typed
// failure for the lifecycle controller to act on.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Permanently/sessionbook/internal/codec"
	"github.com/Permanently/sessionbook/internal/domain"
)

// TabSource fetches the current recording of a running browser tab. The
// returned document is either a RawPayload object or a JSON string holding
// a human-readable fetch failure; the channel is deliberately untyped on
// the wire, so the adapter classifies whatever arrives.
type TabSource interface {
	FetchTabSession(ctx context.Context, tabID int) (json.RawMessage, error)
}

// Adapter converts raw payloads into canonical sessions.
type Adapter struct {
	tabs TabSource
	now  func() time.Time
}

// New creates an adapter. tabs may be nil when the live-tab path is unused.
func New(tabs TabSource) *Adapter {
	return &Adapter{tabs: tabs, now: time.Now}
}

// FromLiveTab requests the tab's current session and normalizes it. A
// string payload on the wire is a fetch failure to surface to the user,
// not an internal error.
func (a *Adapter) FromLiveTab(ctx context.Context, tabID int) (*domain.Session, error) {
	if a.tabs == nil {
		return nil, fmt.Errorf("live-tab capture is not available: %w", domain.ErrFetchFailure)
	}

	raw, err := a.tabs.FetchTabSession(ctx, tabID)
	if err != nil {
		return nil, fmt.Errorf("tab %d: %v: %w", tabID, err, domain.ErrFetchFailure)
	}

	payload, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}

	return a.build(payload, domain.SourceLiveTab)
}

// FromCrossFrame normalizes the payload of a viewDraftSession message.
func (a *Adapter) FromCrossFrame(raw json.RawMessage) (*domain.Session, error) {
	payload, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}

	return a.build(payload, domain.SourceCrossFrame)
}

// FromImport validates an already-complete payload, e.g. a file the user
// imported. No I/O is performed.
func (a *Adapter) FromImport(raw json.RawMessage) (*domain.Session, error) {
	payload, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}

	return a.build(payload, domain.SourceImported)
}

// FromMock builds a session from the bundled fixture.
func (a *Adapter) FromMock() (*domain.Session, error) {
	s, err := a.build(mockPayload(), domain.SourceMock)
	if err != nil {
		return nil, err
	}
	s.Metadata.Name = "Mock Session Recording"
	return s, nil
}

// FromSaved decompresses a gateway record through the event codec and
// reconstructs the canonical session. Decompression failures propagate as
// the codec's typed error, never as an empty stream.
func (a *Adapter) FromSaved(rec *domain.SessionRecord) (*domain.Session, error) {
	if rec == nil || rec.ID == "" {
		return nil, fmt.Errorf("saved record missing id: %w", domain.ErrMalformedData)
	}

	events, err := codec.Decompress(rec.CompressedEvents)
	if err != nil {
		return nil, err
	}

	s := &domain.Session{
		ID:       rec.ID,
		Metadata: rec.Metadata,
		Events:   events,
		Source:   domain.SourceSaved,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// decodePayload classifies the untyped wire document: a JSON string is a
// fetch failure, an object is a payload, anything else is malformed data.
func decodePayload(raw json.RawMessage) (*RawPayload, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty payload: %w", domain.ErrMalformedData)
	}

	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return nil, fmt.Errorf("%s: %w", msg, domain.ErrFetchFailure)
	}

	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("payload is not valid JSON: %w", domain.ErrMalformedData)
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, fmt.Errorf("payload has unrecognized shape: %w", domain.ErrMalformedData)
	}

	var payload RawPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("payload does not match session shape: %w", domain.ErrMalformedData)
	}

	return &payload, nil
}

// build produces the canonical session from a decoded payload. Every
// source goes through the same incomplete-capture check.
func (a *Adapter) build(payload *RawPayload, source domain.Source) (*domain.Session, error) {
	if len(payload.Events.RRWeb) < domain.MinCaptureEvents {
		return nil, fmt.Errorf("captured %d events: %w", len(payload.Events.RRWeb), domain.ErrIncompleteCapture)
	}

	events := domain.CloneEvents(payload.Events.RRWeb)

	createdAt := a.now().UTC()
	if payload.Attributes.StartTime > 0 {
		createdAt = time.UnixMilli(payload.Attributes.StartTime).UTC()
	}

	s := &domain.Session{
		Metadata: domain.Metadata{
			Name:       DraftTitle(payload.Attributes.URL, createdAt),
			CreatedAt:  createdAt,
			PageURL:    payload.Attributes.URL,
			Visibility: domain.VisibilityPrivate,
			UpdatedAt:  createdAt,
		},
		Events: events,
		Source: source,
	}

	s.Metadata.DurationMs = payload.Attributes.Duration
	if s.Metadata.DurationMs <= 0 {
		s.Metadata.DurationMs = s.EventsDurationMs()
	}

	return s, nil
}
