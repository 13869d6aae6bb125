// Package lifecycle orchestrates one session view: it picks the ingestion
// path for the incoming source, drives the Idle -> Loading -> {Ready, Error}
// state machine and is the sole writer of the view's canonical session
// store.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Permanently/sessionbook/internal/codec"
	"github.com/Permanently/sessionbook/internal/domain"
	"github.com/Permanently/sessionbook/internal/ingest"
	"github.com/Permanently/sessionbook/internal/sessionstore"
)

// State of a session view.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// FailureKind classifies a load failure for the view layer. Gateway errors
// map 1:1 onto NotFound, PermissionDenied and MalformedData; anything
// unrecognized is MalformedData with its message preserved for diagnostics.
type FailureKind string

const (
	FailureNotFound          FailureKind = "not_found"
	FailurePermissionDenied  FailureKind = "permission_denied"
	FailureMalformedData     FailureKind = "malformed_data"
	FailureFetchFailed       FailureKind = "fetch_failed"
	FailureIncompleteCapture FailureKind = "incomplete_capture"
)

// Failure is the stable, user-presentable record of why a load failed.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// RouteSessionsHome is where the controller sends the consumer when an
// imported view is entered without a surviving draft.
const RouteSessionsHome = "/sessions"

// Controller owns one view's lifecycle. It is safe for concurrent use;
// cross-frame messages are serialized in arrival order, so the most recent
// fully-populated message always wins.
type Controller struct {
	mu sync.Mutex

	state   State
	failure *Failure
	guard   bool

	store    *sessionstore.Store
	adapter  *ingest.Adapter
	gateway  domain.SessionGateway
	owner    domain.OwnerScope
	navigate func(route string)
}

// New creates a controller for a single view. navigate may be nil when the
// consumer handles navigation itself.
func New(store *sessionstore.Store, adapter *ingest.Adapter, gateway domain.SessionGateway, owner domain.OwnerScope, navigate func(route string)) *Controller {
	if navigate == nil {
		navigate = func(string) {}
	}
	return &Controller{
		state:    StateIdle,
		store:    store,
		adapter:  adapter,
		gateway:  gateway,
		owner:    owner,
		navigate: navigate,
	}
}

// State returns the current machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Failure returns the recorded failure, or nil outside the Error state.
func (c *Controller) Failure() *Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failure == nil {
		return nil
	}
	f := *c.failure
	return &f
}

// UnsavedGuardArmed reports whether the consumer should confirm before
// discarding the current draft.
func (c *Controller) UnsavedGuardArmed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.guard
}

// Session returns a snapshot of the view's current session.
func (c *Controller) Session() (*domain.Session, bool) {
	return c.store.Snapshot()
}

// OpenLiveTab loads the draft currently recorded in a browser tab.
func (c *Controller) OpenLiveTab(ctx context.Context, tabID int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enterLoading(domain.SourceLiveTab)

	s, err := c.adapter.FromLiveTab(ctx, tabID)
	if err != nil {
		c.fail(err)
		return
	}
	c.populate(s)
}

// OpenImported enters a view over an already-imported draft. The draft must
// survive re-entering the route, so the store is not reset; when no draft
// is present the consumer is navigated back to the sessions list.
func (c *Controller) OpenImported(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateLoading
	c.failure = nil

	snap, ok := c.store.Snapshot()
	if !ok {
		c.state = StateIdle
		c.navigate(RouteSessionsHome)
		return
	}

	c.state = StateReady
	c.guard = snap.Source.Draft()
}

// Import validates a complete payload (e.g. a file) and makes it the
// current draft.
func (c *Controller) Import(_ context.Context, raw []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enterLoading(domain.SourceImported)

	s, err := c.adapter.FromImport(raw)
	if err != nil {
		c.fail(err)
		return
	}
	c.populate(s)
}

// OpenMock loads the bundled fixture session.
func (c *Controller) OpenMock(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enterLoading(domain.SourceMock)

	s, err := c.adapter.FromMock()
	if err != nil {
		c.fail(err)
		return
	}
	c.populate(s)
}

// OpenSaved fetches a persisted session through the gateway and
// decompresses it into the store. A failed load is terminal; re-navigation
// is the only retry.
func (c *Controller) OpenSaved(ctx context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enterLoading(domain.SourceSaved)

	rec, err := c.gateway.Fetch(ctx, id, c.owner)
	if err != nil {
		c.fail(err)
		return
	}

	s, err := c.adapter.FromSaved(rec)
	if err != nil {
		c.fail(err)
		return
	}
	c.populate(s)
}

// HandleCrossFrame processes one inbound cross-document message. Messages
// are applied in arrival order; a populate message replaces whatever an
// earlier message produced, wholesale.
func (c *Controller) HandleCrossFrame(msg ingest.CrossFrameMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Action {
	case ingest.ActionResetDraftViewer:
		c.enterLoading(domain.SourceCrossFrame)

	case ingest.ActionViewDraftSession:
		c.enterLoading(domain.SourceCrossFrame)

		s, err := c.adapter.FromCrossFrame(msg.Payload)
		if err != nil {
			c.fail(err)
			return
		}
		c.populate(s)

	default:
		log.Debug().Str("action", msg.Action).Msg("ignoring unknown cross-frame action")
	}
}

// Save persists the current draft through the gateway. On success the
// session becomes Saved, acquires its id and the unsaved-work guard is
// disarmed.
func (c *Controller) Save(ctx context.Context, name string, visibility domain.Visibility) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.store.Snapshot()
	if !ok {
		return "", fmt.Errorf("no session to save: %w", domain.ErrNotFound)
	}

	if name != "" {
		snap.Metadata.Name = name
	}
	if visibility != "" {
		if !visibility.Valid() {
			return "", fmt.Errorf("unknown visibility %q: %w", visibility, domain.ErrMalformedData)
		}
		snap.Metadata.Visibility = visibility
	}
	snap.Metadata.CreatedBy = c.owner.UID

	if err := snap.Validate(); err != nil {
		return "", err
	}

	blob, err := codec.Compress(snap.Events)
	if err != nil {
		return "", err
	}

	id, err := c.gateway.Save(ctx, snap, blob, c.owner)
	if err != nil {
		return "", err
	}

	c.store.SetMetadata(id, domain.SourceSaved, snap.Metadata)
	c.guard = false

	return id, nil
}

// Reset discards the view's session and returns to Idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Reset()
	c.state = StateIdle
	c.failure = nil
	c.guard = false
}

// AcknowledgeError clears a recorded failure, returning the view to Idle.
func (c *Controller) AcknowledgeError() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateError {
		return
	}
	c.state = StateIdle
	c.failure = nil
}

// enterLoading transitions to Loading. The store is reset unless the
// incoming source is Imported: an imported draft must survive a route that
// merely re-renders it. Callers hold c.mu.
func (c *Controller) enterLoading(source domain.Source) {
	c.state = StateLoading
	c.failure = nil

	if source != domain.SourceImported {
		c.store.Reset()
		c.guard = false
	}
}

// populate fills the store and completes the Loading -> Ready transition.
// Callers hold c.mu.
func (c *Controller) populate(s *domain.Session) {
	c.store.SetMetadata(s.ID, s.Source, s.Metadata)
	c.store.SetEvents(s.Events)

	c.state = StateReady
	c.guard = s.Source.Draft()
}

// fail records a classified failure and completes Loading -> Error. The
// store stays unpopulated. Callers hold c.mu.
func (c *Controller) fail(err error) {
	f := Classify(err)
	c.state = StateError
	c.failure = &f
	c.guard = false

	log.Warn().Str("kind", string(f.Kind)).Str("reason", f.Message).Msg("session load failed")
}

// Classify maps an ingestion or gateway error onto the stable failure
// taxonomy. Unrecognized errors become MalformedData with their message
// preserved rather than being guessed at.
func Classify(err error) Failure {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return Failure{Kind: FailureNotFound, Message: "session not found"}
	case errors.Is(err, domain.ErrPermissionDenied):
		return Failure{Kind: FailurePermissionDenied, Message: "you do not have permission to view this session"}
	case errors.Is(err, domain.ErrIncompleteCapture):
		return Failure{Kind: FailureIncompleteCapture, Message: "session events were not captured"}
	case errors.Is(err, domain.ErrFetchFailure):
		return Failure{Kind: FailureFetchFailed, Message: err.Error()}
	default:
		return Failure{Kind: FailureMalformedData, Message: err.Error()}
	}
}
