// Package synclist maintains a bounded, ordered, owner-scoped live view
// over session summaries. Every server push replaces the visible list
// wholesale; there is no incremental patching, so the displayed order
// always matches server order.
package synclist

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Permanently/sessionbook/internal/domain"
)

// DefaultPageSize bounds the visible summary list.
const DefaultPageSize = 4

// Feed delivers full summary snapshots for an owner scope. The first
// snapshot on the channel is the current state; each subsequent one is a
// complete replacement. The returned cancel func tears the feed down and
// must be safe to call more than once.
type Feed interface {
	Snapshots(ctx context.Context, owner domain.OwnerScope) (<-chan []domain.SessionSummary, func(), error)
}

// ErrClosed is returned by SetScope after Close.
var ErrClosed = errors.New("synclist: synchronizer closed")

// Synchronizer is the live list view for one consumer. Updates arrive
// asynchronously and never block the caller; all accessors return copies.
type Synchronizer struct {
	mu sync.Mutex

	feed     Feed
	pageSize int

	owner    domain.OwnerScope
	hasScope bool
	uid      string

	summaries []domain.SessionSummary
	loading   bool

	gen    int
	cancel func()
	closed bool
}

// New creates a synchronizer over the given feed. pageSize <= 0 falls back
// to DefaultPageSize.
func New(feed Feed, pageSize int) *Synchronizer {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Synchronizer{feed: feed, pageSize: pageSize}
}

// SetScope points the view at an owner scope, subscribing on first use and
// resubscribing when the scope identity or the user identity changes. A
// repeated call with the same identity is a no-op, so callers may invoke it
// on every render. A subscription failure degrades to an explicit empty
// list with loading cleared, never a stuck loading state.
func (s *Synchronizer) SetScope(ctx context.Context, owner domain.OwnerScope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if s.hasScope && s.owner.Same(owner) && s.uid == owner.UID {
		return nil
	}

	// A different user must never see the previous user's rows, even for
	// the instant before the new snapshot lands.
	if s.uid != owner.UID {
		s.summaries = []domain.SessionSummary{}
	}

	s.teardownLocked()

	s.owner = owner
	s.uid = owner.UID
	s.hasScope = true
	s.loading = true
	s.gen++
	gen := s.gen

	ch, cancel, err := s.feed.Snapshots(ctx, owner)
	if err != nil {
		s.summaries = []domain.SessionSummary{}
		s.loading = false
		return err
	}
	s.cancel = cancel

	go s.consume(gen, ch)

	return nil
}

// consume applies snapshots from one subscription generation. Deliveries
// from a superseded generation are dropped so a stale subscriber can never
// cross-deliver into a new scope.
func (s *Synchronizer) consume(gen int, ch <-chan []domain.SessionSummary) {
	for snap := range ch {
		s.mu.Lock()
		if gen != s.gen || s.closed {
			s.mu.Unlock()
			return
		}
		next := make([]domain.SessionSummary, len(snap))
		copy(next, snap)
		s.summaries = next
		s.loading = false
		s.mu.Unlock()
	}

	// Channel closed under us: the feed failed or ended. Degrade to an
	// explicit empty list rather than leaving the view loading forever.
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.closed {
		return
	}
	log.Warn().Str("owner", s.owner.OwnerID()).Msg("summary feed ended")
	s.summaries = []domain.SessionSummary{}
	s.loading = false
}

// Summaries returns the visible list. Empty results are an explicit empty
// slice once a scope has been set.
func (s *Synchronizer) Summaries() []domain.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.SessionSummary, len(s.summaries))
	copy(out, s.summaries)
	return out
}

// Loading reports whether the first snapshot for the current scope is
// still pending.
func (s *Synchronizer) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// HasMore reports whether more sessions exist than the page bound. Pure
// size comparison, no round trip.
func (s *Synchronizer) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.summaries) > s.pageSize
}

// PageSize returns the fixed page bound.
func (s *Synchronizer) PageSize() int {
	return s.pageSize
}

// Page returns at most PageSize summaries.
func (s *Synchronizer) Page() []domain.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := min(len(s.summaries), s.pageSize)
	out := make([]domain.SessionSummary, n)
	copy(out, s.summaries[:n])
	return out
}

// Close tears down the current subscription. Idempotent; a second call is
// a no-op.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.teardownLocked()
}

func (s *Synchronizer) teardownLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}
