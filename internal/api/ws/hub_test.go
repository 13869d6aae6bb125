package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Permanently/sessionbook/internal/codec"
	"github.com/Permanently/sessionbook/internal/domain"
	"github.com/Permanently/sessionbook/internal/ingest"
	"github.com/Permanently/sessionbook/internal/lifecycle"
	"github.com/Permanently/sessionbook/internal/sessionstore"
)

type fakeGateway struct {
	fetchFunc func(ctx context.Context, id string, owner domain.OwnerScope) (*domain.SessionRecord, error)
	saveFunc  func(ctx context.Context, s *domain.Session, blob []byte, owner domain.OwnerScope) (string, error)
}

func (g *fakeGateway) Fetch(ctx context.Context, id string, owner domain.OwnerScope) (*domain.SessionRecord, error) {
	return g.fetchFunc(ctx, id, owner)
}

func (g *fakeGateway) Save(ctx context.Context, s *domain.Session, blob []byte, owner domain.OwnerScope) (string, error) {
	return g.saveFunc(ctx, s, blob, owner)
}

func (g *fakeGateway) Delete(context.Context, string, domain.OwnerScope) error {
	return domain.ErrNotFound
}

func (g *fakeGateway) ListSummaries(context.Context, domain.OwnerScope, int) ([]domain.SessionSummary, error) {
	return nil, nil
}

func draftPayload(t *testing.T, eventCount int) json.RawMessage {
	t.Helper()

	events := make([]map[string]any, 0, eventCount)
	for i := range eventCount {
		events = append(events, map[string]any{
			"type":      3,
			"timestamp": 1700000000000 + int64(i)*700,
			"data":      map[string]any{"source": 2},
		})
	}

	raw, err := json.Marshal(map[string]any{
		"attributes": map[string]any{
			"url":       "https://example.com/page",
			"startTime": 1700000000000,
		},
		"events": map[string]any{"rrweb": events},
	})
	require.NoError(t, err)
	return raw
}

var testOwner = domain.OwnerScope{UID: "user-1"}

type fakeNotifier struct {
	calls int
}

func (n *fakeNotifier) SessionsChanged(context.Context, domain.OwnerScope) error {
	n.calls++
	return nil
}

func newDraftController(gateway domain.SessionGateway) *lifecycle.Controller {
	return lifecycle.New(sessionstore.New(), ingest.New(nil), gateway, testOwner, nil)
}

func TestApplyDraftCommand(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, nil, nil, nil)

	t.Run("view_draft_populates", func(t *testing.T) {
		t.Parallel()

		ctrl := newDraftController(nil)
		update := hub.applyDraftCommand(t.Context(), ctrl, testOwner, DraftCommand{
			Action:  ingest.ActionViewDraftSession,
			Payload: draftPayload(t, 4),
		})

		assert.Equal(t, lifecycle.StateReady, update.State)
		assert.True(t, update.GuardArmed)
		require.NotNil(t, update.Session)
		assert.Len(t, update.Session.Events, 4)
	})

	t.Run("reset_clears_view", func(t *testing.T) {
		t.Parallel()

		ctrl := newDraftController(nil)
		hub.applyDraftCommand(t.Context(), ctrl, testOwner, DraftCommand{
			Action:  ingest.ActionViewDraftSession,
			Payload: draftPayload(t, 4),
		})

		update := hub.applyDraftCommand(t.Context(), ctrl, testOwner, DraftCommand{
			Action: ingest.ActionResetDraftViewer,
		})

		assert.Equal(t, lifecycle.StateLoading, update.State)
		assert.Nil(t, update.Session)
		assert.False(t, update.GuardArmed)
	})

	t.Run("import_then_save", func(t *testing.T) {
		t.Parallel()

		gateway := &fakeGateway{
			saveFunc: func(_ context.Context, _ *domain.Session, blob []byte, _ domain.OwnerScope) (string, error) {
				events, err := codec.Decompress(blob)
				require.NoError(t, err)
				assert.Len(t, events, 3)
				return "sess-9", nil
			},
		}

		notifier := &fakeNotifier{}
		saveHub := NewHub(nil, nil, nil, notifier)

		ctrl := newDraftController(gateway)
		saveHub.applyDraftCommand(t.Context(), ctrl, testOwner, DraftCommand{
			Action:  ActionImport,
			Payload: draftPayload(t, 3),
		})
		require.Equal(t, lifecycle.StateReady, ctrl.State())

		update := saveHub.applyDraftCommand(t.Context(), ctrl, testOwner, DraftCommand{
			Action:  ActionSaveDraft,
			Payload: json.RawMessage(`{"name":"My repro","visibility":"unlisted"}`),
		})

		assert.Equal(t, "sess-9", update.SavedID)
		assert.False(t, update.GuardArmed, "a successful save disarms the unsaved-work guard")
		assert.Equal(t, 1, notifier.calls, "a saved draft must broadcast a fresh summary list")
	})

	t.Run("save_without_draft_reports_failure", func(t *testing.T) {
		t.Parallel()

		notifier := &fakeNotifier{}
		saveHub := NewHub(nil, nil, nil, notifier)

		ctrl := newDraftController(&fakeGateway{})
		update := saveHub.applyDraftCommand(t.Context(), ctrl, testOwner, DraftCommand{Action: ActionSaveDraft})

		require.NotNil(t, update.Failure)
		assert.Equal(t, lifecycle.FailureNotFound, update.Failure.Kind)
		assert.Empty(t, update.SavedID)
		assert.Zero(t, notifier.calls, "a failed save must not broadcast")
	})

	t.Run("open_saved_fetches_through_gateway", func(t *testing.T) {
		t.Parallel()

		events := []domain.Event{
			{Type: 2, TimestampMs: 1000, Data: json.RawMessage(`{}`)},
			{Type: 3, TimestampMs: 5000, Data: json.RawMessage(`{}`)},
		}
		blob, err := codec.Compress(events)
		require.NoError(t, err)

		gateway := &fakeGateway{
			fetchFunc: func(_ context.Context, id string, _ domain.OwnerScope) (*domain.SessionRecord, error) {
				assert.Equal(t, "sess-1", id)
				return &domain.SessionRecord{
					ID:               "sess-1",
					Metadata:         domain.Metadata{Name: "run", Visibility: domain.VisibilityPrivate},
					CompressedEvents: blob,
				}, nil
			},
		}

		ctrl := newDraftController(gateway)
		update := hub.applyDraftCommand(t.Context(), ctrl, testOwner, DraftCommand{
			Action:  ActionOpenSaved,
			Payload: json.RawMessage(`{"id":"sess-1"}`),
		})

		assert.Equal(t, lifecycle.StateReady, update.State)
		assert.False(t, update.GuardArmed, "a saved session is not a draft")
		require.NotNil(t, update.Session)
		assert.Len(t, update.Session.Events, 2)
	})

	t.Run("open_saved_not_found", func(t *testing.T) {
		t.Parallel()

		gateway := &fakeGateway{
			fetchFunc: func(context.Context, string, domain.OwnerScope) (*domain.SessionRecord, error) {
				return nil, fmt.Errorf("row lookup: %w", domain.ErrNotFound)
			},
		}

		ctrl := newDraftController(gateway)
		update := hub.applyDraftCommand(t.Context(), ctrl, testOwner, DraftCommand{
			Action:  ActionOpenSaved,
			Payload: json.RawMessage(`{"id":"missing"}`),
		})

		assert.Equal(t, lifecycle.StateError, update.State)
		require.NotNil(t, update.Failure)
		assert.Equal(t, lifecycle.FailureNotFound, update.Failure.Kind)
	})

	t.Run("acknowledge_error_returns_to_idle", func(t *testing.T) {
		t.Parallel()

		ctrl := newDraftController(&fakeGateway{
			fetchFunc: func(context.Context, string, domain.OwnerScope) (*domain.SessionRecord, error) {
				return nil, domain.ErrNotFound
			},
		})
		hub.applyDraftCommand(t.Context(), ctrl, testOwner, DraftCommand{
			Action:  ActionOpenSaved,
			Payload: json.RawMessage(`{"id":"missing"}`),
		})

		update := hub.applyDraftCommand(t.Context(), ctrl, testOwner, DraftCommand{Action: ActionAckError})
		assert.Equal(t, lifecycle.StateIdle, update.State)
		assert.Nil(t, update.Failure)
	})

	t.Run("unknown_action_is_ignored", func(t *testing.T) {
		t.Parallel()

		ctrl := newDraftController(nil)
		update := hub.applyDraftCommand(t.Context(), ctrl, testOwner, DraftCommand{Action: "definitelyNotAnAction"})
		assert.Equal(t, lifecycle.StateIdle, update.State)
	})

	t.Run("discard_resets", func(t *testing.T) {
		t.Parallel()

		ctrl := newDraftController(nil)
		hub.applyDraftCommand(t.Context(), ctrl, testOwner, DraftCommand{
			Action:  ActionImport,
			Payload: draftPayload(t, 3),
		})

		update := hub.applyDraftCommand(t.Context(), ctrl, testOwner, DraftCommand{Action: ActionDiscardDraft})
		assert.Equal(t, lifecycle.StateIdle, update.State)
		assert.Nil(t, update.Session)
	})
}

func TestOpenMockCommand(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, nil, nil, nil)
	ctrl := newDraftController(nil)

	update := hub.applyDraftCommand(t.Context(), ctrl, testOwner, DraftCommand{Action: ActionOpenMock})

	assert.Equal(t, lifecycle.StateReady, update.State)
	require.NotNil(t, update.Session)
	assert.Equal(t, "Mock Session Recording", update.Session.Metadata.Name)
}
