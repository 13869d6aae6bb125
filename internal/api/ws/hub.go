package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"

	"github.com/Permanently/sessionbook/internal/domain"
	"github.com/Permanently/sessionbook/internal/ingest"
	"github.com/Permanently/sessionbook/internal/lifecycle"
	"github.com/Permanently/sessionbook/internal/server/middleware"
	"github.com/Permanently/sessionbook/internal/sessionstore"
	"github.com/Permanently/sessionbook/internal/synclist"
)

// SummaryNotifier broadcasts a fresh summary snapshot after a mutation.
type SummaryNotifier interface {
	SessionsChanged(ctx context.Context, owner domain.OwnerScope) error
}

// Hub manages WebSocket connections for summary streaming and draft
// viewing. Summary connections are fed by Redis pub/sub through the
// synclist feed; draft connections each own an isolated view controller.
type Hub struct {
	feed     synclist.Feed
	gateway  domain.SessionGateway
	tabs     ingest.TabSource
	notifier SummaryNotifier
}

// NewHub creates a new WebSocket hub. tabs may be nil when live-tab
// capture is not available on this deployment; notifier may be nil when
// summary broadcasting is unwired.
func NewHub(feed synclist.Feed, gateway domain.SessionGateway, tabs ingest.TabSource, notifier SummaryNotifier) *Hub {
	return &Hub{feed: feed, gateway: gateway, tabs: tabs, notifier: notifier}
}

// ServeSummaries streams whole summary-list snapshots for the caller's
// owner scope. Every message replaces the previous list in full; clients
// never patch.
func (h *Hub) ServeSummaries(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		http.Error(w, "missing owner scope", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	snapshots, cleanup, err := h.feed.Snapshots(ctx, owner)
	if err != nil {
		log.Error().Err(err).Str("owner", owner.OwnerID()).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case snap, snapOK := <-snapshots:
			if !snapOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			payload, marshalErr := json.Marshal(snap)
			if marshalErr != nil {
				log.Error().Err(marshalErr).Msg("websocket marshal snapshot")
				continue
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, payload); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

// ServeDraft runs one draft-viewer connection. Each connection gets its
// own store and controller, so commands from one client never touch
// another client's view. Commands are applied in arrival order and every
// command is answered with a full state update.
func (h *Hub) ServeDraft(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		http.Error(w, "missing owner scope", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	ctrl := lifecycle.New(sessionstore.New(), ingest.New(h.tabs), h.gateway, owner, nil)

	for {
		_, raw, readErr := conn.Read(ctx)
		if readErr != nil {
			log.Debug().Err(readErr).Msg("websocket read")
			return
		}

		var cmd DraftCommand
		if unmarshalErr := json.Unmarshal(raw, &cmd); unmarshalErr != nil {
			log.Debug().Err(unmarshalErr).Msg("ignoring undecodable draft command")
			continue
		}

		update := h.applyDraftCommand(ctx, ctrl, owner, cmd)

		payload, marshalErr := json.Marshal(update)
		if marshalErr != nil {
			log.Error().Err(marshalErr).Msg("websocket marshal update")
			continue
		}
		if writeErr := conn.Write(ctx, websocket.MessageText, payload); writeErr != nil {
			log.Debug().Err(writeErr).Msg("websocket write")
			return
		}
	}
}

func (h *Hub) applyDraftCommand(ctx context.Context, ctrl *lifecycle.Controller, owner domain.OwnerScope, cmd DraftCommand) DraftUpdate {
	switch cmd.Action {
	case ingest.ActionViewDraftSession, ingest.ActionResetDraftViewer:
		ctrl.HandleCrossFrame(ingest.CrossFrameMessage{Action: cmd.Action, Payload: cmd.Payload})

	case ActionOpenLiveTab:
		var p openLiveTabPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			log.Debug().Err(err).Msg("ignoring malformed open-live-tab payload")
			break
		}
		ctrl.OpenLiveTab(ctx, p.TabID)

	case ActionOpenSaved:
		var p openSavedPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil || p.ID == "" {
			log.Debug().Msg("ignoring open-saved command without an id")
			break
		}
		ctrl.OpenSaved(ctx, p.ID)

	case ActionOpenMock:
		ctrl.OpenMock(ctx)

	case ActionImport:
		ctrl.Import(ctx, cmd.Payload)

	case ActionSaveDraft:
		var p saveDraftPayload
		if len(cmd.Payload) > 0 {
			if err := json.Unmarshal(cmd.Payload, &p); err != nil {
				log.Debug().Err(err).Msg("ignoring malformed save payload")
				break
			}
		}
		id, saveErr := ctrl.Save(ctx, p.Name, domain.Visibility(p.Visibility))
		if saveErr != nil {
			f := lifecycle.Classify(saveErr)
			update := snapshotUpdate(ctrl, "")
			update.Failure = &f
			return update
		}
		h.notifySummaries(ctx, owner)
		return snapshotUpdate(ctrl, id)

	case ActionDiscardDraft:
		ctrl.Reset()

	case ActionAckError:
		ctrl.AcknowledgeError()

	default:
		log.Debug().Str("action", cmd.Action).Msg("ignoring unknown draft action")
	}

	return snapshotUpdate(ctrl, "")
}

// notifySummaries is best effort: a failed broadcast must not fail the
// save that triggered it.
func (h *Hub) notifySummaries(ctx context.Context, owner domain.OwnerScope) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.SessionsChanged(ctx, owner); err != nil {
		log.Warn().Err(err).Str("owner", owner.OwnerID()).Msg("summary broadcast failed")
	}
}
