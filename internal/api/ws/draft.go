package ws

import (
	"encoding/json"

	"github.com/Permanently/sessionbook/internal/domain"
	"github.com/Permanently/sessionbook/internal/lifecycle"
)

// Draft command actions accepted over the draft socket. The cross-frame
// actions are forwarded verbatim so an embedding page can drive the viewer
// with the same vocabulary it uses between frames.
const (
	ActionOpenLiveTab  = "openLiveTabSession"
	ActionOpenSaved    = "openSavedSession"
	ActionOpenMock     = "openMockSession"
	ActionImport       = "importSession"
	ActionSaveDraft    = "saveDraftSession"
	ActionDiscardDraft = "discardDraftSession"
	ActionAckError     = "acknowledgeError"
)

// DraftCommand is one inbound message on the draft socket.
type DraftCommand struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type openLiveTabPayload struct {
	TabID int `json:"tab_id"`
}

type openSavedPayload struct {
	ID string `json:"id"`
}

type saveDraftPayload struct {
	Name       string `json:"name,omitempty"`
	Visibility string `json:"visibility,omitempty"`
}

// DraftUpdate is pushed to the client after every processed command: the
// machine state, the recorded failure when in the error state, and a
// snapshot of the view's session when one is populated.
type DraftUpdate struct {
	State      lifecycle.State    `json:"state"`
	Failure    *lifecycle.Failure `json:"failure,omitempty"`
	Session    *domain.Session    `json:"session,omitempty"`
	SavedID    string             `json:"saved_id,omitempty"`
	GuardArmed bool               `json:"guard_armed"`
}

func snapshotUpdate(ctrl *lifecycle.Controller, savedID string) DraftUpdate {
	update := DraftUpdate{
		State:      ctrl.State(),
		Failure:    ctrl.Failure(),
		SavedID:    savedID,
		GuardArmed: ctrl.UnsavedGuardArmed(),
	}
	if s, ok := ctrl.Session(); ok {
		update.Session = s
	}
	return update
}
