package ingest

import (
	"encoding/json"

	"github.com/Permanently/sessionbook/internal/domain"
)

// RawPayload is the shape produced by the external recorder for a live
// capture: page attributes plus the raw event stream. The same shape
// arrives from a browser tab, a cross-frame message or an imported file.
type RawPayload struct {
	Attributes    RawAttributes `json:"attributes"`
	Events        RawEvents     `json:"events"`
	RecordingMode string        `json:"recordingMode,omitempty"`
}

// RawAttributes carries page-level capture attributes.
type RawAttributes struct {
	URL       string `json:"url"`
	StartTime int64  `json:"startTime,omitempty"`
	Duration  int64  `json:"duration,omitempty"`
}

// RawEvents groups event channels by recorder type. Only the DOM-recording
// channel is consumed by this core.
type RawEvents struct {
	RRWeb []domain.Event `json:"rrweb"`
}

// CrossFrameAction discriminates inbound cross-frame messages.
const (
	ActionViewDraftSession = "viewDraftSession"
	ActionResetDraftViewer = "resetDraftSessionViewer"
)

// CrossFrameMessage is one inbound message on the cross-document channel.
type CrossFrameMessage struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
