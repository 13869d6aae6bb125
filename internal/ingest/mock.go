package ingest

import (
	"encoding/json"

	"github.com/Permanently/sessionbook/internal/domain"
)

// mockPayload is a tiny fixture capture used by the mock ingestion path
// and by handler tests. Shaped like a real recorder payload.
func mockPayload() *RawPayload {
	return &RawPayload{
		Attributes: RawAttributes{
			URL:       "https://example.com",
			StartTime: 1700000000000,
			Duration:  5200,
		},
		Events: RawEvents{
			RRWeb: []domain.Event{
				{Type: 4, TimestampMs: 1700000000000, Data: json.RawMessage(`{"href":"https://example.com","width":1440,"height":900}`)},
				{Type: 2, TimestampMs: 1700000000040, Data: json.RawMessage(`{"node":{"type":0,"childNodes":[]},"initialOffset":{"left":0,"top":0}}`)},
				{Type: 3, TimestampMs: 1700000001200, Data: json.RawMessage(`{"source":2,"type":2,"id":12,"x":301,"y":118}`)},
				{Type: 3, TimestampMs: 1700000003100, Data: json.RawMessage(`{"source":5,"id":18,"text":"search terms"}`)},
				{Type: 3, TimestampMs: 1700000005200, Data: json.RawMessage(`{"source":2,"type":0,"id":12,"x":640,"y":402}`)},
			},
		},
	}
}
