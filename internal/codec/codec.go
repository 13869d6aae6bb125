// Package codec losslessly compresses and decompresses a session's event
// stream for storage and transport. The codec is stateless and safe to
// invoke concurrently.
//
// Wire format:
//   - 4 bytes: magic "SBEV"
//   - 1 byte:  format version
//   - rest:    snappy block containing the JSON-encoded event array
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"

	"github.com/Permanently/sessionbook/internal/domain"
)

var magic = []byte("SBEV")

const version = 1

const headerLen = 5

// CorruptEventStream is returned when a blob cannot be decoded back into an
// event sequence. It wraps domain.ErrMalformedData so callers can classify
// it without importing this package's types. An empty stream and a failed
// decompression are different outcomes; this error is never collapsed into
// an empty result.
type CorruptEventStream struct {
	Reason string
}

func (e *CorruptEventStream) Error() string {
	return "codec: corrupt event stream: " + e.Reason
}

func (e *CorruptEventStream) Unwrap() error {
	return domain.ErrMalformedData
}

// Compress encodes an event sequence into its storage form. The input is
// never mutated; a nil sequence compresses as the empty sequence.
func Compress(events []domain.Event) ([]byte, error) {
	if events == nil {
		events = []domain.Event{}
	}

	raw, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("codec.Compress: %w", err)
	}

	compressed := snappy.Encode(nil, raw)

	blob := make([]byte, headerLen+len(compressed))
	copy(blob, magic)
	blob[4] = version
	copy(blob[headerLen:], compressed)

	return blob, nil
}

// Decompress decodes a blob produced by Compress. Malformed input fails
// with *CorruptEventStream; it never degrades to an empty sequence.
func Decompress(blob []byte) ([]domain.Event, error) {
	if len(blob) < headerLen {
		return nil, &CorruptEventStream{Reason: "blob shorter than header"}
	}
	if !bytes.Equal(blob[:4], magic) {
		return nil, &CorruptEventStream{Reason: "bad magic"}
	}
	if blob[4] != version {
		return nil, &CorruptEventStream{Reason: fmt.Sprintf("unsupported version %d", blob[4])}
	}

	raw, err := snappy.Decode(nil, blob[headerLen:])
	if err != nil {
		return nil, &CorruptEventStream{Reason: "snappy: " + err.Error()}
	}

	var events []domain.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, &CorruptEventStream{Reason: "json: " + err.Error()}
	}
	if events == nil {
		events = []domain.Event{}
	}

	return events, nil
}
