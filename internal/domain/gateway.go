package domain

import "context"

// SessionRecord is what the persistence gateway hands back on fetch:
// metadata plus the event stream still in its compressed storage form.
// Decompression is the caller's job, via the event codec.
type SessionRecord struct {
	ID               string
	OwnerID          string
	Metadata         Metadata
	CompressedEvents []byte
}

// SessionGateway is the persistence contract consumed by the core. The
// gateway enforces ownership scope on every call; implementations return
// ErrNotFound, ErrPermissionDenied or ErrMalformedData as typed failures.
type SessionGateway interface {
	// Fetch retrieves a stored session by id. Private sessions are only
	// returned to their owner; public and unlisted sessions to anyone
	// holding the id.
	Fetch(ctx context.Context, id string, owner OwnerScope) (*SessionRecord, error)

	// Save persists a session under the given scope and returns its id,
	// minting one when the session is a draft. Re-saving an existing id
	// updates metadata and bumps UpdatedAt.
	Save(ctx context.Context, session *Session, compressedEvents []byte, owner OwnerScope) (string, error)

	// Delete removes an owned session. Deleting another owner's session
	// fails with ErrPermissionDenied.
	Delete(ctx context.Context, id string, owner OwnerScope) error

	// ListSummaries returns up to limit summaries for the scope, ordered
	// by creation time descending.
	ListSummaries(ctx context.Context, owner OwnerScope, limit int) ([]SessionSummary, error)
}
