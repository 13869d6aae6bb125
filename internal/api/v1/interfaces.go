package v1

import (
	"context"

	"github.com/Permanently/sessionbook/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Sessions() domain.SessionGateway
}

// SummaryNotifier broadcasts a fresh summary snapshot after a mutation.
// *synclist.Broadcaster satisfies this interface.
type SummaryNotifier interface {
	SessionsChanged(ctx context.Context, owner domain.OwnerScope) error
}
