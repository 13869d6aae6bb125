package v1_test

import (
	"context"

	"github.com/Permanently/sessionbook/internal/domain"
	"github.com/Permanently/sessionbook/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject the owner scope into context for DoCtx
// ---------------------------------------------------------------------------

func ownerCtx(owner domain.OwnerScope) context.Context {
	return middleware.WithOwner(context.Background(), owner)
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	sessions domain.SessionGateway
}

func (m *mockDataStore) Sessions() domain.SessionGateway { return m.sessions }

// ---------------------------------------------------------------------------
// Mock SessionGateway
// ---------------------------------------------------------------------------

type mockSessionGateway struct {
	fetchFunc  func(ctx context.Context, id string, owner domain.OwnerScope) (*domain.SessionRecord, error)
	saveFunc   func(ctx context.Context, s *domain.Session, blob []byte, owner domain.OwnerScope) (string, error)
	deleteFunc func(ctx context.Context, id string, owner domain.OwnerScope) error
	listFunc   func(ctx context.Context, owner domain.OwnerScope, limit int) ([]domain.SessionSummary, error)
}

func (m *mockSessionGateway) Fetch(ctx context.Context, id string, owner domain.OwnerScope) (*domain.SessionRecord, error) {
	return m.fetchFunc(ctx, id, owner)
}

func (m *mockSessionGateway) Save(ctx context.Context, s *domain.Session, blob []byte, owner domain.OwnerScope) (string, error) {
	return m.saveFunc(ctx, s, blob, owner)
}

func (m *mockSessionGateway) Delete(ctx context.Context, id string, owner domain.OwnerScope) error {
	return m.deleteFunc(ctx, id, owner)
}

func (m *mockSessionGateway) ListSummaries(ctx context.Context, owner domain.OwnerScope, limit int) ([]domain.SessionSummary, error) {
	return m.listFunc(ctx, owner, limit)
}

// ---------------------------------------------------------------------------
// Mock SummaryNotifier
// ---------------------------------------------------------------------------

type mockNotifier struct {
	changedFunc func(ctx context.Context, owner domain.OwnerScope) error
	calls       int
}

func (m *mockNotifier) SessionsChanged(ctx context.Context, owner domain.OwnerScope) error {
	m.calls++
	if m.changedFunc != nil {
		return m.changedFunc(ctx, owner)
	}
	return nil
}
