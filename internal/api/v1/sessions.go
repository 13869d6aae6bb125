package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/Permanently/sessionbook/internal/codec"
	"github.com/Permanently/sessionbook/internal/domain"
	"github.com/Permanently/sessionbook/internal/ingest"
	"github.com/Permanently/sessionbook/internal/server/middleware"
)

type SaveSessionInput struct {
	Body struct {
		Name       string         `json:"name,omitempty" maxLength:"500" doc:"Session name; derived from the page URL when empty"`
		PageURL    string         `json:"page_url" minLength:"1" doc:"URL of the captured page"`
		Visibility string         `json:"visibility,omitempty" enum:"private,public,unlisted" doc:"Who may fetch the saved session"`
		StartTime  int64          `json:"start_time,omitempty" doc:"Capture start, unix milliseconds"`
		DurationMs int64          `json:"duration_ms,omitempty" doc:"Capture duration; derived from event timestamps when 0"`
		Events     []domain.Event `json:"events" doc:"Captured event stream"`
	}
}

type SaveSessionOutput struct {
	Body struct {
		ID string `json:"id" doc:"Assigned session ID"`
	}
}

type GetSessionInput struct {
	ID string `path:"id" doc:"Session ID"`
}

type GetSessionOutput struct {
	Body *domain.Session
}

type ListSessionsInput struct {
	Limit int `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Maximum summaries to return"`
}

type ListSessionsOutput struct {
	Body []domain.SessionSummary
}

type DeleteSessionInput struct {
	ID string `path:"id" doc:"Session ID"`
}

func RegisterSessionRoutes(api huma.API, store DataStore, notifier SummaryNotifier) {
	huma.Register(api, huma.Operation{
		OperationID: "save-session",
		Method:      http.MethodPost,
		Path:        "/sessions",
		Summary:     "Save a recorded session",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *SaveSessionInput) (*SaveSessionOutput, error) {
		owner, ok := middleware.OwnerFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing owner scope")
		}

		now := time.Now().UTC()
		createdAt := now
		if input.Body.StartTime > 0 {
			createdAt = time.UnixMilli(input.Body.StartTime).UTC()
		}

		visibility := domain.Visibility(input.Body.Visibility)
		if visibility == "" {
			visibility = domain.VisibilityPrivate
		}

		name := input.Body.Name
		if name == "" {
			name = ingest.DraftTitle(input.Body.PageURL, createdAt)
		}

		s := &domain.Session{
			Metadata: domain.Metadata{
				Name:       name,
				CreatedAt:  createdAt,
				DurationMs: input.Body.DurationMs,
				PageURL:    input.Body.PageURL,
				Visibility: visibility,
				CreatedBy:  owner.UID,
				UpdatedAt:  now,
			},
			Events: input.Body.Events,
			Source: domain.SourceImported,
		}
		if s.Metadata.DurationMs <= 0 {
			s.Metadata.DurationMs = s.EventsDurationMs()
		}

		if err := s.Validate(); err != nil {
			if errors.Is(err, domain.ErrIncompleteCapture) {
				return nil, huma.Error422UnprocessableEntity("session has fewer than 2 captured events")
			}
			return nil, huma.Error422UnprocessableEntity("invalid session", err)
		}

		blob, err := codec.Compress(s.Events)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to encode events", err)
		}

		id, err := store.Sessions().Save(ctx, s, blob, owner)
		if err != nil {
			return nil, mapGatewayError(err, "failed to save session")
		}

		notifySummaries(ctx, notifier, owner)

		out := &SaveSessionOutput{}
		out.Body.ID = id
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/sessions/{id}",
		Summary:     "Fetch a saved session with its decompressed events",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *GetSessionInput) (*GetSessionOutput, error) {
		owner, ok := middleware.OwnerFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing owner scope")
		}

		rec, err := store.Sessions().Fetch(ctx, input.ID, owner)
		if err != nil {
			return nil, mapGatewayError(err, "failed to fetch session")
		}

		events, err := codec.Decompress(rec.CompressedEvents)
		if err != nil {
			// A stored stream that no longer decodes is malformed data,
			// never an empty session.
			return nil, huma.Error422UnprocessableEntity("stored session events are corrupt")
		}

		return &GetSessionOutput{Body: &domain.Session{
			ID:       rec.ID,
			Metadata: rec.Metadata,
			Events:   events,
			Source:   domain.SourceSaved,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-sessions",
		Method:      http.MethodGet,
		Path:        "/sessions",
		Summary:     "List session summaries for the caller's scope",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error) {
		owner, ok := middleware.OwnerFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing owner scope")
		}

		summaries, err := store.Sessions().ListSummaries(ctx, owner, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list sessions", err)
		}

		return &ListSessionsOutput{Body: summaries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-session",
		Method:      http.MethodDelete,
		Path:        "/sessions/{id}",
		Summary:     "Delete an owned session",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *DeleteSessionInput) (*struct{}, error) {
		owner, ok := middleware.OwnerFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing owner scope")
		}

		if err := store.Sessions().Delete(ctx, input.ID, owner); err != nil {
			return nil, mapGatewayError(err, "failed to delete session")
		}

		notifySummaries(ctx, notifier, owner)

		return nil, nil
	})
}

// mapGatewayError translates the gateway's typed failures onto HTTP
// outcomes 1:1.
func mapGatewayError(err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("session not found")
	case errors.Is(err, domain.ErrPermissionDenied):
		return huma.Error403Forbidden("you do not have access to this session")
	case errors.Is(err, domain.ErrMalformedData):
		return huma.Error422UnprocessableEntity("session data is malformed")
	default:
		return huma.Error500InternalServerError(fallback, err)
	}
}

// notifySummaries is best effort: a failed broadcast must not fail the
// mutation that triggered it.
func notifySummaries(ctx context.Context, notifier SummaryNotifier, owner domain.OwnerScope) {
	if notifier == nil {
		return
	}
	if err := notifier.SessionsChanged(ctx, owner); err != nil {
		log.Warn().Err(err).Str("owner", owner.OwnerID()).Msg("summary broadcast failed")
	}
}
