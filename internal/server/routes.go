package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/Permanently/sessionbook/internal/api/v1"
	"github.com/Permanently/sessionbook/internal/api/ws"
	"github.com/Permanently/sessionbook/internal/store/postgres"
)

func registerAPIRoutes(api huma.API, store *postgres.Store, notifier v1.SummaryNotifier) {
	v1.RegisterSessionRoutes(api, store, notifier)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/summaries", hub.ServeSummaries)
	r.Get("/draft", hub.ServeDraft)
}
