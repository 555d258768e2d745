package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", g.handleHealth())
	r.Get("/status", g.handleStatus())
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g.registry, promhttp.HandlerOpts{}))

	// Shelf mirror for connected clients.
	r.Get("/ws", g.handleWebSocket())

	r.Route("/api", func(r chi.Router) {
		r.Get("/notifications", g.handleListNotifications())
		r.Post("/update", g.handleUpdate())
		r.Post("/seen", g.handleMarkAllSeen())

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", g.handleUpsertConversation())
			r.Post("/{id}/seen", g.handleMarkSeen())
			r.Post("/{id}/reply", g.handleReply())
			r.Post("/{id}/focus", g.handleFocus(true))
			r.Delete("/{id}/focus", g.handleFocus(false))
		})

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", g.handleIngestMessage())
			r.Post("/{id}/status", g.handleSetStatus())
		})
	})

	return r
}
