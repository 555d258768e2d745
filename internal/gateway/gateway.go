// Package gateway provides the HTTP surface of the notifier daemon: message
// ingest, seen/reply/download operations, shelf inspection, presence, metrics
// and a WebSocket stream that mirrors shelf changes to connected clients.
// It binds to loopback by default.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ybtag/GrapheneMessaging/internal/config"
	"github.com/ybtag/GrapheneMessaging/internal/notify"
	"github.com/ybtag/GrapheneMessaging/internal/shelf"
	"github.com/ybtag/GrapheneMessaging/internal/store"
)

// Gateway is the HTTP server. Construct with New, then Start and Stop.
type Gateway struct {
	config     config.GatewayConfig
	logger     *slog.Logger
	store      *store.Store
	dispatcher *notify.Dispatcher
	shelf      *shelf.Memory
	presence   *Presence
	registry   *prometheus.Registry
	server     *http.Server
	startedAt  time.Time
}

// Deps are the collaborators the gateway exposes over HTTP.
type Deps struct {
	Store      *store.Store
	Dispatcher *notify.Dispatcher
	Shelf      *shelf.Memory
	Presence   *Presence
	Registry   *prometheus.Registry
	Logger     *slog.Logger
}

// New wires a gateway. The registry may be nil, in which case /metrics serves
// an empty set.
func New(cfg config.GatewayConfig, deps Deps) *Gateway {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &Gateway{
		config:     cfg,
		logger:     logger.With("component", "gateway"),
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		shelf:      deps.Shelf,
		presence:   deps.Presence,
		registry:   registry,
	}
}

// Start begins serving. It returns once the listener is bound; serving
// continues on a background goroutine.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// nowMillis is the ingest timestamp clock, Unix milliseconds.
func nowMillis() int64 { return time.Now().UnixMilli() }

// Stop gracefully shuts the server down within the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
