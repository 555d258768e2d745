package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ybtag/GrapheneMessaging/internal/notify"
	"github.com/ybtag/GrapheneMessaging/internal/shelf"
)

// handleWebSocket streams shelf events to a connected client. On connect the
// client receives a snapshot of the active notifications, then live events
// until either side closes.
func (g *Gateway) handleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			g.logger.Debug("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		events, cancel := g.shelf.Subscribe()
		defer cancel()

		// Snapshot first so the client renders current state before deltas.
		for _, n := range g.shelf.Snapshot() {
			if err := writeEvent(ctx, conn, snapshotEvent(n)); err != nil {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := writeEvent(ctx, conn, ev); err != nil {
					g.logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		}
	}
}

// snapshotEvent wraps an already-active notification as a posted event.
func snapshotEvent(n *notify.Notification) shelf.Event {
	return shelf.Event{Kind: shelf.EventPosted, Tag: n.Tag, Notification: n}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev any) error {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(writeCtx, conn, ev)
}
