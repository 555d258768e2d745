package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ybtag/GrapheneMessaging/internal/notify"
	"github.com/ybtag/GrapheneMessaging/pkg/message"
)

// handleListNotifications returns all active notifications as JSON.
func (g *Gateway) handleListNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		notifications := g.shelf.Snapshot()
		if notifications == nil {
			notifications = []*notify.Notification{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(notifications)
	}
}

// updateRequest selects what an explicit update trigger rebuilds.
type updateRequest struct {
	ConversationID string `json:"conversation_id"`
	Scope          string `json:"scope"` // "messages", "errors" or "all"
}

// handleUpdate triggers a notification rebuild.
func (g *Gateway) handleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		scope := notify.ScopeAll
		switch req.Scope {
		case "", "all":
		case "messages":
			scope = notify.ScopeMessages
		case "errors":
			scope = notify.ScopeErrors
		default:
			http.Error(w, "unknown scope "+req.Scope, http.StatusBadRequest)
			return
		}

		if err := g.dispatcher.Update(r.Context(), req.ConversationID, scope); err != nil {
			g.logger.Error("update failed", "error", err)
			http.Error(w, "update failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleMarkAllSeen marks every message seen and clears message notifications.
func (g *Gateway) handleMarkAllSeen() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := g.dispatcher.MarkAllSeen(r.Context()); err != nil {
			g.logger.Error("mark all seen failed", "error", err)
			http.Error(w, "mark seen failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleMarkSeen marks one conversation seen and clears its notification.
func (g *Gateway) handleMarkSeen() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "missing conversation id", http.StatusBadRequest)
			return
		}
		if err := g.dispatcher.MarkSeen(r.Context(), id); err != nil {
			g.logger.Error("mark seen failed", "conversation_id", id, "error", err)
			http.Error(w, "mark seen failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// replyRequest is the body of POST /api/conversations/{id}/reply.
type replyRequest struct {
	Text string `json:"text"`
}

// handleReply persists an inline reply and appends it to the conversation's
// active notification without re-alerting.
func (g *Gateway) handleReply() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req replyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		info, err := g.store.ConversationMetadata(r.Context(), id)
		if err != nil {
			if errors.Is(err, message.ErrNoConversation) {
				http.Error(w, "conversation not found", http.StatusNotFound)
				return
			}
			g.logger.Error("reply lookup failed", "conversation_id", id, "error", err)
			http.Error(w, "reply failed", http.StatusInternalServerError)
			return
		}

		messageID, err := g.store.InsertMessage(r.Context(), message.Row{
			ConversationID: id,
			AuthorID:       info.SelfID,
			Text:           req.Text,
			Timestamp:      nowMillis(),
			Status:         message.StatusOutgoingComplete,
		}, true)
		if err != nil {
			g.logger.Error("reply insert failed", "conversation_id", id, "error", err)
			http.Error(w, "reply failed", http.StatusInternalServerError)
			return
		}

		g.dispatcher.UpdateWithInlineReply(id, req.Text)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"message_id": messageID})
	}
}

// handleFocus records that a client entered (or left) a conversation view.
func (g *Gateway) handleFocus(focus bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "missing conversation id", http.StatusBadRequest)
			return
		}
		if focus {
			g.presence.Focus(id)
		} else {
			g.presence.Blur(id)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// conversationRequest is the body of POST /api/conversations.
type conversationRequest struct {
	message.ConversationInfo
	Participants []message.Participant `json:"participants,omitempty"`
}

// handleUpsertConversation stores conversation metadata and its participants.
func (g *Gateway) handleUpsertConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req conversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		if err := g.store.UpsertConversation(ctx, &req.ConversationInfo); err != nil {
			g.logger.Error("upsert conversation failed", "conversation_id", req.ID, "error", err)
			http.Error(w, "upsert failed", http.StatusInternalServerError)
			return
		}
		for _, p := range req.Participants {
			if err := g.store.UpsertParticipant(ctx, p); err != nil {
				g.logger.Error("upsert participant failed", "participant_id", p.ID, "error", err)
				http.Error(w, "upsert failed", http.StatusInternalServerError)
				return
			}
			if err := g.store.LinkParticipant(ctx, req.ID, p.ID); err != nil {
				g.logger.Error("link participant failed", "participant_id", p.ID, "error", err)
				http.Error(w, "upsert failed", http.StatusInternalServerError)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ingestRequest is the body of POST /api/messages.
type ingestRequest struct {
	message.Row
	Seen bool `json:"seen"`
}

// handleIngestMessage persists an inbound or outbound message and triggers a
// notification rebuild for its conversation.
func (g *Gateway) handleIngestMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ingestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConversationID == "" || req.Status == "" {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Timestamp == 0 {
			req.Timestamp = nowMillis()
		}

		messageID, err := g.store.InsertMessage(r.Context(), req.Row, req.Seen)
		if err != nil {
			g.logger.Error("ingest failed", "conversation_id", req.ConversationID, "error", err)
			http.Error(w, "ingest failed", http.StatusInternalServerError)
			return
		}

		if err := g.dispatcher.Update(r.Context(), req.ConversationID, notify.ScopeAll); err != nil {
			// The message is stored; notifications catch up on the next
			// trigger or sweep.
			g.logger.Error("post-ingest update failed", "conversation_id", req.ConversationID, "error", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"message_id": messageID})
	}
}

// statusRequest is the body of POST /api/messages/{id}/status.
type statusRequest struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
}

// handleSetStatus moves a message to a new delivery status, for example when
// a send fails or a manual download completes, and rebuilds notifications.
func (g *Gateway) handleSetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if err := g.store.SetMessageStatus(r.Context(), id, message.Status(req.Status)); err != nil {
			g.logger.Error("set status failed", "message_id", id, "error", err)
			http.Error(w, "set status failed", http.StatusInternalServerError)
			return
		}

		if err := g.dispatcher.Update(r.Context(), req.ConversationID, notify.ScopeAll); err != nil {
			g.logger.Error("post-status update failed", "message_id", id, "error", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
