package gateway

import (
	"net/url"

	"github.com/ybtag/GrapheneMessaging/internal/notify"
)

// Actions builds pending actions whose targets are gateway API paths, so a
// client mirroring the shelf can invoke them directly.
type Actions struct{}

var _ notify.ActionFactory = Actions{}

// Conversation implements notify.ActionFactory.
func (Actions) Conversation(requestCode int, conversationID string) notify.PendingAction {
	return notify.PendingAction{
		Kind:        notify.ActionContent,
		RequestCode: requestCode,
		Target:      "/conversations/" + url.PathEscape(conversationID),
	}
}

// ConversationList implements notify.ActionFactory.
func (Actions) ConversationList(requestCode int) notify.PendingAction {
	return notify.PendingAction{
		Kind:        notify.ActionConversation,
		RequestCode: requestCode,
		Target:      "/conversations",
	}
}

// Clear implements notify.ActionFactory. The target is the seen endpoint that
// dismissal should hit.
func (Actions) Clear(requestCode int, scope notify.Scope, conversationID string) notify.PendingAction {
	target := "/api/seen"
	if conversationID != "" {
		target = "/api/conversations/" + url.PathEscape(conversationID) + "/seen"
	}
	return notify.PendingAction{
		Kind:        notify.ActionClear,
		RequestCode: requestCode,
		Target:      target,
	}
}

// Reply implements notify.ActionFactory.
func (Actions) Reply(requestCode int, conversationID string) notify.PendingAction {
	return notify.PendingAction{
		Kind:        notify.ActionReply,
		RequestCode: requestCode,
		Target:      "/api/conversations/" + url.PathEscape(conversationID) + "/reply",
	}
}

// Download implements notify.ActionFactory.
func (Actions) Download(messageID string) notify.PendingAction {
	return notify.PendingAction{
		Kind:   notify.ActionDownload,
		Target: "/api/messages/" + url.PathEscape(messageID) + "/status",
	}
}
