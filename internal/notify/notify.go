// Package notify implements the notification aggregation and dispatch engine.
// It scans the persisted message store for unseen and failed messages, groups
// them into a bounded, ordered in-memory model, merges that model against
// whatever the notification shelf currently shows, and decides tagging,
// cancellation, and channel routing for the resulting alerts.
//
// A three level structure coalesces the store data, from bottom to top:
//
//  1. MessageLine: a single message that needs to be notified.
//  2. Conversation: the lines of a single conversation, newest first.
//  3. ConversationsList: all conversations plus the total unseen count.
//
// The engine owns no persistence and no transport; it consumes the narrow
// interfaces below and treats the shelf as external, partially observable
// state that must be re-read fresh before every merge.
package notify

import (
	"context"

	"github.com/ybtag/GrapheneMessaging/pkg/message"
)

// Scope is a bitmask of independent notification classes reconsidered by an
// Update call.
type Scope int

// Scope values.
const (
	ScopeMessages Scope = 1 << iota
	ScopeErrors
)

// Scope aliases.
const (
	ScopeNone Scope = 0
	ScopeAll        = ScopeMessages | ScopeErrors
)

// NotificationType identifies a class of notifications on the shelf.
type NotificationType int

// Notification types. The values double as the base for pending-action
// request codes, so they must stay distinct.
const (
	TypeMessage NotificationType = 1
	TypeError   NotificationType = 2
)

// MessageStore is the read-mostly contract with the message database.
// QueryUnseenMessages returns rows ordered by conversation (most recent
// conversation first) and, within a conversation, by timestamp ascending.
type MessageStore interface {
	QueryUnseenMessages(ctx context.Context) ([]message.Row, error)

	// ConversationMetadata returns the metadata for one conversation, or an
	// error wrapping message.ErrNoConversation when the id is unknown.
	ConversationMetadata(ctx context.Context, conversationID string) (*message.ConversationInfo, error)

	Participants(ctx context.Context, conversationID string) ([]message.Participant, error)

	// QueryFailedMessages returns unseen send-failed and download-failed rows
	// ordered by conversation, then timestamp ascending.
	QueryFailedMessages(ctx context.Context) ([]message.Row, error)

	MarkConversationSeen(ctx context.Context, conversationID string) error
	MarkAllSeen(ctx context.Context) error
}

// PresenceOracle reports whether the user is currently viewing, or otherwise
// aware of, a conversation. Observable conversations get a soft sound instead
// of a visual notification.
type PresenceOracle interface {
	IsObservable(conversationID string) bool
}

// AvatarResolver fetches avatar bitmaps. A failed fetch degrades the
// notification (no icon); it never blocks the rest of the pipeline.
type AvatarResolver interface {
	RequestBitmap(ctx context.Context, uri string) ([]byte, error)
}

// SoundPlayer plays a notification sound at the given volume fraction.
// Silent-mode handling belongs to the implementation.
type SoundPlayer interface {
	Play(uri string, volume float64)
}

// RoleOracle reports whether this process holds the role required to manage
// the message store. Without the role the engine posts nothing.
type RoleOracle interface {
	HoldsMessagingRole() bool
}

// StaticRole is a RoleOracle with a fixed answer, useful for configuration
// driven deployments and tests.
type StaticRole bool

// HoldsMessagingRole implements RoleOracle.
func (r StaticRole) HoldsMessagingRole() bool { return bool(r) }

// ActionKind discriminates the pending actions attached to a notification.
type ActionKind string

// Action kinds.
const (
	ActionContent      ActionKind = "content"
	ActionClear        ActionKind = "clear"
	ActionReply        ActionKind = "reply"
	ActionDownload     ActionKind = "download"
	ActionConversation ActionKind = "conversations"
)

// PendingAction is an opaque handle produced by the ActionFactory. The engine
// only guarantees unique, stable request codes per action kind per
// notification instance; the target is meaningful to the factory alone.
type PendingAction struct {
	Kind        ActionKind `json:"kind"`
	RequestCode int        `json:"request_code"`
	Target      string     `json:"target,omitempty"`
}

// ActionFactory builds the pending actions wired into posted notifications.
type ActionFactory interface {
	// Conversation routes into a single conversation.
	Conversation(requestCode int, conversationID string) PendingAction
	// ConversationList routes to the conversation list.
	ConversationList(requestCode int) PendingAction
	// Clear is invoked when the user dismisses the notification.
	Clear(requestCode int, scope Scope, conversationID string) PendingAction
	// Reply is the inline-reply action for a conversation.
	Reply(requestCode int, conversationID string) PendingAction
	// Download triggers a manual download for one message.
	Download(messageID string) PendingAction
}

// RenderedLine is one message line as rendered on the shelf. Its timestamp is
// the line's identity during merge: same timestamp, same line.
type RenderedLine struct {
	AuthorID  string `json:"author_id,omitempty"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Avatar    []byte `json:"avatar,omitempty"`
	ImageURI  string `json:"image_uri,omitempty"`
}

// Importance is a channel's notification importance.
type Importance int

// Importance levels.
const (
	ImportanceNone    Importance = 0
	ImportanceLow     Importance = 2
	ImportanceDefault Importance = 3
	ImportanceHigh    Importance = 4
)

// ChannelSpec describes a notification channel: shared importance, sound and
// vibration for the notifications routed through it.
type ChannelSpec struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Importance Importance `json:"importance"`
	SoundURI   string     `json:"sound_uri,omitempty"`
	Vibrate    bool       `json:"vibrate"`
}

// Notification is the value posted to the shelf for one tag.
type Notification struct {
	Tag       string           `json:"tag"`
	Type      NotificationType `json:"type"`
	ChannelID string           `json:"channel_id"`
	Title     string           `json:"title,omitempty"`
	Body      string           `json:"body,omitempty"`
	Group     bool             `json:"group,omitempty"`
	When      int64            `json:"when"`
	SoundURI  string           `json:"sound_uri,omitempty"`
	AlertOnce bool             `json:"alert_once,omitempty"`
	Lines     []RenderedLine   `json:"lines,omitempty"`
	Actions   []PendingAction  `json:"actions,omitempty"`
}

// Shelf is the live, OS-owned collection of displayed notifications and their
// channels. It is mutated by multiple uncoordinated triggers; the engine never
// assumes its state is unchanged since the last read.
type Shelf interface {
	// Post shows or replaces the notification stored under (tag, type).
	Post(tag string, typ NotificationType, n *Notification)
	// Cancel removes the notification under (tag, type), if any.
	Cancel(tag string, typ NotificationType)
	// ActiveTags enumerates the tags of all currently shown notifications.
	ActiveTags() []string
	// Active returns a point-in-time copy of the notification under tag.
	Active(tag string) (*Notification, bool)
	// EnsureChannel creates or updates a channel. Idempotent.
	EnsureChannel(spec ChannelSpec)
	// Channel returns the current spec of a channel, if it exists.
	Channel(id string) (ChannelSpec, bool)
	// DeleteChannel removes a channel.
	DeleteChannel(id string)
}
