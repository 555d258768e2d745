package notify

import "math"

// Request-code offsets from a state's base request code. The three pending
// actions of a message notification must never collide within one state.
const (
	contentRequestCodeOffset = 0
	clearRequestCodeOffset   = 1
	replyRequestCodeOffset   = 2
)

// MessageLine is one message to render in a notification: resolved author,
// display text, optional attachment and avatar references. Immutable once
// built; owned exclusively by its parent Conversation.
type MessageLine struct {
	MessageID      string
	AuthorID       string
	AuthorName     string
	Text           string
	Timestamp      int64
	AttachmentURI  string
	AttachmentType string
	AvatarURI      string
	ManualDownload bool
}

// Conversation groups the notification lines of a single conversation.
// Lines are strictly time-descending (newest first) and size-bounded;
// TotalMessageCount keeps counting past the bound.
type Conversation struct {
	ID                  string
	IsGroup             bool
	GroupName           string
	IncludesEmail       bool
	ReceivedTimestamp   int64
	SelfID              string
	RingtoneURI         string
	NotificationEnabled bool
	VibrationEnabled    bool
	SubID               int
	ParticipantCount    int
	IconURI             string
	Lines               []MessageLine
	TotalMessageCount   int
}

// LatestMessageID returns the id of the newest retained line, or "" when the
// conversation holds no lines.
func (c *Conversation) LatestMessageID() string {
	if len(c.Lines) == 0 {
		return ""
	}
	return c.Lines[0].MessageID
}

// LatestNeedsDownload reports whether the newest retained line still needs a
// manual download, which adds a download action to the posted notification.
func (c *Conversation) LatestNeedsDownload() bool {
	if len(c.Lines) == 0 {
		return false
	}
	return c.Lines[0].ManualDownload
}

// Title returns the conversation's notification title: the group name for
// group chats, otherwise the author of the newest line.
func (c *Conversation) Title() string {
	if c.IsGroup {
		return c.GroupName
	}
	if len(c.Lines) == 0 {
		return c.GroupName
	}
	return c.Lines[0].AuthorName
}

// ConversationsList is the aggregate across all conversations: the total
// unseen message count plus the conversations ordered by descending recency of
// their latest unseen message. Rebuilt on every cycle, never mutated after
// construction.
type ConversationsList struct {
	MessageCount  int
	Conversations []*Conversation
}

// State wraps one ConversationsList with dispatch bookkeeping. Created fresh
// on each scan and discarded after the corresponding post or cancel call.
type State struct {
	List            *ConversationsList
	Type            NotificationType
	Canceled        bool
	BaseRequestCode int

	latestTimestamp int64
}

// NewState builds the dispatch state for a scanned conversations list.
func NewState(list *ConversationsList) *State {
	s := &State{
		List:            list,
		Type:            TypeMessage,
		latestTimestamp: math.MinInt64,
	}
	if list != nil {
		for _, conv := range list.Conversations {
			if conv.ReceivedTimestamp > s.latestTimestamp {
				s.latestTimestamp = conv.ReceivedTimestamp
			}
		}
	}
	return s
}

// LatestReceivedTimestamp returns the newest timestamp across the whole list.
func (s *State) LatestReceivedTimestamp() int64 { return s.latestTimestamp }

// ContentRequestCode is the request code of the content-tap action.
func (s *State) ContentRequestCode() int { return s.BaseRequestCode + contentRequestCodeOffset }

// ClearRequestCode is the request code of the swipe-to-clear action.
func (s *State) ClearRequestCode() int { return s.BaseRequestCode + clearRequestCodeOffset }

// ReplyRequestCode is the request code of the inline-reply action.
func (s *State) ReplyRequestCode() int { return s.BaseRequestCode + replyRequestCodeOffset }

// RingtoneURI returns the custom ringtone of the most recent conversation,
// or "" when none is configured.
func (s *State) RingtoneURI() string {
	if s.List != nil && len(s.List.Conversations) > 0 {
		return s.List.Conversations[0].RingtoneURI
	}
	return ""
}
