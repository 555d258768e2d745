package message

// Row is one persisted message as returned by the store's notification
// queries. Timestamps are Unix milliseconds; within a conversation they are
// monotonic and serve as the identity used for shelf merge comparison.
type Row struct {
	MessageID       string       `json:"message_id"`
	ConversationID  string       `json:"conversation_id"`
	AuthorID        string       `json:"author_id"`
	AuthorFullName  string       `json:"author_full_name,omitempty"`
	AuthorFirstName string       `json:"author_first_name,omitempty"`
	AvatarURI       string       `json:"avatar_uri,omitempty"`
	Text            string       `json:"text,omitempty"`
	Subject         string       `json:"subject,omitempty"`
	Timestamp       int64        `json:"timestamp"`
	Status          Status       `json:"status"`
	Attachments     []Attachment `json:"attachments,omitempty"`
}

// NeedsManualDownload reports whether the row's content must still be fetched
// by the user.
func (r *Row) NeedsManualDownload() bool {
	return r.Status.NeedsManualDownload()
}
