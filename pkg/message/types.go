// Package message defines the data contract between the persisted message
// store and the notification engine. The engine consumes already-typed rows,
// attachments, and conversation metadata; it never touches SQL columns or
// platform cursor positions directly.
package message

import (
	"errors"
	"strings"
)

// Status describes the delivery state of a persisted message.
type Status string

// Message statuses surfaced to the notification engine.
const (
	// StatusIncomingComplete is a fully received inbound message.
	StatusIncomingComplete Status = "incoming_complete"
	// StatusIncomingManualDownload is an inbound MMS push whose content has
	// not been fetched yet; the user must trigger the download.
	StatusIncomingManualDownload Status = "incoming_manual_download"
	// StatusIncomingDownloadFailed is an inbound message whose automatic or
	// manual download failed.
	StatusIncomingDownloadFailed Status = "incoming_download_failed"
	// StatusOutgoingComplete is a sent message.
	StatusOutgoingComplete Status = "outgoing_complete"
	// StatusOutgoingFailed is a message that could not be sent.
	StatusOutgoingFailed Status = "outgoing_failed"
	// StatusOutgoingDraft is an unsent draft. Never notified.
	StatusOutgoingDraft Status = "outgoing_draft"
)

// IsIncoming reports whether the status belongs to a received message.
func (s Status) IsIncoming() bool {
	switch s {
	case StatusIncomingComplete, StatusIncomingManualDownload, StatusIncomingDownloadFailed:
		return true
	default:
		return false
	}
}

// IsFailed reports whether the status represents a send or download failure.
func (s Status) IsFailed() bool {
	return s == StatusOutgoingFailed || s == StatusIncomingDownloadFailed
}

// NeedsManualDownload reports whether the message content still has to be
// fetched by the user.
func (s Status) NeedsManualDownload() bool {
	return s == StatusIncomingManualDownload
}

// ErrNoConversation indicates a message row references a conversation that is
// absent from the store. The scan and the store are inconsistent; callers must
// treat this as a programming invariant violation, not a user-facing error.
var ErrNoConversation = errors.New("message: conversation not found")

// Attachment is one media part of a message.
type Attachment struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mime_type"`
}

// IsImage reports whether the attachment is an image.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MIMEType, "image/")
}

// IsVideo reports whether the attachment is a video.
func (a Attachment) IsVideo() bool {
	return strings.HasPrefix(a.MIMEType, "video/")
}

// IsAudio reports whether the attachment is an audio clip.
func (a Attachment) IsAudio() bool {
	return strings.HasPrefix(a.MIMEType, "audio/") || a.MIMEType == "application/ogg"
}

// IsVCard reports whether the attachment is a contact card.
func (a Attachment) IsVCard() bool {
	switch a.MIMEType {
	case "text/x-vcard", "text/vcard":
		return true
	default:
		return false
	}
}
