package notify

import (
	"fmt"

	"github.com/ybtag/GrapheneMessaging/pkg/message"
)

// Display strings used when the store carries no renderable text. Kept in one
// place so a localization layer can swap them wholesale.
const (
	textManualDownload  = "Tap to download"
	textUnsupportedFile = "Unsupported file"
	textPicture         = "Picture"
	textVideo           = "Video"
	textAudio           = "Audio message"
	textVCard           = "Contact card"
	textFile            = "File"
	textSelf            = "Me"

	textReplyPrompt   = "Reply"
	textDownloadPrompt = "Download"

	textSendFailureOne      = "Message not sent"
	textDownloadFailureOne  = "Message not downloaded"
	textSendFailureMany     = "Messages not sent"
	textDownloadFailureMany = "Messages not downloaded"
)

// attachmentLabel returns the placeholder text for a message whose body is
// empty but carries an attachment. An unknown or blank content type is assumed
// to be an image, the first attachment kind the app ever supported.
func attachmentLabel(a message.Attachment) string {
	switch {
	case a.IsAudio():
		return textAudio
	case a.IsVideo():
		return textVideo
	case a.IsVCard():
		return textVCard
	case a.IsImage(), a.MIMEType == "":
		return textPicture
	default:
		return textFile
	}
}

// subjectText prepends the localized subject header to the message body.
func subjectText(subject, body string) string {
	if body == "" {
		return fmt.Sprintf("Subject: %s", subject)
	}
	return fmt.Sprintf("Subject: %s\n%s", subject, body)
}

// failureTitle returns the title for a failed-message notification. The kind
// follows the status of the last examined failed row.
func failureTitle(status message.Status, plural bool) string {
	download := status == message.StatusIncomingDownloadFailed
	switch {
	case download && plural:
		return textDownloadFailureMany
	case download:
		return textDownloadFailureOne
	case plural:
		return textSendFailureMany
	default:
		return textSendFailureOne
	}
}

// failureSummary describes a coalesced set of failures across conversations.
func failureSummary(messages, conversations int) string {
	if conversations == 1 {
		return fmt.Sprintf("%d messages failed", messages)
	}
	return fmt.Sprintf("%d messages failed in %d conversations", messages, conversations)
}
