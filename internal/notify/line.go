package notify

import "github.com/ybtag/GrapheneMessaging/pkg/message"

// buildLine converts one store row plus its resolved author display name into
// a renderable MessageLine.
//
// Text resolution order: a manual-download row forces the fixed download
// prompt regardless of stored body text; otherwise an MMS subject is prepended
// above the body; an empty body with an attachment substitutes the localized
// attachment label; with neither body nor attachment the generic unsupported
// placeholder is used.
func buildLine(row message.Row, authorName string) MessageLine {
	line := MessageLine{
		MessageID:      row.MessageID,
		AuthorID:       row.AuthorID,
		AuthorName:     authorName,
		Timestamp:      row.Timestamp,
		AvatarURI:      row.AvatarURI,
		ManualDownload: row.NeedsManualDownload(),
	}

	if attachment, ok := MostInterestingAttachment(row.Attachments); ok {
		line.AttachmentURI = attachment.URI
		line.AttachmentType = attachment.MIMEType
	}

	text := row.Text
	if line.ManualDownload {
		text = textManualDownload
	}
	if row.Subject != "" {
		text = subjectText(row.Subject, text)
	}
	if text == "" {
		if len(row.Attachments) > 0 {
			text = attachmentLabel(firstAttachment(row.Attachments))
		} else {
			text = textUnsupportedFile
		}
	}
	line.Text = text

	return line
}

// firstAttachment prefers the ranked attachment for labeling, falling back to
// the raw first part when no ranked kind is present.
func firstAttachment(attachments []message.Attachment) message.Attachment {
	if a, ok := MostInterestingAttachment(attachments); ok {
		return a
	}
	return attachments[0]
}
