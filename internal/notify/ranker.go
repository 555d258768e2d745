package notify

import "github.com/ybtag/GrapheneMessaging/pkg/message"

// MostInterestingAttachment selects the single attachment worth showing in a
// notification. By order of importance when a message carries several:
//
//  1. an image (it can be rendered inline as a big picture)
//  2. a video (a frame can be rendered the same way)
//  3. an audio clip
//  4. a contact card
//
// Ties within a kind keep the first attachment encountered. The second return
// value is false when none of the ranked kinds is present.
func MostInterestingAttachment(attachments []message.Attachment) (message.Attachment, bool) {
	var image, video, audio, vcard *message.Attachment

	// Nearly every message has zero or one part; slideshows are rare.
	for i := range attachments {
		a := &attachments[i]
		switch {
		case a.IsImage():
			if image == nil {
				image = a
			}
		case a.IsVideo():
			if video == nil {
				video = a
			}
		case a.IsAudio():
			if audio == nil {
				audio = a
			}
		case a.IsVCard():
			if vcard == nil {
				vcard = a
			}
		}
	}

	for _, pick := range []*message.Attachment{image, video, audio, vcard} {
		if pick != nil {
			return *pick, true
		}
	}
	return message.Attachment{}, false
}
