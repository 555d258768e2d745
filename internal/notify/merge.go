package notify

import (
	"context"
	"log/slog"
	"math"

	"github.com/ybtag/GrapheneMessaging/pkg/message"
)

// Merger reconciles a freshly aggregated conversation against the
// notification the shelf currently shows for the same tag. The prior
// notification's rendered lines are ground truth for what the user has
// already seen, identified per line by timestamp.
type Merger struct {
	avatars AvatarResolver
	logger  *slog.Logger
}

// NewMerger creates a Merger. avatars may be nil, in which case lines are
// rendered without icons.
func NewMerger(avatars AvatarResolver, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{
		avatars: avatars,
		logger:  logger.With("component", "merger"),
	}
}

// Merge returns the full ordered line collection to render for conv, given
// the active shelf notification for its tag (nil when absent). The second
// return value is false when nothing visible changed and the caller must skip
// posting.
//
// The merge never drops a line the user has already seen and never duplicates
// a line already present: a new line is appended only when its timestamp is
// strictly newer than the newest rendered one. When even the newest scanned
// line is at or below that threshold the whole update is a no-op. Survivors
// are appended in chronological order so the shelf renders newest-last.
func (m *Merger) Merge(ctx context.Context, conv *Conversation, active *Notification) ([]RenderedLine, bool) {
	threshold := int64(math.MinInt64)
	var merged []RenderedLine
	if active != nil {
		if len(active.Lines) == 0 {
			// An "active" notification can have been dismissed underneath us
			// and come back hollow; without rendered lines there is no ground
			// truth to merge against.
			m.logger.Error("active notification has no lines", "tag", active.Tag)
			return nil, false
		}
		merged = append(merged, active.Lines...)
		threshold = active.Lines[len(active.Lines)-1].Timestamp
	}

	appended := 0
	// conv.Lines is newest-first; walk oldest to newest.
	for i := len(conv.Lines) - 1; i >= 0; i-- {
		line := conv.Lines[i]
		if line.Timestamp <= threshold {
			if i == 0 {
				// Even the newest line is already displayed, so nothing in
				// this batch can be new.
				return nil, false
			}
			continue
		}
		merged = append(merged, m.render(ctx, line))
		appended++
	}
	if appended == 0 {
		return nil, false
	}
	return merged, true
}

// render converts one MessageLine to its shelf representation, attaching the
// avatar bitmap when it resolves. A failed avatar fetch degrades to no icon.
func (m *Merger) render(ctx context.Context, line MessageLine) RenderedLine {
	rendered := RenderedLine{
		AuthorID:  line.AuthorID,
		Author:    line.AuthorName,
		Text:      line.Text,
		Timestamp: line.Timestamp,
	}
	attachment := message.Attachment{URI: line.AttachmentURI, MIMEType: line.AttachmentType}
	if line.AttachmentURI != "" && attachment.IsImage() {
		rendered.ImageURI = line.AttachmentURI
	}
	if m.avatars != nil && line.AvatarURI != "" {
		bitmap, err := m.avatars.RequestBitmap(ctx, line.AvatarURI)
		if err != nil {
			m.logger.Debug("avatar fetch failed", "uri", line.AvatarURI, "error", err)
		} else {
			rendered.Avatar = bitmap
		}
	}
	return rendered
}
