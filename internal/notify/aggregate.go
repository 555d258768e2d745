package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ybtag/GrapheneMessaging/pkg/message"
)

// DefaultLineCap bounds how many lines a conversation retains for rendering.
// The running total keeps counting past the cap.
const DefaultLineCap = 25

// Aggregator rebuilds the in-memory notification model from the store.
type Aggregator struct {
	store   MessageStore
	lineCap int
	logger  *slog.Logger
}

// NewAggregator creates an Aggregator. lineCap <= 0 selects DefaultLineCap.
func NewAggregator(store MessageStore, lineCap int, logger *slog.Logger) *Aggregator {
	if lineCap <= 0 {
		lineCap = DefaultLineCap
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		store:   store,
		lineCap: lineCap,
		logger:  logger.With("component", "aggregator"),
	}
}

// ConversationsList scans all unseen inbound messages and groups them into
// per-conversation buckets, returning nil when there is nothing to notify.
//
// Rows arrive ordered by conversation (most recently active first) and, within
// a conversation, by timestamp ascending; row order therefore never implies
// recency, and the max timestamp is tracked explicitly. Conversation metadata
// is fetched exactly once per conversation per cycle, on first sight of its
// id. A row referencing a conversation missing from the store aborts the whole
// cycle: the scan and the store are inconsistent.
func (a *Aggregator) ConversationsList(ctx context.Context) (*ConversationsList, error) {
	rows, err := a.store.QueryUnseenMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("notify: query unseen messages: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	a.logger.Debug("found unseen messages", "rows", len(rows))

	byID := make(map[string]*Conversation)
	var ordered []*Conversation
	resolver := &nameResolver{store: a.store}
	total := 0

	for _, row := range rows {
		conv := byID[row.ConversationID]
		if conv == nil {
			info, err := a.store.ConversationMetadata(ctx, row.ConversationID)
			if err != nil {
				return nil, fmt.Errorf("notify: conversation %s: %w", row.ConversationID, err)
			}
			conv = &Conversation{
				ID:                  info.ID,
				IsGroup:             info.IsGroup,
				GroupName:           info.Title,
				IncludesEmail:       info.IncludesEmail,
				SelfID:              info.SelfID,
				RingtoneURI:         info.RingtoneURI,
				NotificationEnabled: info.NotificationEnabled,
				VibrationEnabled:    info.VibrationEnabled,
				SubID:               info.SubID,
				ParticipantCount:    info.ParticipantCount,
				IconURI:             info.IconURI,
			}
			byID[conv.ID] = conv
			ordered = append(ordered, conv)
		}

		name, err := a.resolveAuthor(ctx, resolver, conv, row)
		if err != nil {
			return nil, fmt.Errorf("notify: participants of %s: %w", row.ConversationID, err)
		}

		line := buildLine(row, name)
		conv.Lines = append(conv.Lines, line)
		conv.TotalMessageCount++
		if line.Timestamp > conv.ReceivedTimestamp {
			conv.ReceivedTimestamp = line.Timestamp
		}
		total++
	}

	for _, conv := range ordered {
		conv.Lines = newestFirst(conv.Lines, a.lineCap)
	}
	return &ConversationsList{MessageCount: total, Conversations: ordered}, nil
}

// resolveAuthor computes the display name for a row's author. Group chats
// fall back from first to full name without touching the participant table.
// One-to-one chats escalate ambiguous first names to full names and fall back
// to the conversation title when the row carries no name at all.
func (a *Aggregator) resolveAuthor(ctx context.Context, resolver *nameResolver, conv *Conversation, row message.Row) (string, error) {
	first := row.AuthorFirstName
	full := row.AuthorFullName

	if conv.IsGroup {
		if first == "" {
			// The full name might be empty as well; showing no author beats
			// repeating the group title on every line.
			first = full
		}
	} else {
		counts, err := resolver.countsFor(ctx, conv.ID)
		if err != nil {
			return "", err
		}
		if counts[first] > 1 {
			first = full
		}
		if full == "" {
			full = conv.GroupName
		}
		if first == "" {
			first = conv.GroupName
		}
	}

	if full != "" {
		return full, nil
	}
	return first, nil
}

// newestFirst reverses a scan-ordered (oldest first) line slice into render
// order and truncates it to the retention cap, keeping the newest lines.
func newestFirst(lines []MessageLine, limit int) []MessageLine {
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	if len(lines) > limit {
		lines = lines[:limit]
	}
	return lines
}
