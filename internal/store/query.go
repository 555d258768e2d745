package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ybtag/GrapheneMessaging/pkg/message"
)

// QueryUnseenMessages returns all unseen inbound messages: conversations
// ordered most recently active first, messages within a conversation by
// timestamp ascending. Failed and outgoing messages are excluded; they belong
// to the error lane.
func (s *Store) QueryUnseenMessages(ctx context.Context) ([]message.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.conversation_id, m.author_id,
		       COALESCE(p.full_name, ''), COALESCE(p.first_name, ''), COALESCE(p.avatar_uri, ''),
		       m.text, m.subject, m.timestamp, m.status
		FROM messages m
		LEFT JOIN participants p ON p.id = m.author_id
		JOIN (
			SELECT conversation_id, MAX(timestamp) AS latest
			FROM messages
			WHERE seen = 0 AND status IN (?, ?)
			GROUP BY conversation_id
		) recent ON recent.conversation_id = m.conversation_id
		WHERE m.seen = 0 AND m.status IN (?, ?)
		ORDER BY recent.latest DESC, m.conversation_id, m.timestamp ASC`,
		string(message.StatusIncomingComplete), string(message.StatusIncomingManualDownload),
		string(message.StatusIncomingComplete), string(message.StatusIncomingManualDownload),
	)
	if err != nil {
		return nil, fmt.Errorf("store: query unseen: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return s.scanRows(ctx, rows)
}

// QueryFailedMessages returns unseen send-failed and download-failed rows
// ordered by conversation, then timestamp ascending.
func (s *Store) QueryFailedMessages(ctx context.Context) ([]message.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.conversation_id, m.author_id,
		       COALESCE(p.full_name, ''), COALESCE(p.first_name, ''), COALESCE(p.avatar_uri, ''),
		       m.text, m.subject, m.timestamp, m.status
		FROM messages m
		LEFT JOIN participants p ON p.id = m.author_id
		WHERE m.seen = 0 AND m.status IN (?, ?)
		ORDER BY m.conversation_id, m.timestamp ASC`,
		string(message.StatusOutgoingFailed), string(message.StatusIncomingDownloadFailed),
	)
	if err != nil {
		return nil, fmt.Errorf("store: query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return s.scanRows(ctx, rows)
}

// ConversationMetadata returns the metadata for one conversation, or an error
// wrapping message.ErrNoConversation when the id is unknown.
func (s *Store) ConversationMetadata(ctx context.Context, conversationID string) (*message.ConversationInfo, error) {
	var info message.ConversationInfo
	err := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.is_group, c.title, c.includes_email, c.self_id,
		       c.ringtone_uri, c.notification_enabled, c.vibration_enabled,
		       c.sub_id, c.icon_uri,
		       (SELECT COUNT(*) FROM conversation_participants cp WHERE cp.conversation_id = c.id)
		FROM conversations c
		WHERE c.id = ?`,
		conversationID,
	).Scan(
		&info.ID, &info.IsGroup, &info.Title, &info.IncludesEmail, &info.SelfID,
		&info.RingtoneURI, &info.NotificationEnabled, &info.VibrationEnabled,
		&info.SubID, &info.IconURI, &info.ParticipantCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: %s: %w", conversationID, message.ErrNoConversation)
	}
	if err != nil {
		return nil, fmt.Errorf("store: conversation metadata: %w", err)
	}
	return &info, nil
}

// Participants returns the participants of a conversation.
func (s *Store) Participants(ctx context.Context, conversationID string) ([]message.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.full_name, p.first_name, p.avatar_uri, p.is_self
		FROM participants p
		JOIN conversation_participants cp ON cp.participant_id = p.id
		WHERE cp.conversation_id = ?
		ORDER BY p.id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query participants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var participants []message.Participant
	for rows.Next() {
		var p message.Participant
		if err := rows.Scan(&p.ID, &p.FullName, &p.FirstName, &p.AvatarURI, &p.IsSelf); err != nil {
			return nil, fmt.Errorf("store: scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: participant rows: %w", err)
	}
	return participants, nil
}

// scanRows materialises message rows and loads their attachments.
func (s *Store) scanRows(ctx context.Context, rows *sql.Rows) ([]message.Row, error) {
	var (
		result []message.Row
		ids    []any
	)
	for rows.Next() {
		var (
			row    message.Row
			status string
		)
		if err := rows.Scan(
			&row.MessageID, &row.ConversationID, &row.AuthorID,
			&row.AuthorFullName, &row.AuthorFirstName, &row.AvatarURI,
			&row.Text, &row.Subject, &row.Timestamp, &status,
		); err != nil {
			return nil, fmt.Errorf("store: scan message: %w", err)
		}
		row.Status = message.Status(status)
		result = append(result, row)
		ids = append(ids, row.MessageID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: message rows: %w", err)
	}
	if len(result) == 0 {
		return nil, nil
	}

	attachments, err := s.attachmentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Attachments = attachments[result[i].MessageID]
	}
	return result, nil
}

// attachmentsFor loads the parts of the given message ids, keyed by message,
// in insertion order.
func (s *Store) attachmentsFor(ctx context.Context, ids []any) (map[string][]message.Attachment, error) {
	query := "SELECT message_id, uri, content_type FROM parts WHERE message_id IN (?" +
		repeatPlaceholder(len(ids)-1) + ") ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, ids...)
	if err != nil {
		return nil, fmt.Errorf("store: query parts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	attachments := make(map[string][]message.Attachment)
	for rows.Next() {
		var (
			messageID string
			a         message.Attachment
		)
		if err := rows.Scan(&messageID, &a.URI, &a.MIMEType); err != nil {
			return nil, fmt.Errorf("store: scan part: %w", err)
		}
		attachments[messageID] = append(attachments[messageID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: part rows: %w", err)
	}
	return attachments, nil
}

func repeatPlaceholder(n int) string {
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		out = append(out, ',', '?')
	}
	return string(out)
}
