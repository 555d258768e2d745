package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ybtag/GrapheneMessaging/pkg/message"
)

// UpsertConversation stores or updates a conversation's metadata.
func (s *Store) UpsertConversation(ctx context.Context, info *message.ConversationInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO conversations
			(id, is_group, title, includes_email, self_id, ringtone_uri,
			 notification_enabled, vibration_enabled, sub_id, icon_uri)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		info.ID, info.IsGroup, info.Title, info.IncludesEmail, info.SelfID,
		info.RingtoneURI, info.NotificationEnabled, info.VibrationEnabled,
		info.SubID, info.IconURI,
	)
	if err != nil {
		return fmt.Errorf("store: upsert conversation: %w", err)
	}
	return nil
}

// UpsertParticipant stores or updates a participant.
func (s *Store) UpsertParticipant(ctx context.Context, p message.Participant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO participants (id, full_name, first_name, avatar_uri, is_self)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.FullName, p.FirstName, p.AvatarURI, p.IsSelf,
	)
	if err != nil {
		return fmt.Errorf("store: upsert participant: %w", err)
	}
	return nil
}

// LinkParticipant adds a participant to a conversation. Idempotent.
func (s *Store) LinkParticipant(ctx context.Context, conversationID, participantID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO conversation_participants (conversation_id, participant_id)
		VALUES (?, ?)`,
		conversationID, participantID,
	)
	if err != nil {
		return fmt.Errorf("store: link participant: %w", err)
	}
	return nil
}

// InsertMessage persists a message and its attachments, returning the message
// id. A blank row id gets a generated one. seen controls whether the engine
// will pick the message up on its next scan.
func (s *Store) InsertMessage(ctx context.Context, row message.Row, seen bool) (string, error) {
	id := row.MessageID
	if id == "" {
		id = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, author_id, text, subject, timestamp, status, seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, row.ConversationID, row.AuthorID, row.Text, row.Subject,
		row.Timestamp, string(row.Status), seen,
	); err != nil {
		return "", fmt.Errorf("store: insert message: %w", err)
	}

	for _, a := range row.Attachments {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO parts (id, message_id, uri, content_type)
			VALUES (?, ?, ?, ?)`,
			uuid.NewString(), id, a.URI, a.MIMEType,
		); err != nil {
			return "", fmt.Errorf("store: insert part: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: commit insert: %w", err)
	}
	return id, nil
}

// SetMessageStatus moves a message to a new delivery status and marks it
// unseen again so the engine reconsiders it.
func (s *Store) SetMessageStatus(ctx context.Context, messageID string, status message.Status) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE messages SET status = ?, seen = 0 WHERE id = ?",
		string(status), messageID,
	)
	if err != nil {
		return fmt.Errorf("store: set status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store: message %s not found", messageID)
	}
	return nil
}

// MarkConversationSeen marks every message of one conversation seen.
func (s *Store) MarkConversationSeen(ctx context.Context, conversationID string) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE messages SET seen = 1 WHERE conversation_id = ?", conversationID,
	); err != nil {
		return fmt.Errorf("store: mark conversation seen: %w", err)
	}
	return nil
}

// MarkAllSeen marks every message in the store seen.
func (s *Store) MarkAllSeen(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE messages SET seen = 1"); err != nil {
		return fmt.Errorf("store: mark all seen: %w", err)
	}
	return nil
}
