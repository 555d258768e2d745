package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ybtag/GrapheneMessaging/pkg/message"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "messages.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedConversation(t *testing.T, s *Store, id string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.UpsertConversation(ctx, &message.ConversationInfo{
		ID:                  id,
		Title:               "Alex Kim",
		SelfID:              "self",
		NotificationEnabled: true,
	}))
	require.NoError(t, s.UpsertParticipant(ctx, message.Participant{
		ID: "p1", FullName: "Alex Kim", FirstName: "Alex",
	}))
	require.NoError(t, s.UpsertParticipant(ctx, message.Participant{
		ID: "self", FullName: "Me", IsSelf: true,
	}))
	require.NoError(t, s.LinkParticipant(ctx, id, "p1"))
	require.NoError(t, s.LinkParticipant(ctx, id, "self"))
}

func TestOpenMigratesIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.db")

	s1, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// Re-opening must re-apply the schema without error.
	s2, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestQueryUnseenMessages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedConversation(t, s, "c1")
	seedConversation(t, s, "c2")

	// c1 has two unseen messages, c2 one newer message.
	_, err := s.InsertMessage(ctx, message.Row{
		ConversationID: "c1", AuthorID: "p1", Text: "first",
		Timestamp: 100, Status: message.StatusIncomingComplete,
	}, false)
	require.NoError(t, err)
	_, err = s.InsertMessage(ctx, message.Row{
		ConversationID: "c1", AuthorID: "p1", Text: "second",
		Timestamp: 200, Status: message.StatusIncomingComplete,
	}, false)
	require.NoError(t, err)
	_, err = s.InsertMessage(ctx, message.Row{
		ConversationID: "c2", AuthorID: "p1", Text: "newest",
		Timestamp: 300, Status: message.StatusIncomingComplete,
	}, false)
	require.NoError(t, err)

	// Seen, outgoing and draft messages never surface.
	_, err = s.InsertMessage(ctx, message.Row{
		ConversationID: "c1", AuthorID: "p1", Text: "already seen",
		Timestamp: 400, Status: message.StatusIncomingComplete,
	}, true)
	require.NoError(t, err)
	_, err = s.InsertMessage(ctx, message.Row{
		ConversationID: "c1", AuthorID: "self", Text: "my reply",
		Timestamp: 500, Status: message.StatusOutgoingComplete,
	}, false)
	require.NoError(t, err)

	rows, err := s.QueryUnseenMessages(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Most recently active conversation first, timestamps ascending within.
	require.Equal(t, "c2", rows[0].ConversationID)
	require.Equal(t, "c1", rows[1].ConversationID)
	require.Equal(t, int64(100), rows[1].Timestamp)
	require.Equal(t, int64(200), rows[2].Timestamp)

	// Author names come from the participant table.
	require.Equal(t, "Alex Kim", rows[0].AuthorFullName)
	require.Equal(t, "Alex", rows[0].AuthorFirstName)
}

func TestInsertMessageAttachments(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedConversation(t, s, "c1")

	id, err := s.InsertMessage(ctx, message.Row{
		ConversationID: "c1", AuthorID: "p1",
		Timestamp: 100, Status: message.StatusIncomingComplete,
		Attachments: []message.Attachment{
			{URI: "content://vid/1", MIMEType: "video/mp4"},
			{URI: "content://img/1", MIMEType: "image/jpeg"},
		},
	}, false)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rows, err := s.QueryUnseenMessages(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Attachments, 2)
	// Attachments keep insertion order.
	require.Equal(t, "content://vid/1", rows[0].Attachments[0].URI)
	require.Equal(t, "content://img/1", rows[0].Attachments[1].URI)
}

func TestQueryFailedMessages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedConversation(t, s, "c1")

	_, err := s.InsertMessage(ctx, message.Row{
		ConversationID: "c1", AuthorID: "self", Text: "did not go",
		Timestamp: 100, Status: message.StatusOutgoingFailed,
	}, false)
	require.NoError(t, err)
	_, err = s.InsertMessage(ctx, message.Row{
		ConversationID: "c1", AuthorID: "p1",
		Timestamp: 200, Status: message.StatusIncomingDownloadFailed,
	}, false)
	require.NoError(t, err)
	_, err = s.InsertMessage(ctx, message.Row{
		ConversationID: "c1", AuthorID: "p1", Text: "fine",
		Timestamp: 300, Status: message.StatusIncomingComplete,
	}, false)
	require.NoError(t, err)

	rows, err := s.QueryFailedMessages(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, message.StatusOutgoingFailed, rows[0].Status)
	require.Equal(t, message.StatusIncomingDownloadFailed, rows[1].Status)
}

func TestMarkSeen(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedConversation(t, s, "c1")
	seedConversation(t, s, "c2")

	_, err := s.InsertMessage(ctx, message.Row{
		ConversationID: "c1", AuthorID: "p1", Text: "one",
		Timestamp: 100, Status: message.StatusIncomingComplete,
	}, false)
	require.NoError(t, err)
	_, err = s.InsertMessage(ctx, message.Row{
		ConversationID: "c2", AuthorID: "p1", Text: "two",
		Timestamp: 200, Status: message.StatusIncomingComplete,
	}, false)
	require.NoError(t, err)

	require.NoError(t, s.MarkConversationSeen(ctx, "c1"))
	rows, err := s.QueryUnseenMessages(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "c2", rows[0].ConversationID)

	require.NoError(t, s.MarkAllSeen(ctx))
	rows, err = s.QueryUnseenMessages(ctx)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestConversationMetadata(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedConversation(t, s, "c1")

	info, err := s.ConversationMetadata(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "Alex Kim", info.Title)
	require.True(t, info.NotificationEnabled)
	require.Equal(t, 2, info.ParticipantCount)

	_, err = s.ConversationMetadata(ctx, "ghost")
	require.True(t, errors.Is(err, message.ErrNoConversation))
}

func TestSetMessageStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedConversation(t, s, "c1")

	id, err := s.InsertMessage(ctx, message.Row{
		ConversationID: "c1", AuthorID: "self", Text: "sending",
		Timestamp: 100, Status: message.StatusOutgoingComplete,
	}, true)
	require.NoError(t, err)

	require.NoError(t, s.SetMessageStatus(ctx, id, message.StatusOutgoingFailed))
	rows, err := s.QueryFailedMessages(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, id, rows[0].MessageID)

	require.Error(t, s.SetMessageStatus(ctx, "no-such-id", message.StatusOutgoingFailed))
}

func TestParticipants(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedConversation(t, s, "c1")

	participants, err := s.Participants(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, participants, 2)

	participants, err = s.Participants(ctx, "empty")
	require.NoError(t, err)
	require.Empty(t, participants)
}
