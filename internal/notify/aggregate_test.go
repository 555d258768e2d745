package notify

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ybtag/GrapheneMessaging/pkg/message"
)

func oneToOne(id, title, selfID string) *message.ConversationInfo {
	return &message.ConversationInfo{
		ID:                  id,
		Title:               title,
		SelfID:              selfID,
		NotificationEnabled: true,
		ParticipantCount:    2,
	}
}

func TestAggregateGroupsAndOrders(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		// Conversation c2 is the more recently active one; rows within a
		// conversation arrive oldest first.
		unseen: []message.Row{
			{MessageID: "m3", ConversationID: "c2", AuthorID: "p2", AuthorFullName: "Ana Cole", AuthorFirstName: "Ana", Text: "newest conv", Timestamp: 500, Status: message.StatusIncomingComplete},
			{MessageID: "m1", ConversationID: "c1", AuthorID: "p1", AuthorFullName: "Alex Kim", AuthorFirstName: "Alex", Text: "first", Timestamp: 100, Status: message.StatusIncomingComplete},
			{MessageID: "m2", ConversationID: "c1", AuthorID: "p1", AuthorFullName: "Alex Kim", AuthorFirstName: "Alex", Text: "second", Timestamp: 200, Status: message.StatusIncomingComplete},
		},
		conversations: map[string]*message.ConversationInfo{
			"c1": oneToOne("c1", "Alex Kim", "self"),
			"c2": oneToOne("c2", "Ana Cole", "self"),
		},
		participants: map[string][]message.Participant{
			"c1": {
				{ID: "p1", FirstName: "Alex", FullName: "Alex Kim"},
				{ID: "self", FirstName: "Me", IsSelf: true},
			},
			"c2": {
				{ID: "p2", FirstName: "Ana", FullName: "Ana Cole"},
				{ID: "self", FirstName: "Me", IsSelf: true},
			},
		},
	}

	agg := NewAggregator(store, 0, nil)
	list, err := agg.ConversationsList(context.Background())
	if err != nil {
		t.Fatalf("ConversationsList: %v", err)
	}
	if list == nil {
		t.Fatal("list = nil, want two conversations")
	}
	if list.MessageCount != 3 {
		t.Errorf("MessageCount = %d, want 3", list.MessageCount)
	}
	if len(list.Conversations) != 2 {
		t.Fatalf("conversations = %d, want 2", len(list.Conversations))
	}

	// Total lines across conversations must equal the list count.
	lines := 0
	for _, conv := range list.Conversations {
		lines += len(conv.Lines)
	}
	if lines != list.MessageCount {
		t.Errorf("sum of lines = %d, want %d", lines, list.MessageCount)
	}

	// Row order decides conversation order: c2 was scanned first.
	if list.Conversations[0].ID != "c2" {
		t.Errorf("first conversation = %q, want c2", list.Conversations[0].ID)
	}

	c1 := list.Conversations[1]
	if c1.Lines[0].MessageID != "m2" || c1.Lines[1].MessageID != "m1" {
		t.Errorf("c1 lines = [%s %s], want newest first [m2 m1]", c1.Lines[0].MessageID, c1.Lines[1].MessageID)
	}
	if c1.ReceivedTimestamp != 200 {
		t.Errorf("c1 ReceivedTimestamp = %d, want 200", c1.ReceivedTimestamp)
	}
	// Unambiguous author renders with the full name.
	if got := c1.Lines[0].AuthorName; got != "Alex Kim" {
		t.Errorf("author = %q, want Alex Kim", got)
	}
}

func TestAggregateDeterministic(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		unseen: []message.Row{
			{MessageID: "m1", ConversationID: "c1", AuthorFullName: "Alex Kim", Text: "hi", Timestamp: 100, Status: message.StatusIncomingComplete},
			{MessageID: "m2", ConversationID: "c1", AuthorFullName: "Alex Kim", Text: "again", Timestamp: 200, Status: message.StatusIncomingComplete},
		},
		conversations: map[string]*message.ConversationInfo{
			"c1": oneToOne("c1", "Alex Kim", "self"),
		},
	}

	first, err := NewAggregator(store, 0, nil).ConversationsList(context.Background())
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	second, err := NewAggregator(store, 0, nil).ConversationsList(context.Background())
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two scans of identical store state must produce identical lists")
	}
}

func TestAggregateAmbiguousFirstNames(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		unseen: []message.Row{
			{MessageID: "m1", ConversationID: "c1", AuthorID: "p1", AuthorFullName: "Sam Rivera", AuthorFirstName: "Sam", Text: "hi", Timestamp: 100, Status: message.StatusIncomingComplete},
			{MessageID: "m2", ConversationID: "c1", AuthorID: "p2", AuthorFullName: "Sam Ortiz", AuthorFirstName: "Sam", Text: "hey", Timestamp: 200, Status: message.StatusIncomingComplete},
		},
		conversations: map[string]*message.ConversationInfo{
			"c1": oneToOne("c1", "Sams", "self"),
		},
		participants: map[string][]message.Participant{
			"c1": {
				{ID: "p1", FirstName: "Sam", FullName: "Sam Rivera"},
				{ID: "p2", FirstName: "Sam", FullName: "Sam Ortiz"},
				{ID: "self", FirstName: "Me", IsSelf: true},
			},
		},
	}

	list, err := NewAggregator(store, 0, nil).ConversationsList(context.Background())
	if err != nil {
		t.Fatalf("ConversationsList: %v", err)
	}
	conv := list.Conversations[0]
	if got := conv.Lines[0].AuthorName; got != "Sam Ortiz" {
		t.Errorf("newest author = %q, want full name Sam Ortiz", got)
	}
	if got := conv.Lines[1].AuthorName; got != "Sam Rivera" {
		t.Errorf("older author = %q, want full name Sam Rivera", got)
	}
}

func TestAggregateGroupSkipsParticipantLookup(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		unseen: []message.Row{
			{MessageID: "m1", ConversationID: "g1", AuthorID: "p1", AuthorFirstName: "Sam", AuthorFullName: "Sam Rivera", Text: "hi", Timestamp: 100, Status: message.StatusIncomingComplete},
		},
		conversations: map[string]*message.ConversationInfo{
			"g1": {ID: "g1", IsGroup: true, Title: "Weekend Plans", ParticipantCount: 5, NotificationEnabled: true},
		},
		// No participants registered: a group scan must not need them.
	}

	list, err := NewAggregator(store, 0, nil).ConversationsList(context.Background())
	if err != nil {
		t.Fatalf("ConversationsList: %v", err)
	}
	conv := list.Conversations[0]
	if got := conv.Lines[0].AuthorName; got != "Sam Rivera" {
		t.Errorf("author = %q, want Sam Rivera", got)
	}
	if got := conv.Title(); got != "Weekend Plans" {
		t.Errorf("title = %q, want the group name", got)
	}
}

func TestAggregateLineCap(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		conversations: map[string]*message.ConversationInfo{
			"c1": oneToOne("c1", "Alex Kim", "self"),
		},
	}
	for i := 0; i < 8; i++ {
		store.unseen = append(store.unseen, message.Row{
			MessageID:      string(rune('a' + i)),
			ConversationID: "c1",
			AuthorFullName: "Alex Kim",
			Text:           "msg",
			Timestamp:      int64(i + 1),
			Status:         message.StatusIncomingComplete,
		})
	}

	list, err := NewAggregator(store, 3, nil).ConversationsList(context.Background())
	if err != nil {
		t.Fatalf("ConversationsList: %v", err)
	}
	conv := list.Conversations[0]
	if len(conv.Lines) != 3 {
		t.Fatalf("lines = %d, want cap 3", len(conv.Lines))
	}
	// The cap keeps the newest lines.
	if conv.Lines[0].Timestamp != 8 || conv.Lines[2].Timestamp != 6 {
		t.Errorf("kept timestamps [%d..%d], want [8..6]", conv.Lines[0].Timestamp, conv.Lines[2].Timestamp)
	}
	// The count keeps counting past the cap.
	if conv.TotalMessageCount != 8 {
		t.Errorf("TotalMessageCount = %d, want 8", conv.TotalMessageCount)
	}
	if list.MessageCount != 8 {
		t.Errorf("MessageCount = %d, want 8", list.MessageCount)
	}
}

func TestAggregateEmptyStore(t *testing.T) {
	t.Parallel()

	list, err := NewAggregator(&fakeStore{}, 0, nil).ConversationsList(context.Background())
	if err != nil {
		t.Fatalf("ConversationsList: %v", err)
	}
	if list != nil {
		t.Errorf("list = %+v, want nil for an empty store", list)
	}
}

func TestAggregateMissingConversationAborts(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		unseen: []message.Row{
			{MessageID: "m1", ConversationID: "ghost", Text: "hi", Timestamp: 100, Status: message.StatusIncomingComplete},
		},
	}
	_, err := NewAggregator(store, 0, nil).ConversationsList(context.Background())
	if !errors.Is(err, message.ErrNoConversation) {
		t.Fatalf("err = %v, want message.ErrNoConversation", err)
	}
}

func TestAggregateManualDownload(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		unseen: []message.Row{
			{MessageID: "m1", ConversationID: "c1", AuthorFullName: "Alex Kim", Text: "stored body", Timestamp: 100, Status: message.StatusIncomingManualDownload},
		},
		conversations: map[string]*message.ConversationInfo{
			"c1": oneToOne("c1", "Alex Kim", "self"),
		},
	}

	list, err := NewAggregator(store, 0, nil).ConversationsList(context.Background())
	if err != nil {
		t.Fatalf("ConversationsList: %v", err)
	}
	conv := list.Conversations[0]
	if got := conv.Lines[0].Text; got != textManualDownload {
		t.Errorf("text = %q, want the download prompt", got)
	}
	if !conv.LatestNeedsDownload() {
		t.Error("LatestNeedsDownload = false, want true")
	}
}
