package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/ybtag/GrapheneMessaging/pkg/message"
)

// fakeStore is an in-memory MessageStore for tests.
type fakeStore struct {
	unseen        []message.Row
	failed        []message.Row
	conversations map[string]*message.ConversationInfo
	participants  map[string][]message.Participant

	unseenErr error
	failedErr error

	mu      sync.Mutex
	seen    []string
	allSeen bool
}

func (s *fakeStore) QueryUnseenMessages(ctx context.Context) ([]message.Row, error) {
	if s.unseenErr != nil {
		return nil, s.unseenErr
	}
	return s.unseen, nil
}

func (s *fakeStore) ConversationMetadata(ctx context.Context, conversationID string) (*message.ConversationInfo, error) {
	info, ok := s.conversations[conversationID]
	if !ok {
		return nil, message.ErrNoConversation
	}
	return info, nil
}

func (s *fakeStore) Participants(ctx context.Context, conversationID string) ([]message.Participant, error) {
	return s.participants[conversationID], nil
}

func (s *fakeStore) QueryFailedMessages(ctx context.Context) ([]message.Row, error) {
	if s.failedErr != nil {
		return nil, s.failedErr
	}
	return s.failed, nil
}

func (s *fakeStore) MarkConversationSeen(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, conversationID)
	return nil
}

func (s *fakeStore) MarkAllSeen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allSeen = true
	return nil
}

// fakeShelf records posts, cancels and channels.
type fakeShelf struct {
	mu       sync.Mutex
	active   map[string]*Notification
	channels map[string]ChannelSpec

	posts   []string
	cancels []string
}

func newFakeShelf() *fakeShelf {
	return &fakeShelf{
		active:   make(map[string]*Notification),
		channels: make(map[string]ChannelSpec),
	}
}

func (s *fakeShelf) Post(tag string, typ NotificationType, n *Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[tag] = n
	s.posts = append(s.posts, tag)
}

func (s *fakeShelf) Cancel(tag string, typ NotificationType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, tag)
	s.cancels = append(s.cancels, tag)
}

func (s *fakeShelf) ActiveTags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tags := make([]string, 0, len(s.active))
	for tag := range s.active {
		tags = append(tags, tag)
	}
	return tags
}

func (s *fakeShelf) Active(tag string) (*Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.active[tag]
	if !ok {
		return nil, false
	}
	clone := *n
	return &clone, true
}

func (s *fakeShelf) EnsureChannel(spec ChannelSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[spec.ID] = spec
}

func (s *fakeShelf) Channel(id string) (ChannelSpec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spec, ok := s.channels[id]
	return spec, ok
}

func (s *fakeShelf) DeleteChannel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, id)
}

func (s *fakeShelf) posted(tag string) *Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[tag]
}

// fakePresence marks a set of conversations as observable.
type fakePresence map[string]bool

func (p fakePresence) IsObservable(conversationID string) bool { return p[conversationID] }

// fakeSounds records played sounds.
type fakeSounds struct {
	mu    sync.Mutex
	plays []soundPlay
}

type soundPlay struct {
	uri    string
	volume float64
}

func (s *fakeSounds) Play(uri string, volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays = append(s.plays, soundPlay{uri: uri, volume: volume})
}

// fakeActions builds transparent pending actions.
type fakeActions struct{}

func (fakeActions) Conversation(requestCode int, conversationID string) PendingAction {
	return PendingAction{Kind: ActionContent, RequestCode: requestCode, Target: conversationID}
}

func (fakeActions) ConversationList(requestCode int) PendingAction {
	return PendingAction{Kind: ActionConversation, RequestCode: requestCode}
}

func (fakeActions) Clear(requestCode int, scope Scope, conversationID string) PendingAction {
	return PendingAction{Kind: ActionClear, RequestCode: requestCode, Target: conversationID}
}

func (fakeActions) Reply(requestCode int, conversationID string) PendingAction {
	return PendingAction{Kind: ActionReply, RequestCode: requestCode, Target: conversationID}
}

func (fakeActions) Download(messageID string) PendingAction {
	return PendingAction{Kind: ActionDownload, Target: messageID}
}

// fakeAvatars resolves avatar URIs from a fixed map.
type fakeAvatars map[string][]byte

var errNoAvatar = errors.New("no avatar")

func (a fakeAvatars) RequestBitmap(ctx context.Context, uri string) ([]byte, error) {
	bitmap, ok := a[uri]
	if !ok {
		return nil, errNoAvatar
	}
	return bitmap, nil
}

var _ MessageStore = (*fakeStore)(nil)
var _ Shelf = (*fakeShelf)(nil)
var _ PresenceOracle = fakePresence(nil)
var _ SoundPlayer = (*fakeSounds)(nil)
var _ ActionFactory = fakeActions{}
var _ AvatarResolver = fakeAvatars(nil)
