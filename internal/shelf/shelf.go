// Package shelf provides the in-process notification shelf: the mutable
// registry of currently displayed notifications and their channels, plus an
// event stream that lets transports mirror shelf changes to connected clients.
package shelf

import (
	"log/slog"
	"sync"

	"github.com/ybtag/GrapheneMessaging/internal/notify"
)

// EventKind discriminates shelf events.
type EventKind string

// Event kinds.
const (
	EventPosted   EventKind = "posted"
	EventCanceled EventKind = "canceled"
	EventChannel  EventKind = "channel"
	EventSound    EventKind = "sound"
)

// Event describes one shelf mutation, broadcast to subscribers.
type Event struct {
	Kind         EventKind            `json:"kind"`
	Tag          string               `json:"tag,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
	Channel      *notify.ChannelSpec  `json:"channel,omitempty"`
	SoundURI     string               `json:"sound_uri,omitempty"`
	Volume       float64              `json:"volume,omitempty"`
}

// Memory is an in-memory shelf. It also implements the engine's sound output
// by broadcasting sound events instead of playing audio locally; whatever
// client mirrors the shelf decides how to ring.
type Memory struct {
	logger *slog.Logger

	mu          sync.RWMutex
	active      map[string]*notify.Notification
	channels    map[string]notify.ChannelSpec
	subscribers map[int]chan Event
	nextSub     int
}

var (
	_ notify.Shelf       = (*Memory)(nil)
	_ notify.SoundPlayer = (*Memory)(nil)
)

// NewMemory creates an empty shelf.
func NewMemory(logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{
		logger:      logger.With("component", "shelf"),
		active:      make(map[string]*notify.Notification),
		channels:    make(map[string]notify.ChannelSpec),
		subscribers: make(map[int]chan Event),
	}
}

// Post shows or replaces the notification stored under tag.
func (m *Memory) Post(tag string, typ notify.NotificationType, n *notify.Notification) {
	clone := cloneNotification(n)
	m.mu.Lock()
	m.active[tag] = clone
	m.mu.Unlock()
	m.broadcast(Event{Kind: EventPosted, Tag: tag, Notification: cloneNotification(clone)})
}

// Cancel removes the notification under tag, if any.
func (m *Memory) Cancel(tag string, typ notify.NotificationType) {
	m.mu.Lock()
	_, existed := m.active[tag]
	delete(m.active, tag)
	m.mu.Unlock()
	if existed {
		m.broadcast(Event{Kind: EventCanceled, Tag: tag})
	}
}

// ActiveTags enumerates the tags of all currently shown notifications.
func (m *Memory) ActiveTags() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tags := make([]string, 0, len(m.active))
	for tag := range m.active {
		tags = append(tags, tag)
	}
	return tags
}

// Active returns a point-in-time copy of the notification under tag. Callers
// may mutate the copy freely.
func (m *Memory) Active(tag string) (*notify.Notification, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.active[tag]
	if !ok {
		return nil, false
	}
	return cloneNotification(n), true
}

// Snapshot returns copies of all active notifications.
func (m *Memory) Snapshot() []*notify.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*notify.Notification, 0, len(m.active))
	for _, n := range m.active {
		out = append(out, cloneNotification(n))
	}
	return out
}

// EnsureChannel creates or updates a channel. Idempotent: rewriting a channel
// with an unchanged spec emits no event.
func (m *Memory) EnsureChannel(spec notify.ChannelSpec) {
	m.mu.Lock()
	prev, existed := m.channels[spec.ID]
	if existed && prev == spec {
		m.mu.Unlock()
		return
	}
	m.channels[spec.ID] = spec
	m.mu.Unlock()
	m.broadcast(Event{Kind: EventChannel, Channel: &spec})
}

// Channel returns the current spec of a channel, if it exists.
func (m *Memory) Channel(id string) (notify.ChannelSpec, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.channels[id]
	return spec, ok
}

// DeleteChannel removes a channel.
func (m *Memory) DeleteChannel(id string) {
	m.mu.Lock()
	delete(m.channels, id)
	m.mu.Unlock()
}

// Play implements notify.SoundPlayer by broadcasting a sound event.
func (m *Memory) Play(uri string, volume float64) {
	m.broadcast(Event{Kind: EventSound, SoundURI: uri, Volume: volume})
}

// Subscribe registers an event listener. The returned cancel function must be
// called to release it. A slow subscriber drops events rather than blocking
// the shelf.
func (m *Memory) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subscribers[id] = ch
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if _, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(ch)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

func (m *Memory) broadcast(ev Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			m.logger.Debug("subscriber full, dropping event", "kind", ev.Kind)
		}
	}
}

// cloneNotification deep-copies a notification so shelf state never aliases
// caller memory.
func cloneNotification(n *notify.Notification) *notify.Notification {
	if n == nil {
		return nil
	}
	clone := *n
	if n.Lines != nil {
		clone.Lines = make([]notify.RenderedLine, len(n.Lines))
		copy(clone.Lines, n.Lines)
	}
	if n.Actions != nil {
		clone.Actions = make([]notify.PendingAction, len(n.Actions))
		copy(clone.Actions, n.Actions)
	}
	return &clone
}
