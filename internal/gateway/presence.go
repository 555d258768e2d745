package gateway

import (
	"sync"

	"github.com/ybtag/GrapheneMessaging/internal/notify"
)

// Presence tracks which conversations a connected client is currently viewing.
// An observable conversation gets a soft sound instead of a visual
// notification.
type Presence struct {
	mu      sync.RWMutex
	focused map[string]int
}

var _ notify.PresenceOracle = (*Presence)(nil)

// NewPresence creates an empty tracker.
func NewPresence() *Presence {
	return &Presence{focused: make(map[string]int)}
}

// Focus records that a client started viewing a conversation. Focus counts
// nest: two clients viewing the same conversation need two Blur calls.
func (p *Presence) Focus(conversationID string) {
	if conversationID == "" {
		return
	}
	p.mu.Lock()
	p.focused[conversationID]++
	p.mu.Unlock()
}

// Blur records that a client stopped viewing a conversation.
func (p *Presence) Blur(conversationID string) {
	p.mu.Lock()
	if n := p.focused[conversationID]; n > 1 {
		p.focused[conversationID] = n - 1
	} else {
		delete(p.focused, conversationID)
	}
	p.mu.Unlock()
}

// IsObservable implements notify.PresenceOracle.
func (p *Presence) IsObservable(conversationID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.focused[conversationID] > 0
}
