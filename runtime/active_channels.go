package runtime

import (
	"sort"
	"sync"
	"time"

	"chat-live/domain"
)

type activeChat struct {
	contextID    string
	participants map[domain.Identity]struct{}
	createdAt    time.Time
}

// ActiveChannelRegistry is derived bookkeeping: which identities take part
// in which resolved conversation. It only answers "who is in this
// conversation" queries; it is rebuilt from join traffic if lost, so it is
// a cache, never a source of truth.
type ActiveChannelRegistry struct {
	mu    sync.RWMutex
	chats map[domain.ChannelID]*activeChat
}

func NewActiveChannelRegistry() *ActiveChannelRegistry {
	return &ActiveChannelRegistry{chats: make(map[domain.ChannelID]*activeChat)}
}

// Track records the participants of a conversation, creating the entry on
// first join. Re-joining is idempotent.
func (a *ActiveChannelRegistry) Track(ch domain.ChannelID, contextID string, participants ...domain.Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()

	chat, ok := a.chats[ch]
	if !ok {
		chat = &activeChat{
			contextID:    contextID,
			participants: make(map[domain.Identity]struct{}),
			createdAt:    time.Now().UTC(),
		}
		a.chats[ch] = chat
	}
	for _, p := range participants {
		chat.participants[p] = struct{}{}
	}
}

// Leave removes one participant; the conversation entry disappears with its
// last participant.
func (a *ActiveChannelRegistry) Leave(ch domain.ChannelID, id domain.Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()

	chat, ok := a.chats[ch]
	if !ok {
		return
	}
	delete(chat.participants, id)
	if len(chat.participants) == 0 {
		delete(a.chats, ch)
	}
}

// Participants lists the identities of a conversation in stable order.
func (a *ActiveChannelRegistry) Participants(ch domain.ChannelID) []domain.Identity {
	a.mu.RLock()
	defer a.mu.RUnlock()

	chat, ok := a.chats[ch]
	if !ok {
		return nil
	}
	participants := make([]domain.Identity, 0, len(chat.participants))
	for p := range chat.participants {
		participants = append(participants, p)
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i] < participants[j] })
	return participants
}

// Count reports the number of active conversations, for telemetry.
func (a *ActiveChannelRegistry) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.chats)
}
