package runtime

import (
	"sync"
	"time"

	"chat-live/domain"
)

// presenceState tracks one identity: its public entry plus the set of
// connection ids currently holding it online.
type presenceState struct {
	entry       domain.PresenceEntry
	connections Set
}

// PresenceRegistry is the process-wide map from identity to connection
// status. Offline entries are kept for a while (last-seen answers) and
// reclaimed by the sweeper; a process restart loses everything, which is
// acceptable since presence is inherently point-in-time.
type PresenceRegistry struct {
	mu      sync.RWMutex
	entries map[domain.Identity]*presenceState
	now     func() time.Time
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		entries: make(map[domain.Identity]*presenceState),
		now:     time.Now,
	}
}

// SetOnline records a new connection for the identity and returns the
// updated entry. An identity already online just gains one more connection;
// ConnectedAt is refreshed only on the offline-to-online transition.
func (p *PresenceRegistry) SetOnline(id domain.Identity, connID string) domain.PresenceEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.entries[id]
	if !ok {
		state = &presenceState{connections: make(Set)}
		p.entries[id] = state
	}
	if !state.entry.Online {
		state.entry = domain.PresenceEntry{
			Identity:    id,
			Online:      true,
			ConnectedAt: p.now().UTC(),
		}
	}
	state.connections[connID] = struct{}{}
	return state.entry
}

// SetOffline drops one connection of the identity. The identity goes
// offline only when its last connection is gone; the boolean reports that
// transition so callers know whether to announce it.
func (p *PresenceRegistry) SetOffline(id domain.Identity, connID string) (domain.PresenceEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.entries[id]
	if !ok {
		return domain.PresenceEntry{Identity: id}, false
	}
	delete(state.connections, connID)
	if len(state.connections) > 0 {
		return state.entry, false
	}
	state.entry.Online = false
	state.entry.DisconnectedAt = p.now().UTC()
	return state.entry, true
}

// Snapshot returns a copy of every tracked entry, online or not.
func (p *PresenceRegistry) Snapshot() []domain.PresenceEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := make([]domain.PresenceEntry, 0, len(p.entries))
	for _, state := range p.entries {
		entries = append(entries, state.entry)
	}
	return entries
}

// Sweep removes offline entries whose disconnection is older than the
// retention window and reports how many were reclaimed.
func (p *PresenceRegistry) Sweep(retention time.Duration) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	threshold := p.now().Add(-retention)
	removed := 0
	for id, state := range p.entries {
		if !state.entry.Online && state.entry.DisconnectedAt.Before(threshold) {
			delete(p.entries, id)
			removed++
		}
	}
	return removed
}

// OnlineCount reports the number of identities currently online.
func (p *PresenceRegistry) OnlineCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	count := 0
	for _, state := range p.entries {
		if state.entry.Online {
			count++
		}
	}
	return count
}
