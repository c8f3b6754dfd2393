// Package runtime owns the mutable shared state of the messaging core:
// connection subscriptions, presence, active conversations, and the hub
// that routes events between them. It contains no transport logic.
package runtime

import (
	"sync"

	"chat-live/contract"
	"chat-live/domain"
)

type Set map[string]struct{}

// connection is the registry's view of one live session: its identity, its
// delivery sink, and the channels it joined.
type connection struct {
	identity domain.Identity
	sink     contract.EventSink
	channels map[domain.ChannelID]struct{}
}

// Registry binds live connections to identities and channel memberships.
// It is an explicitly owned object constructed at server start; all
// mutation goes through mutex-guarded methods.
type Registry struct {
	mu             sync.RWMutex
	connections    map[string]*connection
	channelMembers map[domain.ChannelID]Set
	identityConns  map[domain.Identity]Set
}

func NewRegistry() *Registry {
	return &Registry{
		connections:    make(map[string]*connection),
		channelMembers: make(map[domain.ChannelID]Set),
		identityConns:  make(map[domain.Identity]Set),
	}
}

// Register records an authenticated connection and its sink. The identity
// index allows several simultaneous connections per identity, so a second
// device never silently evicts the first.
func (r *Registry) Register(connID string, id domain.Identity, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connections[connID] = &connection{
		identity: id,
		sink:     sink,
		channels: make(map[domain.ChannelID]struct{}),
	}
	if _, ok := r.identityConns[id]; !ok {
		r.identityConns[id] = make(Set)
	}
	r.identityConns[id][connID] = struct{}{}
}

// Unregister removes a connection and every channel membership it held.
// Membership is discarded with the whole session; there is no per-channel
// teardown on disconnect.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[connID]
	if !ok {
		return
	}
	for ch := range conn.channels {
		r.dropMember(ch, connID)
	}
	if conns, ok := r.identityConns[conn.identity]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.identityConns, conn.identity)
		}
	}
	delete(r.connections, connID)
}

// Subscribe adds a connection to a channel. Unknown connections are ignored:
// a session that lost the race with its own disconnect must not resurrect
// state.
func (r *Registry) Subscribe(connID string, ch domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[connID]
	if !ok {
		return
	}
	conn.channels[ch] = struct{}{}
	if _, ok := r.channelMembers[ch]; !ok {
		r.channelMembers[ch] = make(Set)
	}
	r.channelMembers[ch][connID] = struct{}{}
}

// Unsubscribe removes a connection from a channel, dropping empty member
// sets so the map does not grow with dead channels.
func (r *Registry) Unsubscribe(connID string, ch domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.connections[connID]; ok {
		delete(conn.channels, ch)
	}
	r.dropMember(ch, connID)
}

// dropMember must be called with the write lock held.
func (r *Registry) dropMember(ch domain.ChannelID, connID string) {
	members, ok := r.channelMembers[ch]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.channelMembers, ch)
	}
}

func (r *Registry) Subscribed(connID string, ch domain.ChannelID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.connections[connID]
	if !ok {
		return false
	}
	_, ok = conn.channels[ch]
	return ok
}

// SinksForChannel resolves the sinks of every member of a channel,
// excluding skipConnID when non-empty. Returns nil for unknown channels.
func (r *Registry) SinksForChannel(ch domain.ChannelID, skipConnID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.channelMembers[ch]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for connID := range members {
		if connID == skipConnID {
			continue
		}
		if conn, exists := r.connections[connID]; exists {
			sinks = append(sinks, conn.sink)
		}
	}
	return sinks
}

// SinksForIdentity resolves every live connection of an identity. Direct
// message delivery goes through here, so each device of the recipient
// receives the message.
func (r *Registry) SinksForIdentity(id domain.Identity) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for connID := range r.identityConns[id] {
		if conn, exists := r.connections[connID]; exists {
			sinks = append(sinks, conn.sink)
		}
	}
	return sinks
}

// AllSinks returns the sinks of every connected session except skipConnID.
// Presence announcements fan out through this.
func (r *Registry) AllSinks(skipConnID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for connID, conn := range r.connections {
		if connID == skipConnID {
			continue
		}
		sinks = append(sinks, conn.sink)
	}
	return sinks
}

// ConnectionCount reports the number of live connections, for telemetry.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}
