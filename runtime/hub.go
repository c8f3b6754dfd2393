package runtime

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chat-live/contract"
	"chat-live/domain"
	"chat-live/domain/event"
	apperrors "chat-live/errors"
	"chat-live/observability"
)

const defaultHistoryPage = 50

// Hub is the event router: it validates messaging operations, persists what
// must be durable, and fans the resulting events out to the right
// connection sets (unicast, channel broadcast, presence broadcast).
//
// The transport guarantees FIFO per connection by calling the hub from a
// single reader goroutine per session; the hub itself is safe for use from
// many connections at once since all shared state lives behind the
// registries' locks.
type Hub struct {
	log         *slog.Logger
	registry    contract.IRegistry
	presence    contract.IPresence
	channels    *ActiveChannelRegistry
	store       contract.MessageStore
	monitoring  *observability.MonitoringManager
	historyPage int
}

func NewHub(log *slog.Logger, registry contract.IRegistry, presence contract.IPresence,
	channels *ActiveChannelRegistry, store contract.MessageStore,
	monitoring *observability.MonitoringManager, historyPage int) *Hub {
	if historyPage <= 0 {
		historyPage = defaultHistoryPage
	}
	return &Hub{
		log:         log,
		registry:    registry,
		presence:    presence,
		channels:    channels,
		store:       store,
		monitoring:  monitoring,
		historyPage: historyPage,
	}
}

// Connected registers an authenticated session, marks its identity online
// and announces the presence change to every other connected session.
func (h *Hub) Connected(connID string, id domain.Identity, sink contract.EventSink) {
	h.registry.Register(connID, id, sink)
	entry := h.presence.SetOnline(id, connID)
	h.monitoring.ConnectionOpened()
	h.broadcast(h.registry.AllSinks(connID), event.PresenceChanged{
		Identity: id,
		Online:   true,
		At:       entry.ConnectedAt,
	})
}

// Disconnected tears a session down: memberships are discarded with the
// whole session, and the offline announcement goes out only when the last
// connection of the identity is gone.
func (h *Hub) Disconnected(connID string, id domain.Identity) {
	h.registry.Unregister(connID)
	entry, wentOffline := h.presence.SetOffline(id, connID)
	h.monitoring.ConnectionClosed()
	if wentOffline {
		h.broadcast(h.registry.AllSinks(connID), event.PresenceChanged{
			Identity: id,
			Online:   false,
			At:       entry.DisconnectedAt,
		})
	}
}

// Join subscribes the connection to the conversation with peer, returns the
// bounded history page for requester-only delivery, and broadcasts the
// joined notice to the whole channel, the new member included.
func (h *Hub) Join(connID string, id domain.Identity, contextID string, peer domain.Identity) (event.ParticipantJoined, []domain.Message, error) {
	channel, err := domain.ResolveChannel(id, peer, contextID)
	if err != nil {
		return event.ParticipantJoined{}, nil, err
	}
	h.registry.Subscribe(connID, channel)
	h.channels.Track(channel, contextID, id, peer)

	history, err := h.store.History(contextID, id, peer, h.historyPage)
	if err != nil {
		return event.ParticipantJoined{}, nil, fmt.Errorf("%w: %v", apperrors.ErrReadFailed, err)
	}

	joined := event.ParticipantJoined{
		ChannelID:    channel,
		ContextID:    contextID,
		Identity:     id,
		Participants: h.channels.Participants(channel),
	}
	h.broadcast(h.registry.SinksForChannel(channel, ""), joined)
	return joined, history, nil
}

// Send validates and persists a message, then delivers it to the
// recipient's personal channel only. The sender gets the returned message
// back as a lightweight acknowledgment, never as a newMessage event: that
// asymmetry prevents duplicate rendering on the sending client.
// A message that failed to persist is dropped, not broadcast.
func (h *Hub) Send(connID string, id domain.Identity, contextID string, recipient domain.Identity, content string) (domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		h.monitoring.IncrMessagesRejected()
		return domain.Message{}, apperrors.ErrEmptyContent
	}
	message, err := h.store.Append(contextID, id, recipient, content)
	if err != nil {
		h.monitoring.IncrMessagesRejected()
		return domain.Message{}, fmt.Errorf("%w: %v", apperrors.ErrPersistFailed, err)
	}
	h.monitoring.IncrMessagesStored()

	h.broadcast(h.registry.SinksForIdentity(recipient), event.MessageStored{
		ChannelID: domain.PersonalChannel(recipient),
		Message:   message,
	})
	return message, nil
}

// Typing relays a typing signal to the conversation, originator excluded.
// Invalid input is dropped silently; typing is best-effort by contract.
func (h *Hub) Typing(connID string, id domain.Identity, contextID string, peer domain.Identity, typing bool) {
	channel, err := domain.ResolveChannel(id, peer, contextID)
	if err != nil {
		return
	}
	h.broadcast(h.registry.SinksForChannel(channel, connID), event.TypingSignal{
		ChannelID: channel,
		ContextID: contextID,
		Identity:  id,
		Typing:    typing,
	})
}

// Leave unsubscribes the connection from the conversation and notifies the
// remaining members.
func (h *Hub) Leave(connID string, id domain.Identity, contextID string, peer domain.Identity) (event.ParticipantLeft, error) {
	channel, err := domain.ResolveChannel(id, peer, contextID)
	if err != nil {
		return event.ParticipantLeft{}, err
	}
	if !h.registry.Subscribed(connID, channel) {
		return event.ParticipantLeft{}, apperrors.ErrUnknownChannel
	}
	h.registry.Unsubscribe(connID, channel)
	h.channels.Leave(channel, id)

	left := event.ParticipantLeft{
		ChannelID: channel,
		ContextID: contextID,
		Identity:  id,
		At:        time.Now().UTC(),
	}
	h.broadcast(h.registry.SinksForChannel(channel, ""), left)
	return left, nil
}

// Online returns the identities currently holding at least one connection.
func (h *Hub) Online() []domain.PresenceEntry {
	var online []domain.PresenceEntry
	for _, entry := range h.presence.Snapshot() {
		if entry.Online {
			online = append(online, entry)
		}
	}
	return online
}

// Stats assembles the monitoring snapshot for the debug endpoint and the
// telemetry worker.
func (h *Hub) Stats() observability.MonitoringStats {
	online := 0
	for _, entry := range h.presence.Snapshot() {
		if entry.Online {
			online++
		}
	}
	return h.monitoring.Snapshot(online, h.channels.Count())
}

// broadcast fans an event out with per-recipient isolation: one failing or
// panicking subscriber never aborts delivery to the rest.
func (h *Hub) broadcast(sinks []contract.EventSink, e event.DomainEvent) {
	for _, sink := range sinks {
		h.deliver(sink, e)
	}
}

func (h *Hub) deliver(sink contract.EventSink, e event.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			h.monitoring.IncrDeliveriesDropped()
			h.log.Error("Recovered panic while delivering event", "panic", fmt.Sprintf("%v", r))
		}
	}()
	if err := sink.Consume(e); err != nil {
		h.monitoring.IncrDeliveriesDropped()
		h.log.Debug("Event delivery dropped", "error", err)
		return
	}
	h.monitoring.IncrEventsDelivered()
}
