// Package observability aggregates in-process counters for the debug
// endpoint and the telemetry worker. Counters are atomic; reading them
// never blocks the dispatch path.
package observability

import (
	"sync/atomic"
	"time"
)

// MonitoringStats is the snapshot served by the debug endpoint.
type MonitoringStats struct {
	StartedAt          string `json:"started_at"`
	ConnectionsOpen    int64  `json:"connections_open"`
	ConnectionsTotal   uint64 `json:"connections_total"`
	AuthRejections     uint64 `json:"auth_rejections"`
	MessagesStored     uint64 `json:"messages_stored"`
	MessagesRejected   uint64 `json:"messages_rejected"`
	EventsDelivered    uint64 `json:"events_delivered"`
	DeliveriesDropped  uint64 `json:"deliveries_dropped"`
	IdentitiesOnline   int    `json:"identities_online"`
	ActiveConversation int    `json:"active_conversations"`
}

// MonitoringManager collects live counters from the hub and transport.
type MonitoringManager struct {
	startedAt time.Time

	connectionsOpen   atomic.Int64
	connectionsTotal  atomic.Uint64
	authRejections    atomic.Uint64
	messagesStored    atomic.Uint64
	messagesRejected  atomic.Uint64
	eventsDelivered   atomic.Uint64
	deliveriesDropped atomic.Uint64
}

func NewMonitoringManager() *MonitoringManager {
	return &MonitoringManager{startedAt: time.Now().UTC()}
}

func (mm *MonitoringManager) ConnectionOpened() {
	mm.connectionsOpen.Add(1)
	mm.connectionsTotal.Add(1)
}

func (mm *MonitoringManager) ConnectionClosed() {
	mm.connectionsOpen.Add(-1)
}

func (mm *MonitoringManager) IncrAuthRejections() {
	mm.authRejections.Add(1)
}

func (mm *MonitoringManager) IncrMessagesStored() {
	mm.messagesStored.Add(1)
}

func (mm *MonitoringManager) IncrMessagesRejected() {
	mm.messagesRejected.Add(1)
}

func (mm *MonitoringManager) IncrEventsDelivered() {
	mm.eventsDelivered.Add(1)
}

func (mm *MonitoringManager) IncrDeliveriesDropped() {
	mm.deliveriesDropped.Add(1)
}

// Snapshot captures the counters; identitiesOnline and activeConversations
// come from the registries owning that state.
func (mm *MonitoringManager) Snapshot(identitiesOnline, activeConversations int) MonitoringStats {
	return MonitoringStats{
		StartedAt:          mm.startedAt.Format(time.RFC3339),
		ConnectionsOpen:    mm.connectionsOpen.Load(),
		ConnectionsTotal:   mm.connectionsTotal.Load(),
		AuthRejections:     mm.authRejections.Load(),
		MessagesStored:     mm.messagesStored.Load(),
		MessagesRejected:   mm.messagesRejected.Load(),
		EventsDelivered:    mm.eventsDelivered.Load(),
		DeliveriesDropped:  mm.deliveriesDropped.Load(),
		IdentitiesOnline:   identitiesOnline,
		ActiveConversation: activeConversations,
	}
}
