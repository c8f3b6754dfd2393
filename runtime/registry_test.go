package runtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-live/domain"
	"chat-live/domain/event"
)

type Sink struct {
	events []event.DomainEvent
}

func (s *Sink) Consume(e event.DomainEvent) error {
	s.events = append(s.events, e)
	return nil
}

func TestRegistry_Register_And_Subscribe(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()
	channel := domain.ChannelID("ch:abc")
	sink := &Sink{}

	// Given no connection is registered
	req.Zero(registry.ConnectionCount())
	req.Nil(registry.SinksForChannel(channel, ""))

	// When a connection registers and subscribes a channel
	registry.Register(connID, "a@x.com", sink)
	registry.Subscribe(connID, channel)

	// Then the channel resolves to its sink
	req.Equal(1, registry.ConnectionCount())
	req.True(registry.Subscribed(connID, channel))
	req.Len(registry.SinksForChannel(channel, ""), 1)
	req.Contains(registry.SinksForChannel(channel, ""), sink)
}

func TestRegistry_SinksForChannel_Skips_Requested_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID1 := uuid.NewString()
	connID2 := uuid.NewString()
	channel := domain.ChannelID("ch:abc")
	sink1 := &Sink{}
	sink2 := &Sink{}

	registry.Register(connID1, "a@x.com", sink1)
	registry.Register(connID2, "b@x.com", sink2)
	registry.Subscribe(connID1, channel)
	registry.Subscribe(connID2, channel)

	// Typing exclusion: the originator never hears its own signal
	sinks := registry.SinksForChannel(channel, connID1)
	req.Len(sinks, 1)
	req.Contains(sinks, sink2)
}

func TestRegistry_SinksForIdentity_Covers_All_Devices(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	laptop := uuid.NewString()
	phone := uuid.NewString()
	sink1 := &Sink{}
	sink2 := &Sink{}

	// Given one identity connected twice
	registry.Register(laptop, "a@x.com", sink1)
	registry.Register(phone, "a@x.com", sink2)

	// Then direct delivery reaches both devices
	sinks := registry.SinksForIdentity("a@x.com")
	req.Len(sinks, 2)
	req.Contains(sinks, sink1)
	req.Contains(sinks, sink2)
}

func TestRegistry_Unregister_Discards_All_Memberships(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()
	other := uuid.NewString()
	channel1 := domain.ChannelID("ch:abc")
	channel2 := domain.ChannelID("ch:def")
	sink := &Sink{}

	// Given a connection joined to two channels
	registry.Register(connID, "a@x.com", sink)
	registry.Register(other, "b@x.com", &Sink{})
	registry.Subscribe(connID, channel1)
	registry.Subscribe(connID, channel2)
	registry.Subscribe(other, channel1)

	// When the connection unregisters
	registry.Unregister(connID)

	// Then all its memberships and its identity mapping are gone
	req.Nil(registry.SinksForIdentity("a@x.com"))
	req.Nil(registry.SinksForChannel(channel2, ""))
	req.Len(registry.SinksForChannel(channel1, ""), 1)
	req.Equal(1, registry.ConnectionCount())
}

func TestRegistry_AllSinks_Skips_Originating_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID1 := uuid.NewString()
	connID2 := uuid.NewString()
	sink1 := &Sink{}
	sink2 := &Sink{}

	registry.Register(connID1, "a@x.com", sink1)
	registry.Register(connID2, "b@x.com", sink2)

	sinks := registry.AllSinks(connID1)
	req.Len(sinks, 1)
	req.Contains(sinks, sink2)
}
