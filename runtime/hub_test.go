package runtime

import (
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-live/domain"
	"chat-live/domain/event"
	apperrors "chat-live/errors"
	"chat-live/observability"
	"chat-live/repositories"
)

type hubFixture struct {
	hub      *Hub
	registry *Registry
	presence *PresenceRegistry
	store    *repositories.MessageRepository
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := repositories.NewMessageRepository(db, slog.Default())
	req.NoError(err)
	t.Cleanup(func() { _ = store.Close() })

	registry := NewRegistry()
	presence := NewPresenceRegistry()
	hub := NewHub(slog.Default(), registry, presence, NewActiveChannelRegistry(),
		store, observability.NewMonitoringManager(), 50)
	return &hubFixture{hub: hub, registry: registry, presence: presence, store: store}
}

func (f *hubFixture) connect(id domain.Identity) (string, *Sink) {
	connID := uuid.NewString()
	sink := &Sink{}
	f.hub.Connected(connID, id, sink)
	return connID, sink
}

func TestHub_Connected_Announces_Presence_To_Others(t *testing.T) {
	req := require.New(t)
	fixture := newHubFixture(t)

	// Given a connected observer
	_, observerSink := fixture.connect("a@x.com")

	// When another identity connects
	_, newcomerSink := fixture.connect("b@x.com")

	// Then the observer hears it and the newcomer does not hear itself
	req.Len(observerSink.events, 1)
	presenceEvt, ok := observerSink.events[0].(event.PresenceChanged)
	req.True(ok)
	req.Equal(domain.Identity("b@x.com"), presenceEvt.Identity)
	req.True(presenceEvt.Online)
	req.Empty(newcomerSink.events)
}

func TestHub_Send_Delivers_To_Recipient_Only(t *testing.T) {
	req := require.New(t)
	fixture := newHubFixture(t)

	connA, sinkA := fixture.connect("a@x.com")
	_, sinkB := fixture.connect("b@x.com")
	sinkA.events = nil
	sinkB.events = nil

	// When a sends a message to b
	message, err := fixture.hub.Send(connA, "a@x.com", "42", "b@x.com", "hello")
	req.NoError(err)
	req.Equal("hello", message.Content)

	// Then b receives a MessageStored on its personal channel
	req.Len(sinkB.events, 1)
	stored, ok := sinkB.events[0].(event.MessageStored)
	req.True(ok)
	req.Equal("hello", stored.Message.Content)
	req.Equal(domain.Identity("a@x.com"), stored.Message.Sender)
	req.Equal(domain.PersonalChannel("b@x.com"), stored.ChannelID)

	// And the sender never receives its own message as an event
	req.Empty(sinkA.events)

	// And exactly one row was recorded
	history, err := fixture.store.History("42", "a@x.com", "b@x.com", 50)
	req.NoError(err)
	req.Len(history, 1)
}

func TestHub_Send_Rejects_Whitespace_Content(t *testing.T) {
	req := require.New(t)
	fixture := newHubFixture(t)

	connA, _ := fixture.connect("a@x.com")

	// When a sends whitespace-only content
	_, err := fixture.hub.Send(connA, "a@x.com", "42", "b@x.com", "   ")

	// Then the send fails with the validation sentinel and no row is stored
	req.ErrorIs(err, apperrors.ErrEmptyContent)
	history, err := fixture.store.History("42", "a@x.com", "b@x.com", 50)
	req.NoError(err)
	req.Empty(history)
}

func TestHub_Join_Returns_History_And_Broadcasts(t *testing.T) {
	req := require.New(t)
	fixture := newHubFixture(t)

	connA, sinkA := fixture.connect("a@x.com")
	connB, sinkB := fixture.connect("b@x.com")

	// Given prior traffic between a and b under context 42
	_, err := fixture.hub.Send(connB, "b@x.com", "42", "a@x.com", "are you coming?")
	req.NoError(err)
	sinkA.events = nil
	sinkB.events = nil

	// When both join the conversation
	_, history, err := fixture.hub.Join(connA, "a@x.com", "42", "b@x.com")
	req.NoError(err)
	joined, _, err := fixture.hub.Join(connB, "b@x.com", "42", "a@x.com")
	req.NoError(err)

	// Then the requester got the history page
	req.Len(history, 1)
	req.Equal("are you coming?", history[0].Content)

	// And the joined notice reached the whole channel, joiner included,
	// with both participants listed
	req.Equal([]domain.Identity{"a@x.com", "b@x.com"}, joined.Participants)
	req.NotEmpty(sinkA.events)
	req.NotEmpty(sinkB.events)
	_, ok := sinkB.events[len(sinkB.events)-1].(event.ParticipantJoined)
	req.True(ok)
}

func TestHub_Typing_Excludes_Originator(t *testing.T) {
	req := require.New(t)
	fixture := newHubFixture(t)

	connA, sinkA := fixture.connect("a@x.com")
	connB, sinkB := fixture.connect("b@x.com")

	_, _, err := fixture.hub.Join(connA, "a@x.com", "42", "b@x.com")
	req.NoError(err)
	_, _, err = fixture.hub.Join(connB, "b@x.com", "42", "a@x.com")
	req.NoError(err)
	sinkA.events = nil
	sinkB.events = nil

	// When a starts typing
	fixture.hub.Typing(connA, "a@x.com", "42", "b@x.com", true)

	// Then only b hears the signal
	req.Empty(sinkA.events)
	req.Len(sinkB.events, 1)
	typing, ok := sinkB.events[0].(event.TypingSignal)
	req.True(ok)
	req.True(typing.Typing)
	req.Equal(domain.Identity("a@x.com"), typing.Identity)
}

func TestHub_Leave_Requires_Membership(t *testing.T) {
	req := require.New(t)
	fixture := newHubFixture(t)

	connA, _ := fixture.connect("a@x.com")

	// Leaving a conversation that was never joined is a session error
	_, err := fixture.hub.Leave(connA, "a@x.com", "42", "b@x.com")
	req.ErrorIs(err, apperrors.ErrUnknownChannel)
}

func TestHub_Leave_Notifies_Remaining_Members(t *testing.T) {
	req := require.New(t)
	fixture := newHubFixture(t)

	connA, sinkA := fixture.connect("a@x.com")
	connB, sinkB := fixture.connect("b@x.com")
	_, _, err := fixture.hub.Join(connA, "a@x.com", "42", "b@x.com")
	req.NoError(err)
	_, _, err = fixture.hub.Join(connB, "b@x.com", "42", "a@x.com")
	req.NoError(err)
	sinkA.events = nil
	sinkB.events = nil

	// When a leaves
	left, err := fixture.hub.Leave(connA, "a@x.com", "42", "b@x.com")
	req.NoError(err)
	req.Equal(domain.Identity("a@x.com"), left.Identity)

	// Then only the remaining member is notified
	req.Empty(sinkA.events)
	req.Len(sinkB.events, 1)
	_, ok := sinkB.events[0].(event.ParticipantLeft)
	req.True(ok)
}

func TestHub_Online_Reflects_Disconnects(t *testing.T) {
	req := require.New(t)
	fixture := newHubFixture(t)

	connA, _ := fixture.connect("a@x.com")
	fixture.connect("b@x.com")

	req.Len(fixture.hub.Online(), 2)

	// When a disconnects, a later snapshot excludes it
	fixture.hub.Disconnected(connA, "a@x.com")
	online := fixture.hub.Online()
	req.Len(online, 1)
	req.Equal(domain.Identity("b@x.com"), online[0].Identity)
}

func TestHub_Stats_Counts_Messages(t *testing.T) {
	req := require.New(t)
	fixture := newHubFixture(t)

	connA, _ := fixture.connect("a@x.com")
	_, err := fixture.hub.Send(connA, "a@x.com", "42", "b@x.com", "hello")
	req.NoError(err)
	_, err = fixture.hub.Send(connA, "a@x.com", "42", "b@x.com", " ")
	req.ErrorIs(err, apperrors.ErrEmptyContent)

	stats := fixture.hub.Stats()
	req.Equal(uint64(1), stats.MessagesStored)
	req.Equal(uint64(1), stats.MessagesRejected)
	req.Equal(int64(1), stats.ConnectionsOpen)
}
