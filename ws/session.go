package ws

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"chat-live/domain"
	"chat-live/domain/event"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// SessionState tracks a connection through its lifecycle. Transitions are
// one-way: Connecting to Authenticated on a successful handshake, any state
// to Closed exactly once.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateAuthenticated
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one live WebSocket connection bound to a verified identity.
// It is the transport-side event sink the router delivers into: Consume
// translates domain events to protocol envelopes and queues them on the
// outbound buffer, which a single writer goroutine drains.
type Session struct {
	ID       string
	Identity domain.Identity

	conn      *websocket.Conn
	send      chan Envelope
	state     atomic.Int32
	done      chan struct{}
	closeOnce sync.Once
	log       *slog.Logger
}

func newSession(id domain.Identity, conn *websocket.Conn, bufferSize int, log *slog.Logger) *Session {
	session := &Session{
		ID:       uuid.NewString(),
		Identity: id,
		conn:     conn,
		send:     make(chan Envelope, bufferSize),
		done:     make(chan struct{}),
		log:      log,
	}
	session.state.Store(int32(StateConnecting))
	return session
}

func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) setState(state SessionState) {
	s.state.Store(int32(state))
}

// Consume implements contract.EventSink. Delivery is non-blocking: when the
// outbound buffer is full the event is dropped for this session only, so a
// slow reader never stalls fan-out to its channel peers.
func (s *Session) Consume(e event.DomainEvent) error {
	envelope, err := toEnvelope(e)
	if err != nil {
		return err
	}
	return s.push(envelope)
}

func (s *Session) push(envelope Envelope) error {
	select {
	case <-s.done:
		return fmt.Errorf("session %s is closed", s.ID)
	case s.send <- envelope:
		return nil
	default:
		return fmt.Errorf("session %s send buffer full, dropping %s", s.ID, envelope.Event)
	}
}

func (s *Session) pushError(message string) {
	envelope, err := NewEnvelope(EventError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	if err := s.push(envelope); err != nil {
		s.log.Debug("Could not deliver error event", "session", s.ID, "error", err)
	}
}

// writePump is the only goroutine writing to the connection. It drains the
// outbound buffer and keeps the connection alive with periodic pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()
	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case envelope := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteJSON(envelope); err != nil {
				s.log.Debug("Write failed, closing session", "session", s.ID, "error", err)
				s.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		}
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.setState(StateClosed)
		close(s.done)
	})
}

// toEnvelope maps a domain event to its wire representation.
func toEnvelope(e event.DomainEvent) (Envelope, error) {
	switch ev := e.(type) {
	case event.MessageStored:
		return NewEnvelope(EventNewMessage, toMessagePayload(ev.Message))
	case event.PresenceChanged:
		return NewEnvelope(EventPresenceChanged, PresencePayload{
			Identity:  string(ev.Identity),
			Online:    ev.Online,
			Timestamp: ev.At,
		})
	case event.TypingSignal:
		return NewEnvelope(EventTyping, TypingPayload{
			Identity:  string(ev.Identity),
			ContextID: ev.ContextID,
			Typing:    ev.Typing,
		})
	case event.ParticipantJoined:
		return NewEnvelope(EventJoined, JoinedPayload{
			ContextID: ev.ContextID,
			ChannelID: string(ev.ChannelID),
			Identity:  string(ev.Identity),
			Participants: lo.Map(ev.Participants, func(id domain.Identity, _ int) string {
				return string(id)
			}),
		})
	case event.ParticipantLeft:
		return NewEnvelope(EventParticipantLeft, ParticipantLeftPayload{
			ContextID: ev.ContextID,
			Identity:  string(ev.Identity),
			Timestamp: ev.At,
		})
	default:
		return Envelope{}, fmt.Errorf("no wire representation for event %T", e)
	}
}
