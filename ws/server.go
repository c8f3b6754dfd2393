package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"chat-live/contract"
	"chat-live/domain"
	apperrors "chat-live/errors"
	"chat-live/observability"
	"chat-live/runtime"
)

const defaultSendBuffer = 64

// Server upgrades HTTP requests to messaging sessions. Authentication runs
// before the upgrade: a request without a resolvable session token is
// rejected as plain HTTP 401 and never becomes a WebSocket.
type Server struct {
	log        *slog.Logger
	hub        *runtime.Hub
	resolver   contract.IdentityResolver
	monitoring *observability.MonitoringManager
	upgrader   websocket.Upgrader
	bufferSize int
}

func NewServer(log *slog.Logger, hub *runtime.Hub, resolver contract.IdentityResolver,
	monitoring *observability.MonitoringManager, bufferSize int) *Server {
	if bufferSize <= 0 {
		bufferSize = defaultSendBuffer
	}
	return &Server{
		log:        log,
		hub:        hub,
		resolver:   resolver,
		monitoring: monitoring,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		bufferSize: bufferSize,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		s.monitoring.IncrAuthRejections()
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return
	}

	id, err := s.resolver.Resolve(r.Context(), token)
	if err != nil {
		s.monitoring.IncrAuthRejections()
		s.log.Warn("Rejected connection", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	session := newSession(id, conn, s.bufferSize, s.log)
	session.setState(StateAuthenticated)
	go session.writePump()

	s.hub.Connected(session.ID, id, session)
	s.log.Info("Session opened", "session", session.ID, "identity", id)

	greeting, err := NewEnvelope(EventConnected, ConnectedPayload{
		Message:   "connection established",
		Identity:  string(id),
		Timestamp: time.Now().UTC(),
	})
	if err == nil {
		_ = session.push(greeting)
	}

	s.readPump(session)
}

// sessionToken extracts the handshake token from the query string, with a
// header fallback for clients that cannot set query parameters.
func sessionToken(r *http.Request) string {
	if token := r.URL.Query().Get("session_token"); token != "" {
		return token
	}
	return r.Header.Get("X-Session-Token")
}

// readPump is the only goroutine reading from the connection. Running every
// inbound event through a single loop gives each session FIFO processing.
func (s *Server) readPump(session *Session) {
	defer func() {
		s.hub.Disconnected(session.ID, session.Identity)
		session.close()
		s.log.Info("Session closed", "session", session.ID, "identity", session.Identity)
	}()
	for {
		var envelope Envelope
		if err := session.conn.ReadJSON(&envelope); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("Connection dropped", "session", session.ID, "error", err)
			}
			return
		}
		s.dispatch(session, envelope)
	}
}

func (s *Server) dispatch(session *Session, envelope Envelope) {
	if session.State() != StateAuthenticated {
		session.pushError(apperrors.ErrNotAuthenticated.Error())
		return
	}
	switch envelope.Event {
	case EventJoin:
		s.handleJoin(session, envelope)
	case EventSend:
		s.handleSend(session, envelope)
	case EventTypingStart:
		s.handleTyping(session, envelope, true)
	case EventTypingStop:
		s.handleTyping(session, envelope, false)
	case EventLeave:
		s.handleLeave(session, envelope)
	case EventListOnline:
		s.handleListOnline(session)
	case EventHeartbeat:
		s.handleHeartbeat(session)
	default:
		session.pushError("unknown event: " + envelope.Event)
	}
}

func (s *Server) handleJoin(session *Session, envelope Envelope) {
	request, err := decodePayload[JoinRequest](envelope.Data)
	if err != nil {
		session.pushError("invalid join payload: " + err.Error())
		return
	}
	_, history, err := s.hub.Join(session.ID, session.Identity,
		request.ContextID, domain.Identity(request.PeerIdentity))
	if err != nil {
		session.pushError(err.Error())
		return
	}

	// The joined notice reaches this session through the channel broadcast;
	// only the history page is requester-only.
	historyEnvelope, err := NewEnvelope(EventHistory, HistoryPayload{
		ContextID: request.ContextID,
		Messages:  toMessagePayloads(history),
	})
	if err != nil {
		session.pushError("could not encode history")
		return
	}
	if err := session.push(historyEnvelope); err != nil {
		s.log.Debug("History delivery dropped", "session", session.ID, "error", err)
	}
}

func (s *Server) handleSend(session *Session, envelope Envelope) {
	request, err := decodePayload[SendRequest](envelope.Data)
	if err != nil {
		session.pushError("invalid send payload: " + err.Error())
		return
	}
	message, err := s.hub.Send(session.ID, session.Identity, request.ContextID,
		domain.Identity(request.RecipientIdentity), request.Message)
	if err != nil {
		session.pushError(err.Error())
		return
	}

	ack, err := NewEnvelope(EventMessageAck, AckPayload{
		MessageID: message.ID,
		Timestamp: message.CreatedAt,
	})
	if err != nil {
		return
	}
	if err := session.push(ack); err != nil {
		s.log.Debug("Ack delivery dropped", "session", session.ID, "error", err)
	}
}

func (s *Server) handleTyping(session *Session, envelope Envelope, typing bool) {
	request, err := decodePayload[TypingRequest](envelope.Data)
	if err != nil {
		// Typing is best-effort, malformed signals are dropped without reply.
		return
	}
	s.hub.Typing(session.ID, session.Identity, request.ContextID,
		domain.Identity(request.RecipientIdentity), typing)
}

func (s *Server) handleLeave(session *Session, envelope Envelope) {
	request, err := decodePayload[LeaveRequest](envelope.Data)
	if err != nil {
		session.pushError("invalid leave payload: " + err.Error())
		return
	}
	if _, err := s.hub.Leave(session.ID, session.Identity, request.ContextID,
		domain.Identity(request.RecipientIdentity)); err != nil {
		session.pushError(err.Error())
	}
}

func (s *Server) handleListOnline(session *Session) {
	entries := s.hub.Online()
	envelope, err := NewEnvelope(EventOnlineUsers, OnlineUsersPayload{
		Users: toOnlineUsers(entries),
		Count: len(entries),
	})
	if err != nil {
		return
	}
	if err := session.push(envelope); err != nil {
		s.log.Debug("Online list delivery dropped", "session", session.ID, "error", err)
	}
}

func (s *Server) handleHeartbeat(session *Session) {
	envelope, err := NewEnvelope(EventPong, PongPayload{Timestamp: time.Now().UTC()})
	if err != nil {
		return
	}
	if err := session.push(envelope); err != nil {
		s.log.Debug("Pong delivery dropped", "session", session.ID, "error", err)
	}
}
