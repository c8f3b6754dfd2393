// Package ws is the WebSocket transport of the messaging core: connect
// handshake, per-connection session state machine, and the typed event
// protocol spoken with clients.
package ws

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"chat-live/domain"
)

// Client to server events.
const (
	EventJoin        = "join"
	EventSend        = "send"
	EventTypingStart = "typingStart"
	EventTypingStop  = "typingStop"
	EventLeave       = "leave"
	EventListOnline  = "listOnline"
	EventHeartbeat   = "heartbeat"
)

// Server to client events.
const (
	EventConnected       = "connected"
	EventJoined          = "joined"
	EventHistory         = "history"
	EventNewMessage      = "newMessage"
	EventMessageAck      = "messageAck"
	EventPresenceChanged = "presenceChanged"
	EventParticipantLeft = "participantLeft"
	EventTyping          = "typing"
	EventOnlineUsers     = "onlineUsers"
	EventError           = "error"
	EventPong            = "pong"
)

// Envelope frames every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope frames a payload under an event name.
func NewEnvelope(eventName string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Event: eventName}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: eventName, Data: data}, nil
}

var validate = validator.New()

// decodePayload unmarshals and validates a client payload before any
// handler logic runs, so malformed payloads are rejected uniformly.
func decodePayload[T any](raw json.RawMessage) (T, error) {
	var payload T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return payload, err
		}
	}
	if err := validate.Struct(&payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// Client request payloads.

type JoinRequest struct {
	ContextID    string `json:"contextId,omitempty"`
	PeerIdentity string `json:"peerIdentity" validate:"required,email"`
}

type SendRequest struct {
	ContextID         string `json:"contextId,omitempty"`
	RecipientIdentity string `json:"recipientIdentity" validate:"required,email"`
	// Message is validated semantically (trimmed emptiness) by the router,
	// not structurally, so whitespace-only content yields the same
	// validation error as an absent field.
	Message string `json:"message"`
}

type TypingRequest struct {
	ContextID         string `json:"contextId,omitempty"`
	RecipientIdentity string `json:"recipientIdentity" validate:"required,email"`
}

type LeaveRequest struct {
	ContextID         string `json:"contextId,omitempty"`
	RecipientIdentity string `json:"recipientIdentity" validate:"required,email"`
}

// Server response payloads.

type ConnectedPayload struct {
	Message   string    `json:"message"`
	Identity  string    `json:"identity"`
	Timestamp time.Time `json:"timestamp"`
}

type JoinedPayload struct {
	ContextID    string   `json:"contextId,omitempty"`
	ChannelID    string   `json:"channelId"`
	Identity     string   `json:"identity"`
	Participants []string `json:"participants"`
}

type HistoryPayload struct {
	ContextID string           `json:"contextId,omitempty"`
	Messages  []MessagePayload `json:"messages"`
}

type MessagePayload struct {
	ID                uint64    `json:"id"`
	ContextID         string    `json:"contextId,omitempty"`
	SenderIdentity    string    `json:"senderIdentity"`
	RecipientIdentity string    `json:"recipientIdentity"`
	Content           string    `json:"content"`
	Timestamp         time.Time `json:"timestamp"`
	Read              bool      `json:"read"`
}

type AckPayload struct {
	MessageID uint64    `json:"messageId"`
	Timestamp time.Time `json:"timestamp"`
}

type PresencePayload struct {
	Identity  string    `json:"identity"`
	Online    bool      `json:"online"`
	Timestamp time.Time `json:"timestamp"`
}

type ParticipantLeftPayload struct {
	ContextID string    `json:"contextId,omitempty"`
	Identity  string    `json:"identity"`
	Timestamp time.Time `json:"timestamp"`
}

type TypingPayload struct {
	Identity  string `json:"identity"`
	ContextID string `json:"contextId,omitempty"`
	Typing    bool   `json:"typing"`
}

type OnlineUser struct {
	Identity    string    `json:"identity"`
	ConnectedAt time.Time `json:"connectedAt"`
}

type OnlineUsersPayload struct {
	Users []OnlineUser `json:"users"`
	Count int          `json:"count"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PongPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

func toMessagePayload(message domain.Message) MessagePayload {
	return MessagePayload{
		ID:                message.ID,
		ContextID:         message.ContextID,
		SenderIdentity:    string(message.Sender),
		RecipientIdentity: string(message.Recipient),
		Content:           message.Content,
		Timestamp:         message.CreatedAt,
		Read:              message.Read,
	}
}

func toMessagePayloads(messages []domain.Message) []MessagePayload {
	return lo.Map(messages, func(message domain.Message, _ int) MessagePayload {
		return toMessagePayload(message)
	})
}

func toOnlineUsers(entries []domain.PresenceEntry) []OnlineUser {
	return lo.Map(entries, func(entry domain.PresenceEntry, _ int) OnlineUser {
		return OnlineUser{
			Identity:    string(entry.Identity),
			ConnectedAt: entry.ConnectedAt,
		}
	})
}
