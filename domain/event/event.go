package event

import (
	"time"

	"chat-live/domain"
)

// DomainEvent is the closed set of server-side occurrences the router fans
// out to connected sessions. Channel identifies the scope the event targets;
// the zero ChannelID means every connected session.
type DomainEvent interface {
	Channel() domain.ChannelID
}

// Broadcast targets all connected sessions.
const Broadcast = domain.ChannelID("")

// ParticipantJoined is emitted to the whole channel, the newly joined
// connection included.
type ParticipantJoined struct {
	ChannelID    domain.ChannelID
	ContextID    string
	Identity     domain.Identity
	Participants []domain.Identity
}

func (e ParticipantJoined) Channel() domain.ChannelID { return e.ChannelID }

// ParticipantLeft is emitted to the remaining channel members on an explicit
// leave. A transport disconnect discards memberships silently instead.
type ParticipantLeft struct {
	ChannelID domain.ChannelID
	ContextID string
	Identity  domain.Identity
	At        time.Time
}

func (e ParticipantLeft) Channel() domain.ChannelID { return e.ChannelID }

// MessageStored carries a durably recorded message to the recipient's
// personal channel. The sender never receives this event for its own
// message; it gets a delivery acknowledgment instead.
type MessageStored struct {
	ChannelID domain.ChannelID
	Message   domain.Message
}

func (e MessageStored) Channel() domain.ChannelID { return e.ChannelID }

// TypingSignal is broadcast to the conversation channel, originator excluded.
// Never persisted.
type TypingSignal struct {
	ChannelID domain.ChannelID
	ContextID string
	Identity  domain.Identity
	Typing    bool
}

func (e TypingSignal) Channel() domain.ChannelID { return e.ChannelID }

// PresenceChanged announces an identity going online or offline to every
// other connected session. Best-effort, fire-and-forget.
type PresenceChanged struct {
	Identity domain.Identity
	Online   bool
	At       time.Time
}

func (e PresenceChanged) Channel() domain.ChannelID { return Broadcast }
