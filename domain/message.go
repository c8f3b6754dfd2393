package domain

import "time"

// Message is an immutable chat event once stored. The Read flag is reserved:
// it is persisted with its default and no handler mutates it today.
type Message struct {
	ID        uint64 // assigned by the store, strictly increasing
	ContextID string // NoContext for friend chats
	Sender    Identity
	Recipient Identity
	Content   string
	CreatedAt time.Time
	Read      bool
}
