//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-live/domain"
	"chat-live/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// for logging and supervision purposes.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives fanned-out events for one live connection.
// Implementations must not block: a sink that cannot keep up drops the
// event (or its connection), never the dispatch loop.
type EventSink interface {
	Consume(e event.DomainEvent) error
}

// IdentityResolver exchanges an opaque session token for a verified
// identity. Safe for concurrent use.
type IdentityResolver interface {
	Resolve(ctx context.Context, sessionToken string) (domain.Identity, error)
}

// MessageStore is the durable append-only log of messages.
type MessageStore interface {
	Append(contextID string, sender, recipient domain.Identity, content string) (domain.Message, error)
	// History returns at most limit messages between a and b under the given
	// context, chronological ascending. The predicate is symmetric in a and b.
	History(contextID string, a, b domain.Identity, limit int) ([]domain.Message, error)
}

// IPresence tracks which identities currently hold live connections.
type IPresence interface {
	SetOnline(id domain.Identity, connID string) domain.PresenceEntry
	// SetOffline reports whether the identity went fully offline, i.e. the
	// removed connection was its last one.
	SetOffline(id domain.Identity, connID string) (domain.PresenceEntry, bool)
	Snapshot() []domain.PresenceEntry
}

// IRegistry binds live connections to identities and channel subscriptions.
type IRegistry interface {
	Register(connID string, id domain.Identity, sink EventSink)
	Unregister(connID string)
	Subscribe(connID string, ch domain.ChannelID)
	Unsubscribe(connID string, ch domain.ChannelID)
	Subscribed(connID string, ch domain.ChannelID) bool
	SinksForChannel(ch domain.ChannelID, skipConnID string) []EventSink
	SinksForIdentity(id domain.Identity) []EventSink
	AllSinks(skipConnID string) []EventSink
}
