package errors

import "fmt"

// Authentication failures are fatal to the connect attempt: the transport is
// closed and nothing is retried.
var (
	ErrUnauthenticated   = fmt.Errorf("identity service rejected the session token")
	ErrAuthTimeout       = fmt.Errorf("identity resolution timed out")
	ErrMalformedIdentity = fmt.Errorf("identity service response carries no identity")
)

// Recoverable failures are reported to the offending connection as an error
// event; the connection stays open.
var (
	ErrNotAuthenticated = fmt.Errorf("session is not authenticated")
	ErrUnknownChannel   = fmt.Errorf("session has not joined this channel")
	ErrEmptyContent     = fmt.Errorf("message content is empty")
	ErrPersistFailed    = fmt.Errorf("message could not be persisted")
	ErrReadFailed       = fmt.Errorf("history could not be read")
)

var ErrWorkerPanic = fmt.Errorf("worker panic")
