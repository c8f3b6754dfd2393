package domain

import "time"

// PresenceEntry is the point-in-time connection status of one identity.
// Presence lives only in process memory; a restart forgets everything.
type PresenceEntry struct {
	Identity       Identity
	Online         bool
	ConnectedAt    time.Time
	DisconnectedAt time.Time // zero while online
}
