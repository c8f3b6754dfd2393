package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-live/domain"
)

func TestPresence_Online_Then_Offline(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	// When an identity connects
	entry := presence.SetOnline("a@x.com", "conn-1")

	// Then it is online with a connection timestamp
	req.True(entry.Online)
	req.False(entry.ConnectedAt.IsZero())
	req.Equal(1, presence.OnlineCount())

	// When its only connection goes away
	entry, wentOffline := presence.SetOffline("a@x.com", "conn-1")

	// Then the identity is offline with a disconnection timestamp
	req.True(wentOffline)
	req.False(entry.Online)
	req.False(entry.DisconnectedAt.IsZero())
	req.Zero(presence.OnlineCount())
}

func TestPresence_Second_Device_Keeps_Identity_Online(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	// Given an identity connected from two devices
	presence.SetOnline("a@x.com", "laptop")
	presence.SetOnline("a@x.com", "phone")

	// When one device disconnects
	entry, wentOffline := presence.SetOffline("a@x.com", "laptop")

	// Then the identity stays online until the last device is gone
	req.False(wentOffline)
	req.True(entry.Online)

	_, wentOffline = presence.SetOffline("a@x.com", "phone")
	req.True(wentOffline)
}

func TestPresence_SetOffline_Unknown_Identity(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	_, wentOffline := presence.SetOffline("ghost@x.com", "conn-1")
	req.False(wentOffline)
}

func TestPresence_Snapshot_Holds_Offline_Entries(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	presence.SetOnline("a@x.com", "conn-1")
	presence.SetOnline("b@x.com", "conn-2")
	presence.SetOffline("b@x.com", "conn-2")

	// Offline identities stay visible for last-seen queries until swept
	snapshot := presence.Snapshot()
	req.Len(snapshot, 2)

	online := 0
	for _, entry := range snapshot {
		if entry.Online {
			online++
			req.Equal(domain.Identity("a@x.com"), entry.Identity)
		}
	}
	req.Equal(1, online)
}

func TestPresence_Sweep_Reclaims_Stale_Offline_Entries(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	now := time.Now()
	presence.now = func() time.Time { return now.Add(-2 * time.Hour) }
	presence.SetOnline("stale@x.com", "conn-1")
	presence.SetOffline("stale@x.com", "conn-1")

	presence.now = time.Now
	presence.SetOnline("fresh@x.com", "conn-2")
	presence.SetOffline("fresh@x.com", "conn-2")

	// When sweeping with a one hour retention
	removed := presence.Sweep(1 * time.Hour)

	// Then only the stale entry is reclaimed
	req.Equal(1, removed)
	req.Len(presence.Snapshot(), 1)
}
