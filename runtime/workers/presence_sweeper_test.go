package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-live/runtime"
)

func TestPresenceSweeper_Reclaims_Offline_Entries(t *testing.T) {
	req := require.New(t)
	presence := runtime.NewPresenceRegistry()

	// Given an identity that disconnected
	presence.SetOnline("gone@x.com", "conn-1")
	presence.SetOffline("gone@x.com", "conn-1")
	req.Len(presence.Snapshot(), 1)

	sweeper := NewPresenceSweeper(slog.Default(), presence, 20*time.Millisecond, time.Nanosecond)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// When the sweeper runs past its retention window
	err := sweeper.Run(ctx)
	req.ErrorIs(err, context.DeadlineExceeded)

	// Then the stale entry is gone
	req.Empty(presence.Snapshot())
}
