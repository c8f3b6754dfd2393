package workers

import (
	"context"
	"log/slog"
	"time"

	"chat-live/runtime"
)

// PresenceSweeper periodically reclaims offline presence entries older than
// the retention window, so long-gone identities stop accumulating in memory
// while recent disconnects keep answering last-seen queries.
type PresenceSweeper struct {
	log       *slog.Logger
	presence  *runtime.PresenceRegistry
	interval  time.Duration
	retention time.Duration
}

func NewPresenceSweeper(log *slog.Logger, presence *runtime.PresenceRegistry,
	interval, retention time.Duration) *PresenceSweeper {
	return &PresenceSweeper{log: log, presence: presence, interval: interval, retention: retention}
}

func (w *PresenceSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := w.presence.Sweep(w.retention); removed > 0 {
				w.log.Info("Swept stale presence entries", "removed", removed)
			}
		}
	}
}
