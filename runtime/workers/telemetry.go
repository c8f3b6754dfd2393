package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"chat-live/runtime"
)

// TelemetryWorker logs process health (CPU, RSS) together with the hub's
// live counters at a fixed interval.
type TelemetryWorker struct {
	log      *slog.Logger
	hub      *runtime.Hub
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, hub *runtime.Hub, interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, hub: hub, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	w.log.Info("Starting telemetry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := getSelfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			stats := w.hub.Stats()
			w.log.Info("Telemetry",
				"ram_bytes", rss,
				"cpu_percent", cpu,
				"connections_open", stats.ConnectionsOpen,
				"identities_online", stats.IdentitiesOnline,
				"active_conversations", stats.ActiveConversation,
				"messages_stored", stats.MessagesStored,
				"deliveries_dropped", stats.DeliveriesDropped,
			)
		}
	}
}

// getSelfStats retrieves memory and CPU usage of the given process.
func getSelfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
