// Package internal hosts the operational debug endpoint: live counters and
// a read-only peek into the message store. Not part of the client protocol.
package internal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dgraph-io/badger/v4"

	"chat-live/observability"
)

type StatsProvider func() observability.MonitoringStats

type StoredRow struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// StartDebugServer serves /debug/stats and /debug/messages on its own
// listener, away from the client-facing port. Failures are logged and the
// main server keeps running without the endpoint.
func StartDebugServer(log *slog.Logger, db *badger.DB, port int, statsProvider StatsProvider) {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statsProvider())
	})

	mux.HandleFunc("/debug/messages", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}
		rows := scanPrefix(db, prefix)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux); err != nil {
			log.Error("Debug server stopped", "port", port, "error", err)
		}
	}()
	log.Info("Debug server listening", "port", port)
}

func scanPrefix(db *badger.DB, prefix string) []StoredRow {
	rows := make([]StoredRow, 0)
	_ = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			_ = item.Value(func(val []byte) error {
				rows = append(rows, StoredRow{
					Key:   string(item.Key()),
					Value: json.RawMessage(append([]byte(nil), val...)),
				})
				return nil
			})
		}
		return nil
	})
	return rows
}
