package internal

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chat-sync/observability"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

const defaultInspectPrefix = "e:"

type InspectRow struct {
	Key       string
	Type      string
	Kind      string
	Timestamp string
	EntityID  string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]int
}

// NewInspectHandler renders every key under the ?prefix= query parameter
// together with a count of keys per record type.
func NewInspectHandler(db *badger.DB, mapper RowMapper) http.Handler {
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))
	if mapper == nil {
		mapper = DefaultMapper
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = defaultInspectPrefix
		}
		data := PageData{Prefix: prefix, Stats: make(map[string]int)}

		err := db.View(func(txn *badger.Txn) error {
			options := badger.DefaultIteratorOptions
			options.PrefetchValues = false
			it := txn.NewIterator(options)
			defer it.Close()
			for it.Rewind(); it.Valid(); it.Next() {
				key := string(it.Item().Key())
				data.Stats[keyType(key)]++
				if !strings.HasPrefix(key, prefix) {
					continue
				}
				err := it.Item().Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(key, val))
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})
}

// NewStatsHandler serves the latest monitor snapshot as JSON.
func NewStatsHandler(monitor *observability.Monitor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(monitor.Latest()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// StartDebugServer serves the inspector, and the stats when monitor is set,
// on port until ctx is canceled.
func StartDebugServer(ctx context.Context, db *badger.DB, monitor *observability.Monitor, port int, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/inspect", NewInspectHandler(db, nil))
	if monitor != nil {
		mux.Handle("/stats", NewStatsHandler(monitor))
	}
	server := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Debug inspector listening", "url", fmt.Sprintf("http://%s/inspect?prefix=%s", server.Addr, defaultInspectPrefix))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Debug inspector stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

// DefaultMapper decodes the entity store key layout:
// e:{kind}:{id}, o:{kind}:{seq}, l:{kind}:{owner}:{ts}:{seq}, s:{kind}, q:{kind}.
func DefaultMapper(key string, val []byte) InspectRow {
	parts := strings.Split(key, ":")
	row := InspectRow{
		Key:       key,
		Type:      keyType(key),
		Timestamp: "--:--:--",
		EntityID:  "-",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
	if len(parts) >= 2 {
		row.Kind = parts[1]
	}
	switch parts[0] {
	case "e":
		if len(parts) >= 3 {
			row.EntityID = strings.Join(parts[2:], ":")
		}
	case "o":
		row.EntityID = string(val)
	case "l":
		if len(parts) >= 5 {
			row.EntityID = parts[2]
			if ms, err := strconv.ParseInt(parts[3], 10, 64); err == nil {
				row.Timestamp = time.UnixMilli(ms).UTC().Format("15:04:05")
			}
		}
	}
	return row
}

func keyType(key string) string {
	switch {
	case strings.HasPrefix(key, "e:"):
		return "RECORD"
	case strings.HasPrefix(key, "o:"):
		return "ORDER"
	case strings.HasPrefix(key, "l:"):
		return "LOG"
	case strings.HasPrefix(key, "s:"):
		return "SEED"
	case strings.HasPrefix(key, "q:"):
		return "SEQUENCE"
	default:
		return "RAW"
	}
}
