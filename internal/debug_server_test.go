package internal

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-sync/observability"
	"chat-sync/repositories"
	"chat-sync/storage"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestDefaultMapper(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want InspectRow
	}{
		{
			name: "record",
			key:  "e:user:u1",
			val:  "{}",
			want: InspectRow{Key: "e:user:u1", Type: "RECORD", Kind: "user", Timestamp: "--:--:--", EntityID: "u1", Detail: "Size: 2 bytes"},
		},
		{
			name: "order index",
			key:  "o:chat:00000000000000000007",
			val:  "u1-u2",
			want: InspectRow{Key: "o:chat:00000000000000000007", Type: "ORDER", Kind: "chat", Timestamp: "--:--:--", EntityID: "u1-u2", Detail: "Size: 5 bytes"},
		},
		{
			name: "log entry",
			key:  "l:msg:u1-u2:0000000000000003600:00000000000000000001",
			val:  "x",
			want: InspectRow{Key: "l:msg:u1-u2:0000000000000003600:00000000000000000001", Type: "LOG", Kind: "msg", Timestamp: "00:00:03", EntityID: "u1-u2", Detail: "Size: 1 bytes"},
		},
		{
			name: "seed sentinel",
			key:  "s:user",
			val:  "\x01",
			want: InspectRow{Key: "s:user", Type: "SEED", Kind: "user", Timestamp: "--:--:--", EntityID: "-", Detail: "Size: 1 bytes"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DefaultMapper(tt.key, []byte(tt.val)))
		})
	}
}

func TestInspectHandler_Renders_Seeded_Store(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	req.NoError(err)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := storage.NewStore(db, log, 10)
	t.Cleanup(func() {
		_ = store.Close()
		_ = db.Close()
	})
	req.NoError(repositories.NewUserRepository(store, log).EnsureSeed())
	req.NoError(repositories.NewChatRepository(store, log).EnsureSeed())

	rec := httptest.NewRecorder()
	NewInspectHandler(db, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inspect?prefix=e:chat:", nil))

	req.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	req.Contains(body, "e:chat:u1-u2")
	req.Contains(body, "e:chat:c3")
	req.NotContains(body, "<td>e:user:u1</td>")
	req.Contains(body, "RECORD: 10")
	req.Contains(body, "SEED: 2")
}

func TestStatsHandler_Serves_Json(t *testing.T) {
	req := require.New(t)
	monitor := observability.NewMonitor(logs.GetLoggerFromLevel(slog.LevelDebug), time.Second)
	monitor.RecordRequest(200)

	rec := httptest.NewRecorder()
	NewStatsHandler(monitor).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("application/json", rec.Header().Get("Content-Type"))
	var stats observability.Stats
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &stats))
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		BadgerFilepath:    "/tmp/db",
		SessionSecret:     "0123456789abcdef",
		SessionDuration:   time.Hour,
		SequenceBandwidth: 100,
		MaxPageSize:       100,
		MonitorInterval:   time.Second,
	}
	require.NoError(t, valid.Validate())

	short := valid
	short.SessionSecret = "short"
	require.Error(t, short.Validate())

	noPath := valid
	noPath.BadgerFilepath = ""
	require.Error(t, noPath.Validate())
	noPath.BadgerInMemory = true
	require.NoError(t, noPath.Validate())
}

func TestConfig_CensoredWordList(t *testing.T) {
	req := require.New(t)
	req.Empty(Config{}.CensoredWordList())
	req.Equal([]string{"badger", "snake"}, Config{CensoredWords: " badger, ,snake,"}.CensoredWordList())
}
