package observability

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMonitor_RecordRequest(t *testing.T) {
	req := require.New(t)
	m := NewMonitor(logs.GetLoggerFromLevel(slog.LevelDebug), time.Second)

	for _, status := range []int{200, 201, 400, 404, 503} {
		m.RecordRequest(status)
	}
	m.refresh()

	stats := m.Latest()
	req.Equal(uint64(5), stats.Requests)
	req.Equal(uint64(2), stats.ClientErrors)
	req.Equal(uint64(1), stats.ServerErrors)
	req.Positive(stats.RequestRate)
	req.Positive(stats.NumGoroutine)
	req.False(stats.UpdatedAt.IsZero())
}

func TestMonitor_Run_RefreshesUntilCanceled(t *testing.T) {
	req := require.New(t)
	m := NewMonitor(logs.GetLoggerFromLevel(slog.LevelDebug), 10*time.Millisecond)
	m.RecordRequest(200)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	req.Eventually(func() bool {
		return m.Latest().Requests == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	req.NoError(<-done)
}
