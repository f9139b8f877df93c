package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats is the latest snapshot served by the debug server.
type Stats struct {
	Requests     uint64    `json:"requests"`
	ClientErrors uint64    `json:"client_errors"`
	ServerErrors uint64    `json:"server_errors"`
	RequestRate  float64   `json:"request_rate"` // requests per second over the last interval
	AllocMemMb   uint64    `json:"alloc_mem_mb"`
	NumGC        uint32    `json:"num_gc"`
	NumGoroutine int       `json:"num_goroutine"`
	CPUPercent   float64   `json:"cpu_percent"`
	RAMPercent   float32   `json:"ram_percent"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Monitor counts HTTP traffic and samples the process every interval.
type Monitor struct {
	log      *slog.Logger
	interval time.Duration
	proc     *process.Process

	requests     atomic.Uint64
	window       atomic.Uint64
	clientErrors atomic.Uint64
	serverErrors atomic.Uint64

	mu        sync.RWMutex
	latest    Stats
	lastCheck time.Time
}

func NewMonitor(log *slog.Logger, interval time.Duration) *Monitor {
	m := &Monitor{log: log, interval: interval, lastCheck: time.Now()}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process metrics unavailable", "error", err)
	} else {
		m.proc = proc
	}
	return m
}

// RecordRequest is called once per served request.
func (m *Monitor) RecordRequest(status int) {
	m.requests.Add(1)
	m.window.Add(1)
	switch {
	case status >= 500:
		m.serverErrors.Add(1)
	case status >= 400:
		m.clientErrors.Add(1)
	}
}

func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.log.Debug("Context done, stopping monitor")
			return nil
		case <-ticker.C:
			m.refresh()
		}
	}
}

func (m *Monitor) refresh() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(m.lastCheck).Seconds(); elapsed > 0 {
		m.latest.RequestRate = float64(m.window.Swap(0)) / elapsed
	}
	m.lastCheck = now

	m.latest.Requests = m.requests.Load()
	m.latest.ClientErrors = m.clientErrors.Load()
	m.latest.ServerErrors = m.serverErrors.Load()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	m.latest.AllocMemMb = mem.Alloc / 1024 / 1024
	m.latest.NumGC = mem.NumGC
	m.latest.NumGoroutine = runtime.NumGoroutine()

	if m.proc != nil {
		if cpu, err := m.proc.CPUPercent(); err == nil {
			m.latest.CPUPercent = cpu
		}
		if ram, err := m.proc.MemoryPercent(); err == nil {
			m.latest.RAMPercent = ram
		}
	}
	m.latest.UpdatedAt = now.UTC()

	m.log.Debug("Stats refreshed",
		"requests", m.latest.Requests,
		"rate", m.latest.RequestRate,
		"mem_mb", m.latest.AllocMemMb)
}

func (m *Monitor) Latest() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}
