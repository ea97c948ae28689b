// Package shutdown signals graceful shutdown after a quiet period, for
// scale-to-zero hosting where the platform restarts the machine on the next
// request.
package shutdown

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// IdleMonitor watches request activity and closes its shutdown channel once
// the server has been idle for the configured timeout. Probe traffic is
// excluded so health checks alone never keep a machine alive.
type IdleMonitor struct {
	timeout      time.Duration
	logger       *slog.Logger
	excludePaths []string

	active       atomic.Int64
	lastActivity atomic.Int64 // unix nanos of the most recent tracked request

	shutdownChan chan struct{}
	stopChan     chan struct{}
}

// IdleMonitorConfig configures an IdleMonitor. A zero Timeout disables
// monitoring entirely.
type IdleMonitorConfig struct {
	Timeout      time.Duration
	Logger       *slog.Logger
	ExcludePaths []string
}

// NewIdleMonitor creates an idle monitor. Call Start to begin watching.
func NewIdleMonitor(cfg IdleMonitorConfig) *IdleMonitor {
	m := &IdleMonitor{
		timeout:      cfg.Timeout,
		logger:       cfg.Logger,
		excludePaths: cfg.ExcludePaths,
		shutdownChan: make(chan struct{}),
		stopChan:     make(chan struct{}),
	}
	m.lastActivity.Store(time.Now().UnixNano())
	return m
}

// Start begins the idle watch loop.
func (m *IdleMonitor) Start() {
	if m.timeout <= 0 {
		m.logger.Debug("idle monitoring disabled")
		return
	}
	m.logger.Info("idle monitoring started", "timeout", m.timeout, "exclude_paths", m.excludePaths)
	go m.run()
}

// Stop halts the watch loop without signaling shutdown.
func (m *IdleMonitor) Stop() {
	if m.timeout <= 0 {
		return
	}
	close(m.stopChan)
}

// ShutdownChan is closed when the idle timeout elapses.
func (m *IdleMonitor) ShutdownChan() <-chan struct{} {
	return m.shutdownChan
}

// Middleware counts in-flight requests and stamps activity, skipping
// excluded paths.
func (m *IdleMonitor) Middleware(next http.Handler) http.Handler {
	if m.timeout <= 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.excluded(r.URL.Path) {
			m.active.Add(1)
			m.lastActivity.Store(time.Now().UnixNano())
			defer func() {
				m.active.Add(-1)
				m.lastActivity.Store(time.Now().UnixNano())
			}()
		}
		next.ServeHTTP(w, r)
	})
}

func (m *IdleMonitor) excluded(path string) bool {
	for _, p := range m.excludePaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (m *IdleMonitor) run() {
	// Poll well inside the timeout so shutdown isn't late by a full period.
	interval := m.timeout / 6
	if interval < 5*time.Second {
		interval = 5 * time.Second
	}
	if interval > 30*time.Second {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			active := m.active.Load()
			if active > 0 {
				// A long-running generation request counts as activity for
				// its whole duration.
				m.lastActivity.Store(time.Now().UnixNano())
				continue
			}

			idle := time.Since(time.Unix(0, m.lastActivity.Load()))
			if idle >= m.timeout {
				m.logger.Info("idle timeout reached, signaling shutdown",
					"idle_time", idle, "timeout", m.timeout)
				close(m.shutdownChan)
				return
			}
			m.logger.Debug("idle check", "idle_time", idle, "active_requests", active)
		}
	}
}
