package sync

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/existflow/taskdeck/internal/logger"
)

const probeTimeout = 3 * time.Second

// Monitor tracks whether the sync server is reachable
type Monitor struct {
	addr     string
	interval time.Duration
	dial     func(ctx context.Context, network, address string) (net.Conn, error)

	mu       sync.Mutex
	online   bool
	known    bool
	onOnline func()
}

// NewMonitor creates a reachability monitor for the server behind serverURL
func NewMonitor(serverURL string, interval time.Duration) (*Monitor, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server url: %q has no host", serverURL)
	}

	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	d := &net.Dialer{Timeout: probeTimeout}
	return &Monitor{
		addr:     net.JoinHostPort(u.Hostname(), port),
		interval: interval,
		dial:     d.DialContext,
	}, nil
}

// SetOnOnline sets a callback fired on every offline -> online transition
func (m *Monitor) SetOnOnline(callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOnline = callback
}

// Online returns the last observed reachability
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Check probes the server now and records the result
func (m *Monitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	conn, err := m.dial(ctx, "tcp", m.addr)
	online := err == nil
	if conn != nil {
		_ = conn.Close()
	}

	m.mu.Lock()
	cameOnline := online && m.known && !m.online
	changed := !m.known || online != m.online
	m.online = online
	m.known = true
	callback := m.onOnline
	m.mu.Unlock()

	if changed {
		logger.Info("Connectivity changed", logger.F("online", online), logger.F("addr", m.addr))
	}
	if cameOnline && callback != nil {
		callback()
	}
	return online
}

// Run probes periodically until ctx is done
func (m *Monitor) Run(ctx context.Context) {
	if m.interval <= 0 {
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// AlwaysOnline is a reachability source for callers that skip probing
type AlwaysOnline struct{}

// Online always returns true
func (AlwaysOnline) Online() bool { return true }
