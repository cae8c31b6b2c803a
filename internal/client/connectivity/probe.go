package connectivity

import (
	"context"
	"time"

	"github.com/iobis/edna-sample-app/internal/logging"
)

// DefaultProbeTimeout bounds a single reachability probe.
const DefaultProbeTimeout = 3 * time.Second

// Prober checks reachability of the remote; nil means reachable.
type Prober interface {
	Ping(ctx context.Context) error
}

// ProbeMonitor polls a Prober on a fixed interval. It starts offline, so
// the first successful probe counts as an offline to online transition.
type ProbeMonitor struct {
	state

	prober   Prober
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger
}

func NewProbeMonitor(prober Prober, interval time.Duration, log logging.Logger) *ProbeMonitor {
	return &ProbeMonitor{
		prober:   prober,
		interval: interval,
		timeout:  DefaultProbeTimeout,
		log:      log,
	}
}

// Check probes once, updates the state and returns it.
func (m *ProbeMonitor) Check(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.prober.Ping(pctx)
	cancel()

	online := err == nil
	if m.set(online) {
		if online {
			m.log.Info(ctx, "connection restored")
		} else {
			m.log.Warn(ctx, "connection lost", "error", err)
		}
	}
	return online
}

// Run probes immediately and then every interval until ctx is done.
func (m *ProbeMonitor) Run(ctx context.Context) {
	m.Check(ctx)

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
