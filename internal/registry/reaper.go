package registry

import (
	"time"

	"github.com/ahmadhassan44/distributed-lxc/internal/obslog"
	"github.com/rs/zerolog"
)

// Reaper periodically disconnects workers whose heartbeat has gone stale,
// using a ticker-plus-stop-channel loop for its periodic sweep.
type Reaper struct {
	registry *Registry
	interval time.Duration
	timeout  time.Duration
	onStale  func(nodeID string)
	stopCh   chan struct{}
}

// NewReaper builds a reaper that, every interval, disconnects any worker
// whose last heartbeat is older than timeout. onStale is invoked (outside
// the registry lock) for each worker it disconnects, so the caller can force
// its containers into ERROR.
func NewReaper(reg *Registry, interval, timeout time.Duration, onStale func(nodeID string)) *Reaper {
	return &Reaper{
		registry: reg,
		interval: interval,
		timeout:  timeout,
		onStale:  onStale,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the reaper loop in a background goroutine.
func (r *Reaper) Start() {
	go r.run()
}

// Stop ends the reaper loop.
func (r *Reaper) Stop() {
	close(r.stopCh)
}

func (r *Reaper) run() {
	logger := obslog.WithComponent("reaper")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweepOnce(logger)
		case <-r.stopCh:
			return
		}
	}
}

// Sweep runs a single liveness sweep synchronously, for tests and callers
// that don't want to wait on the ticker.
func (r *Reaper) Sweep() {
	r.sweepOnce(obslog.WithComponent("reaper"))
}

func (r *Reaper) sweepOnce(logger zerolog.Logger) {
	cutoff := time.Now().Add(-r.timeout)
	for _, id := range r.registry.StaleBefore(cutoff) {
		r.registry.MarkDisconnected(id)
		logger.Warn().Str("node_id", id).Msg("worker heartbeat stale, marking disconnected")
		if r.onStale != nil {
			r.onStale(id)
		}
	}
}
