// Package registry holds the coordinator's authoritative view of worker
// nodes: registration, liveness tracking, and lookup. It is a plain
// map-plus-mutex table keyed by node id.
package registry

import (
	"sync"
	"time"

	"github.com/ahmadhassan44/distributed-lxc/internal/model"
	"github.com/ahmadhassan44/distributed-lxc/internal/orcherr"
)

// Registry is the coordinator's node table. Lookups by id are O(1); List and
// StaleBefore scan every record. All operations run under a single RWMutex;
// callers must never perform I/O while holding a
// lock obtained indirectly through these methods (none of them expose the
// lock, so this is enforced by construction).
type Registry struct {
	mu       sync.RWMutex
	workers  map[string]*model.Worker
	capacity int
}

// New creates an empty registry capped at capacity worker slots.
func New(capacity int) *Registry {
	return &Registry{
		workers:  make(map[string]*model.Worker),
		capacity: capacity,
	}
}

// Register adds a newly-connected worker, or refreshes an existing record
// when a worker re-registers under the same id: address fields and the
// connection back-reference are replaced, the container index is kept. It
// returns orcherr.CapacityExceeded if the registry is already at its
// configured cap.
func (r *Registry) Register(w *model.Worker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.workers[w.ID]
	if !exists && len(r.workers) >= r.capacity {
		return orcherr.New(orcherr.CapacityExceeded, "registry: at capacity (%d workers)", r.capacity)
	}

	if exists {
		existing.Hostname = w.Hostname
		existing.IP = w.IP
		existing.Port = w.Port
		existing.Conn = w.Conn
		existing.State = model.NodeConnected
		existing.LastHeartbeat = time.Now()
		return nil
	}

	w.State = model.NodeConnected
	w.LastHeartbeat = time.Now()
	r.workers[w.ID] = w
	return nil
}

// Touch updates a worker's resource sample and liveness timestamp, and
// clears any stale DISCONNECTED/ERROR state back to CONNECTED — a worker
// that is still heartbeating is, by definition, alive.
func (r *Registry) Touch(id string, res model.Resources) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[id]
	if !ok {
		return orcherr.New(orcherr.NotFound, "registry: unknown worker %q", id)
	}
	w.Resources = res
	w.LastHeartbeat = time.Now()
	if w.State == model.NodeDisconnected || w.State == model.NodeError {
		w.State = model.NodeConnected
	}
	return nil
}

// Get returns a copy of the worker record for id.
func (r *Registry) Get(id string) (model.Worker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.workers[id]
	if !ok {
		return model.Worker{}, false
	}
	return *w, true
}

// SetState transitions a worker's node state directly (e.g. to BUSY while a
// command is in flight, or back to CONNECTED once it completes).
func (r *Registry) SetState(id string, state model.NodeState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[id]
	if !ok {
		return orcherr.New(orcherr.NotFound, "registry: unknown worker %q", id)
	}
	w.State = state
	return nil
}

// AddContainer records that containerID now lives on nodeID.
func (r *Registry) AddContainer(nodeID, containerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[nodeID]
	if !ok {
		return orcherr.New(orcherr.NotFound, "registry: unknown worker %q", nodeID)
	}
	for _, id := range w.Containers {
		if id == containerID {
			return nil
		}
	}
	w.Containers = append(w.Containers, containerID)
	w.Resources.ContainerCount++
	return nil
}

// RemoveContainer forgets that containerID lives on nodeID.
func (r *Registry) RemoveContainer(nodeID, containerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[nodeID]
	if !ok {
		return orcherr.New(orcherr.NotFound, "registry: unknown worker %q", nodeID)
	}
	for i, id := range w.Containers {
		if id == containerID {
			w.Containers = append(w.Containers[:i], w.Containers[i+1:]...)
			if w.Resources.ContainerCount > 0 {
				w.Resources.ContainerCount--
			}
			return nil
		}
	}
	return nil
}

// MarkDisconnected flips a worker to DISCONNECTED and clears its connection
// back-reference, closing the underlying socket so the goroutine blocked
// reading it unblocks instead of leaking. It does not remove the record:
// the coordinator keeps disconnected workers around so operators can still
// inspect what was last known about them; their containers are forced to
// ERROR separately by the ledger, never deleted outright.
func (r *Registry) MarkDisconnected(id string) {
	r.mu.Lock()
	w, ok := r.workers[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	conn := w.Conn
	w.State = model.NodeDisconnected
	w.Conn = nil
	r.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// Remove deletes a worker record entirely.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workers, id)
}

// List returns a snapshot of every worker record, for operator listing and
// the placement scorer's candidate scan.
func (r *Registry) List() []model.Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Worker, 0, len(r.workers))
	for _, w := range r.workers {
		out = append(out, *w)
	}
	return out
}

// StaleBefore returns the IDs of every CONNECTED/BUSY worker whose last
// heartbeat predates cutoff — candidates for the reaper to disconnect.
func (r *Registry) StaleBefore(cutoff time.Time) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stale []string
	for id, w := range r.workers {
		if (w.State == model.NodeConnected || w.State == model.NodeBusy) && w.LastHeartbeat.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	return stale
}

// Len returns the number of worker records currently held, live or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}
