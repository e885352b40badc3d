// Package ledger holds the coordinator's authoritative container records
// and the node-to-container index used for disconnect handling. Its lock
// shape mirrors the registry's: one mutex, no I/O while held. Lookups by id
// are O(1); List, ForNode and ForceErrorAllOnNode scan.
package ledger

import (
	"sync"
	"time"

	"github.com/ahmadhassan44/distributed-lxc/internal/model"
	"github.com/ahmadhassan44/distributed-lxc/internal/orcherr"
)

// Ledger is the coordinator's container table plus the per-node index.
type Ledger struct {
	mu         sync.RWMutex
	containers map[string]*model.Container // ContainerID -> record
	byNode     map[string]map[string]bool  // NodeID -> set of ContainerIDs
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		containers: make(map[string]*model.Container),
		byNode:     make(map[string]map[string]bool),
	}
}

// Insert adds a new container record. It returns an error if a container
// with the same ID already exists.
func (l *Ledger) Insert(c model.Container) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.containers[c.ID]; exists {
		return orcherr.New(orcherr.ParseError, "ledger: container %q already exists", c.ID)
	}

	rec := c
	l.containers[c.ID] = &rec
	if l.byNode[c.NodeID] == nil {
		l.byNode[c.NodeID] = make(map[string]bool)
	}
	l.byNode[c.NodeID][c.ID] = true
	return nil
}

// Get returns a copy of the container record for id.
func (l *Ledger) Get(id string) (model.Container, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c, ok := l.containers[id]
	if !ok {
		return model.Container{}, false
	}
	return *c, true
}

// UpdateState applies a state transition if legal per model.CanTransition,
// recording StartedAt the first time a container reaches RUNNING. Returns
// orcherr.NotFound if the container does not exist, nil without error if
// the transition is a no-op repeat of the current state (idempotent
// re-reports from a worker should not be treated as protocol violations),
// or orcherr.ParseError if the transition violates the legal-transition DAG.
func (l *Ledger) UpdateState(id string, to model.ContainerState) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.containers[id]
	if !ok {
		return orcherr.New(orcherr.NotFound, "ledger: unknown container %q", id)
	}
	if c.State == to {
		return nil
	}
	if !model.CanTransition(c.State, to) {
		return orcherr.New(orcherr.ParseError, "ledger: illegal transition %s -> %s for %q", c.State, to, id)
	}
	c.State = to
	if to == model.ContainerRunning && c.StartedAt.IsZero() {
		c.StartedAt = time.Now()
	}
	return nil
}

// ForceError transitions a container straight to ERROR, bypassing the legal
// transition table, for use when the owning worker disconnects.
func (l *Ledger) ForceError(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.containers[id]
	if !ok {
		return orcherr.New(orcherr.NotFound, "ledger: unknown container %q", id)
	}
	c.State = model.ContainerError
	return nil
}

// Remove deletes a container record if its current state allows deletion
// per model.CanDelete.
func (l *Ledger) Remove(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.containers[id]
	if !ok {
		return orcherr.New(orcherr.NotFound, "ledger: unknown container %q", id)
	}
	if !model.CanDelete(c.State) {
		return orcherr.New(orcherr.ParseError, "ledger: cannot delete container %q in state %s", id, c.State)
	}

	delete(l.containers, id)
	if set := l.byNode[c.NodeID]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(l.byNode, c.NodeID)
		}
	}
	return nil
}

// ForNode returns every container currently recorded on nodeID.
func (l *Ledger) ForNode(nodeID string) []model.Container {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := l.byNode[nodeID]
	out := make([]model.Container, 0, len(ids))
	for id := range ids {
		out = append(out, *l.containers[id])
	}
	return out
}

// ForceErrorAllOnNode transitions every container on nodeID to ERROR,
// mirroring the coordinator's response to a worker disconnecting. Records
// are never deleted here, only marked failed, so an operator can still see
// what was lost and decide whether to redeploy.
func (l *Ledger) ForceErrorAllOnNode(nodeID string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var affected []string
	for id := range l.byNode[nodeID] {
		l.containers[id].State = model.ContainerError
		affected = append(affected, id)
	}
	return affected
}

// List returns a snapshot of every container record.
func (l *Ledger) List() []model.Container {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Container, 0, len(l.containers))
	for _, c := range l.containers {
		out = append(out, *c)
	}
	return out
}

// Len returns the number of container records currently held.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.containers)
}
