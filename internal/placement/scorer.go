// Package placement implements the weighted worker-scoring policy used to
// pick a host for a new container. It is pure with respect to the worker
// snapshot it's given: no locking, no mutation, so it composes cleanly with
// whatever locking discipline the registry enforces around the snapshot.
package placement

import (
	"time"

	"github.com/ahmadhassan44/distributed-lxc/internal/model"
	"github.com/ahmadhassan44/distributed-lxc/internal/orcherr"
)

const (
	cpuWeight  = 0.30
	memWeight  = 0.30
	diskWeight = 0.20
	loadWeight = 0.20

	// StaleAfter is the maximum heartbeat age a worker may have and still be
	// eligible for placement.
	StaleAfter = 30 * time.Second
)

// Score computes a worker's placement score from its current resource
// sample. Higher is better.
func Score(r model.Resources) float64 {
	cpuFree := 100 - r.CPUUsed
	memFree := 100 - r.MemUsed
	diskFree := 100 - r.DiskUsed

	var loadTerm float64
	if r.MaxContainers > 0 {
		loadTerm = (1 - float64(r.ContainerCount)/float64(r.MaxContainers)) * 100
	}

	return cpuWeight*cpuFree + memWeight*memFree + diskWeight*diskFree + loadWeight*loadTerm
}

// eligible reports whether w may host a new container: connected, live
// heartbeat, and spare capacity. This never compares a container spec's own
// resource requests against what's free — a spec larger than a worker's
// free capacity may still land there.
func eligible(w model.Worker, now time.Time) bool {
	if w.State != model.NodeConnected {
		return false
	}
	if now.Sub(w.LastHeartbeat) > StaleAfter {
		return false
	}
	if w.Resources.MaxContainers > 0 && w.Resources.ContainerCount >= w.Resources.MaxContainers {
		return false
	}
	return true
}

// Pick selects the best worker, by Score, from candidates at the given
// instant. Ties break by lexicographically smaller ID. It returns
// orcherr.NoCapacity if no candidate is eligible.
func Pick(candidates []model.Worker, now time.Time) (model.Worker, error) {
	var best model.Worker
	var bestScore float64
	found := false

	for _, w := range candidates {
		if !eligible(w, now) {
			continue
		}
		s := Score(w.Resources)
		switch {
		case !found:
			best, bestScore, found = w, s, true
		case s > bestScore:
			best, bestScore = w, s
		case s == bestScore && w.ID < best.ID:
			best = w
		}
	}

	if !found {
		return model.Worker{}, orcherr.New(orcherr.NoCapacity, "placement: no eligible worker for this spec")
	}
	return best, nil
}
