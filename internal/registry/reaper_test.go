package registry

import (
	"testing"
	"time"

	"github.com/ahmadhassan44/distributed-lxc/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaperSweepDisconnectsStaleWorkers(t *testing.T) {
	reg := New(2)
	require.NoError(t, reg.Register(&model.Worker{ID: "fresh"}))
	require.NoError(t, reg.Register(&model.Worker{ID: "stale"}))

	reg.mu.Lock()
	reg.workers["stale"].LastHeartbeat = time.Now().Add(-time.Hour)
	reg.mu.Unlock()

	var notified []string
	r := NewReaper(reg, time.Hour, 30*time.Second, func(id string) {
		notified = append(notified, id)
	})
	r.Sweep()

	w, _ := reg.Get("stale")
	assert.Equal(t, model.NodeDisconnected, w.State)
	assert.Equal(t, []string{"stale"}, notified)

	fresh, _ := reg.Get("fresh")
	assert.Equal(t, model.NodeConnected, fresh.State)
}

func TestReaperStartStop(t *testing.T) {
	reg := New(1)
	r := NewReaper(reg, 5*time.Millisecond, time.Millisecond, nil)
	r.Start()
	time.Sleep(20 * time.Millisecond)
	r.Stop()
}
