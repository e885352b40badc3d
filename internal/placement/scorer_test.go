package placement

import (
	"testing"
	"time"

	"github.com/ahmadhassan44/distributed-lxc/internal/model"
	"github.com/ahmadhassan44/distributed-lxc/internal/orcherr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func worker(id string, state model.NodeState, res model.Resources, hbAge time.Duration, now time.Time) model.Worker {
	return model.Worker{ID: id, State: state, Resources: res, LastHeartbeat: now.Add(-hbAge)}
}

func TestScoreFormula(t *testing.T) {
	r := model.Resources{CPUUsed: 20, MemUsed: 40, DiskUsed: 10, ContainerCount: 1, MaxContainers: 4}
	// cpu_free=80 mem_free=60 disk_free=90 load_term=(1-1/4)*100=75
	// score = .3*80 + .3*60 + .2*90 + .2*75 = 24+18+18+15 = 75
	assert.InDelta(t, 75.0, Score(r), 0.0001)
}

func TestPickHighestScoreWins(t *testing.T) {
	now := time.Now()
	candidates := []model.Worker{
		worker("w1", model.NodeConnected, model.Resources{CPUUsed: 90, MaxContainers: 4}, time.Second, now),
		worker("w2", model.NodeConnected, model.Resources{CPUUsed: 10, MaxContainers: 4}, time.Second, now),
	}
	picked, err := Pick(candidates, now)
	require.NoError(t, err)
	assert.Equal(t, "w2", picked.ID)
}

// S2: identical resources tie-break by lexicographically smaller id.
func TestPickTieBreaksByID(t *testing.T) {
	now := time.Now()
	res := model.Resources{CPUUsed: 50, MemUsed: 50, DiskUsed: 50, ContainerCount: 1, MaxContainers: 4}
	candidates := []model.Worker{
		worker("w2", model.NodeConnected, res, time.Second, now),
		worker("w1", model.NodeConnected, res, time.Second, now),
	}
	picked, err := Pick(candidates, now)
	require.NoError(t, err)
	assert.Equal(t, "w1", picked.ID)
}

// S4: a saturated worker is never eligible, even alone in the candidate set.
func TestPickExcludesSaturatedWorker(t *testing.T) {
	now := time.Now()
	candidates := []model.Worker{
		worker("w1", model.NodeConnected, model.Resources{ContainerCount: 2, MaxContainers: 2}, time.Second, now),
	}
	_, err := Pick(candidates, now)
	require.Error(t, err)
	assert.Equal(t, orcherr.NoCapacity, orcherr.KindOf(err))
}

func TestPickExcludesStaleHeartbeat(t *testing.T) {
	now := time.Now()
	candidates := []model.Worker{
		worker("w1", model.NodeConnected, model.Resources{MaxContainers: 4}, time.Minute, now),
	}
	_, err := Pick(candidates, now)
	require.Error(t, err)
	assert.Equal(t, orcherr.NoCapacity, orcherr.KindOf(err))
}

func TestPickExcludesNonConnectedState(t *testing.T) {
	now := time.Now()
	candidates := []model.Worker{
		worker("w1", model.NodeBusy, model.Resources{MaxContainers: 4}, time.Second, now),
		worker("w2", model.NodeDisconnected, model.Resources{MaxContainers: 4}, time.Second, now),
	}
	_, err := Pick(candidates, now)
	require.Error(t, err)
	assert.Equal(t, orcherr.NoCapacity, orcherr.KindOf(err))
}

// S6: heartbeat refresh changes which worker wins a subsequent placement.
func TestPickReflectsLatestHeartbeatSample(t *testing.T) {
	now := time.Now()
	candidates := []model.Worker{
		worker("w1", model.NodeConnected, model.Resources{CPUUsed: 90, MaxContainers: 4}, time.Second, now),
		worker("w2", model.NodeConnected, model.Resources{CPUUsed: 10, MaxContainers: 4}, time.Second, now),
	}
	picked, err := Pick(candidates, now)
	require.NoError(t, err)
	assert.Equal(t, "w2", picked.ID)
}

func TestPickNoCandidates(t *testing.T) {
	_, err := Pick(nil, time.Now())
	assert.Equal(t, orcherr.NoCapacity, orcherr.KindOf(err))
}
