package ledger

import (
	"testing"

	"github.com/ahmadhassan44/distributed-lxc/internal/model"
	"github.com/ahmadhassan44/distributed-lxc/internal/orcherr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndGet(t *testing.T) {
	l := New()
	c := model.Container{ID: "w1_app", Name: "app", NodeID: "w1", State: model.ContainerStopped}
	require.NoError(t, l.Insert(c))

	got, ok := l.Get("w1_app")
	require.True(t, ok)
	assert.Equal(t, model.ContainerStopped, got.State)
}

func TestInsertDuplicateRejected(t *testing.T) {
	l := New()
	c := model.Container{ID: "w1_app", NodeID: "w1"}
	require.NoError(t, l.Insert(c))
	assert.Error(t, l.Insert(c))
}

func TestUpdateStateLegalTransition(t *testing.T) {
	l := New()
	require.NoError(t, l.Insert(model.Container{ID: "w1_app", NodeID: "w1", State: model.ContainerStopped}))

	require.NoError(t, l.UpdateState("w1_app", model.ContainerStarting))
	require.NoError(t, l.UpdateState("w1_app", model.ContainerRunning))

	c, _ := l.Get("w1_app")
	assert.Equal(t, model.ContainerRunning, c.State)
	assert.False(t, c.StartedAt.IsZero())
}

func TestUpdateStateIllegalTransitionRejected(t *testing.T) {
	l := New()
	require.NoError(t, l.Insert(model.Container{ID: "w1_app", NodeID: "w1", State: model.ContainerStopped}))

	err := l.UpdateState("w1_app", model.ContainerRunning)
	require.Error(t, err)
	assert.Equal(t, orcherr.ParseError, orcherr.KindOf(err))
}

func TestUpdateStateRepeatIsNoop(t *testing.T) {
	l := New()
	require.NoError(t, l.Insert(model.Container{ID: "w1_app", NodeID: "w1", State: model.ContainerStopped}))
	assert.NoError(t, l.UpdateState("w1_app", model.ContainerStopped))
}

func TestRemoveRejectsInFlightStates(t *testing.T) {
	l := New()
	require.NoError(t, l.Insert(model.Container{ID: "w1_app", NodeID: "w1", State: model.ContainerStarting}))

	err := l.Remove("w1_app")
	require.Error(t, err)
	assert.Equal(t, orcherr.ParseError, orcherr.KindOf(err))
}

func TestRemoveClearsNodeIndex(t *testing.T) {
	l := New()
	require.NoError(t, l.Insert(model.Container{ID: "w1_app", NodeID: "w1", State: model.ContainerStopped}))
	require.NoError(t, l.Remove("w1_app"))

	assert.Empty(t, l.ForNode("w1"))
	_, ok := l.Get("w1_app")
	assert.False(t, ok)
}

func TestForceErrorAllOnNode(t *testing.T) {
	l := New()
	require.NoError(t, l.Insert(model.Container{ID: "w1_a", NodeID: "w1", State: model.ContainerRunning}))
	require.NoError(t, l.Insert(model.Container{ID: "w1_b", NodeID: "w1", State: model.ContainerStarting}))
	require.NoError(t, l.Insert(model.Container{ID: "w2_a", NodeID: "w2", State: model.ContainerRunning}))

	affected := l.ForceErrorAllOnNode("w1")
	assert.ElementsMatch(t, []string{"w1_a", "w1_b"}, affected)

	a, _ := l.Get("w1_a")
	b, _ := l.Get("w1_b")
	other, _ := l.Get("w2_a")
	assert.Equal(t, model.ContainerError, a.State)
	assert.Equal(t, model.ContainerError, b.State)
	assert.Equal(t, model.ContainerRunning, other.State)
}

func TestForNode(t *testing.T) {
	l := New()
	require.NoError(t, l.Insert(model.Container{ID: "w1_a", NodeID: "w1"}))
	require.NoError(t, l.Insert(model.Container{ID: "w1_b", NodeID: "w1"}))
	require.NoError(t, l.Insert(model.Container{ID: "w2_a", NodeID: "w2"}))

	assert.Len(t, l.ForNode("w1"), 2)
	assert.Len(t, l.ForNode("w2"), 1)
	assert.Empty(t, l.ForNode("ghost"))
}
