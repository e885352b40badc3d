package runtime

import (
	"context"
	"testing"

	"github.com/ahmadhassan44/distributed-lxc/internal/model"
	"github.com/ahmadhassan44/distributed-lxc/internal/orcherr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeDriverLifecycle(t *testing.T) {
	ctx := context.Background()
	d := NewFakeDriver(model.Resources{MaxContainers: 4})

	spec := model.ContainerSpec{Name: "web", Image: "nginx"}
	require.NoError(t, d.Create(ctx, spec))
	exists, err := d.Exists(ctx, "web")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, d.Start(ctx, "web"))
	state, err := d.QueryState(ctx, "web")
	require.NoError(t, err)
	assert.Equal(t, model.ContainerRunning, state)

	require.NoError(t, d.Stop(ctx, "web"))
	state, _ = d.QueryState(ctx, "web")
	assert.Equal(t, model.ContainerStopped, state)

	require.NoError(t, d.Destroy(ctx, "web"))
	exists, _ = d.Exists(ctx, "web")
	assert.False(t, exists)
}

func TestFakeDriverCreateIdempotent(t *testing.T) {
	ctx := context.Background()
	d := NewFakeDriver(model.Resources{})
	spec := model.ContainerSpec{Name: "web"}

	require.NoError(t, d.Create(ctx, spec))
	require.NoError(t, d.Start(ctx, "web"))
	require.NoError(t, d.Create(ctx, spec)) // idempotent: must not reset state to STOPPED

	state, _ := d.QueryState(ctx, "web")
	assert.Equal(t, model.ContainerRunning, state)
}

func TestFakeDriverDestroyIdempotent(t *testing.T) {
	ctx := context.Background()
	d := NewFakeDriver(model.Resources{})
	assert.NoError(t, d.Destroy(ctx, "ghost"))
}

func TestFakeDriverScriptedFailure(t *testing.T) {
	ctx := context.Background()
	d := NewFakeDriver(model.Resources{})
	require.NoError(t, d.Create(ctx, model.ContainerSpec{Name: "web"}))

	d.FailOn("start", "web", orcherr.New(orcherr.RuntimeError, "boom"))
	err := d.Start(ctx, "web")
	require.Error(t, err)
	assert.Equal(t, orcherr.RuntimeError, orcherr.KindOf(err))

	// Scripted failure only fires once.
	require.NoError(t, d.Start(ctx, "web"))
}

func TestFakeDriverRecordsCommandsInOrder(t *testing.T) {
	ctx := context.Background()
	d := NewFakeDriver(model.Resources{})
	spec := model.ContainerSpec{Name: "web"}

	require.NoError(t, d.Create(ctx, spec))
	require.NoError(t, d.Start(ctx, "web"))
	require.NoError(t, d.Stop(ctx, "web"))
	require.NoError(t, d.Destroy(ctx, "web"))

	cmds := d.Commands()
	require.Len(t, cmds, 4)
	assert.Equal(t, []string{"create", "start", "stop", "destroy"}, []string{cmds[0].Op, cmds[1].Op, cmds[2].Op, cmds[3].Op})
}
