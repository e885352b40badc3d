package coordinatorsrv

import (
	"strings"
	"testing"
	"time"

	"github.com/ahmadhassan44/distributed-lxc/internal/configload"
	"github.com/ahmadhassan44/distributed-lxc/internal/model"
	"github.com/ahmadhassan44/distributed-lxc/internal/orcherr"
	"github.com/ahmadhassan44/distributed-lxc/pkg/config"
	"github.com/ahmadhassan44/distributed-lxc/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	sent   []uint8
	closed bool
}

func (r *recordingConn) Send(msgType uint8, payload []byte) error {
	r.sent = append(r.sent, msgType)
	return nil
}

func (r *recordingConn) Close() error {
	r.closed = true
	return nil
}

func testCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	cfg := &config.Config{MaxWorkers: 4, ReaperInterval: time.Hour, HeartbeatTimeout: time.Hour, DeployAckTimeout: time.Hour}
	return New(cfg)
}

func registerWorker(t *testing.T, c *Coordinator, id string, conn model.Conn) {
	t.Helper()
	require.NoError(t, c.registry.Register(&model.Worker{
		ID:        id,
		State:     model.NodeConnected,
		Conn:      conn,
		Resources: model.Resources{MaxContainers: 4},
	}))
	require.NoError(t, c.registry.Touch(id, model.Resources{MaxContainers: 4}))
}

func TestDeployPicksWorkerAndSendsFrame(t *testing.T) {
	c := testCoordinator(t)
	conn := &recordingConn{}
	registerWorker(t, c, "w1", conn)

	doc := "name: web\nimage: nginx\n"
	container, err := c.Deploy(strings.NewReader(doc), configload.NewFileLoader())
	require.NoError(t, err)

	assert.Equal(t, "w1", container.NodeID)
	assert.Equal(t, model.ContainerStarting, container.State)
	assert.Contains(t, conn.sent, uint8(protocol.DeployContainer))
}

func TestDeployNoCapacityLeavesLedgerUntouched(t *testing.T) {
	c := testCoordinator(t)
	_, err := c.Deploy(strings.NewReader("name: web\n"), configload.NewFileLoader())
	require.Error(t, err)
	assert.Equal(t, orcherr.NoCapacity, orcherr.KindOf(err))
	assert.Empty(t, c.ListContainers())
}

func TestStartStopDeleteRouteToWorker(t *testing.T) {
	c := testCoordinator(t)
	conn := &recordingConn{}
	registerWorker(t, c, "w1", conn)

	_, err := c.Deploy(strings.NewReader("name: web\n"), configload.NewFileLoader())
	require.NoError(t, err)

	containerID := model.ContainerID("w1", "web")

	_, err = c.StartContainer(containerID)
	require.NoError(t, err)
	_, err = c.StopContainer(containerID)
	require.NoError(t, err)

	// Container must leave STARTING before delete is legal on the ledger
	// side; force it to STOPPED to exercise the delete path in isolation.
	require.NoError(t, c.ledger.UpdateState(containerID, model.ContainerRunning))
	require.NoError(t, c.ledger.UpdateState(containerID, model.ContainerStopping))
	require.NoError(t, c.ledger.UpdateState(containerID, model.ContainerStopped))

	require.NoError(t, c.DeleteContainer(containerID))

	// Second delete must hit NotFound without reaching the worker again.
	sentBefore := len(conn.sent)
	err = c.DeleteContainer(containerID)
	require.Error(t, err)
	assert.Equal(t, orcherr.NotFound, orcherr.KindOf(err))
	assert.Equal(t, sentBefore, len(conn.sent))
}

func TestDeleteContainerDecrementsWorkerContainerCount(t *testing.T) {
	c := testCoordinator(t)
	conn := &recordingConn{}
	registerWorker(t, c, "w1", conn)

	_, err := c.Deploy(strings.NewReader("name: web\n"), configload.NewFileLoader())
	require.NoError(t, err)

	w, ok := c.registry.Get("w1")
	require.True(t, ok)
	assert.Equal(t, 1, w.Resources.ContainerCount)
	assert.Equal(t, []string{model.ContainerID("w1", "web")}, w.Containers)

	containerID := model.ContainerID("w1", "web")
	require.NoError(t, c.ledger.UpdateState(containerID, model.ContainerRunning))
	require.NoError(t, c.ledger.UpdateState(containerID, model.ContainerStopping))
	require.NoError(t, c.ledger.UpdateState(containerID, model.ContainerStopped))
	require.NoError(t, c.DeleteContainer(containerID))

	w, ok = c.registry.Get("w1")
	require.True(t, ok)
	assert.Equal(t, 0, w.Resources.ContainerCount)
	assert.Empty(t, w.Containers)
}

func TestDeployAckTimeoutForcesError(t *testing.T) {
	cfg := &config.Config{MaxWorkers: 4, ReaperInterval: time.Hour, HeartbeatTimeout: time.Hour, DeployAckTimeout: 10 * time.Millisecond}
	c := New(cfg)
	conn := &recordingConn{}
	registerWorker(t, c, "w1", conn)

	container, err := c.Deploy(strings.NewReader("name: web\n"), configload.NewFileLoader())
	require.NoError(t, err)

	// No CONTAINER_STATUS ever arrives; the container must be forced to
	// ERROR once the acknowledgment window closes.
	assert.Eventually(t, func() bool {
		cc, ok := c.ledger.Get(container.ID)
		return ok && cc.State == model.ContainerError
	}, time.Second, 5*time.Millisecond)
}

func TestWorkerDisconnectForcesContainersToError(t *testing.T) {
	c := testCoordinator(t)
	conn := &recordingConn{}
	registerWorker(t, c, "w1", conn)

	_, err := c.Deploy(strings.NewReader("name: web\n"), configload.NewFileLoader())
	require.NoError(t, err)

	c.registry.MarkDisconnected("w1")
	c.onWorkerStale("w1")

	w, _ := c.registry.Get("w1")
	assert.Equal(t, model.NodeDisconnected, w.State)
	assert.True(t, conn.closed)

	container, ok := c.ledger.Get(model.ContainerID("w1", "web"))
	require.True(t, ok, "ledger must retain the record after its worker is lost")
	assert.Equal(t, model.ContainerError, container.State)
}

func TestStartUnknownContainer(t *testing.T) {
	c := testCoordinator(t)
	_, err := c.StartContainer("ghost")
	assert.Equal(t, orcherr.NotFound, orcherr.KindOf(err))
}

func TestStartContainerOnDisconnectedWorker(t *testing.T) {
	c := testCoordinator(t)
	conn := &recordingConn{}
	registerWorker(t, c, "w1", conn)
	_, err := c.Deploy(strings.NewReader("name: web\n"), configload.NewFileLoader())
	require.NoError(t, err)

	c.registry.MarkDisconnected("w1")

	_, err = c.StartContainer(model.ContainerID("w1", "web"))
	assert.Equal(t, orcherr.WorkerUnavailable, orcherr.KindOf(err))
}
