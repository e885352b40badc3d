package coordinatorsrv

import (
	"io"
	"time"

	"github.com/ahmadhassan44/distributed-lxc/internal/configload"
	"github.com/ahmadhassan44/distributed-lxc/internal/metrics"
	"github.com/ahmadhassan44/distributed-lxc/internal/model"
	"github.com/ahmadhassan44/distributed-lxc/internal/orcherr"
	"github.com/ahmadhassan44/distributed-lxc/internal/placement"
	"github.com/ahmadhassan44/distributed-lxc/internal/wireproto"
	"github.com/ahmadhassan44/distributed-lxc/pkg/protocol"
)

// Deploy parses a declarative spec from r, scores the live worker set, and
// sends DEPLOY_CONTAINER to the chosen worker. It does not wait for the
// worker's eventual ACK/CONTAINER_STATUS: those arrive asynchronously on the
// owning connection and are applied by handleConn.
func (c *Coordinator) Deploy(r io.Reader, loader configload.Loader) (model.Container, error) {
	spec, err := loader.Load(r)
	if err != nil {
		return model.Container{}, err
	}

	worker, err := placement.Pick(c.registry.List(), time.Now())
	if err != nil {
		metrics.PlacementsTotal.WithLabelValues("no_capacity").Inc()
		return model.Container{}, err
	}
	metrics.PlacementScore.WithLabelValues(worker.ID).Set(placement.Score(worker.Resources))

	container := model.Container{
		ID:        model.ContainerID(worker.ID, spec.Name),
		Name:      spec.Name,
		NodeID:    worker.ID,
		State:     model.ContainerStarting,
		Spec:      spec,
		CreatedAt: time.Now(),
	}
	if err := c.ledger.Insert(container); err != nil {
		metrics.PlacementsTotal.WithLabelValues("rejected").Inc()
		return model.Container{}, err
	}
	if err := c.registry.AddContainer(worker.ID, container.ID); err != nil {
		metrics.PlacementsTotal.WithLabelValues("rejected").Inc()
		return model.Container{}, err
	}

	payload, err := wireproto.EncodeSpec(spec)
	if err != nil {
		return model.Container{}, orcherr.Wrap(orcherr.ParseError, err, "coordinatorsrv: encode spec for %q", container.ID)
	}

	w, _ := c.registry.Get(worker.ID)
	if w.Conn == nil {
		metrics.PlacementsTotal.WithLabelValues("worker_unavailable").Inc()
		return model.Container{}, orcherr.New(orcherr.WorkerUnavailable, "coordinatorsrv: worker %q has no active connection", worker.ID)
	}
	if err := w.Conn.Send(uint8(protocol.DeployContainer), payload); err != nil {
		metrics.PlacementsTotal.WithLabelValues("transport_error").Inc()
		return model.Container{}, orcherr.Wrap(orcherr.TransportError, err, "coordinatorsrv: send DEPLOY_CONTAINER to %q", worker.ID)
	}

	metrics.PlacementsTotal.WithLabelValues("ok").Inc()
	go c.awaitDeployAck(container.ID)
	return container, nil
}

// awaitDeployAck force-errors a container that never leaves STARTING within
// the configured deploy ack timeout (60 s by default); there is no
// automatic retry, the operator must redeploy.
func (c *Coordinator) awaitDeployAck(containerID string) {
	time.Sleep(c.cfg.DeployAckTimeout)

	cc, ok := c.ledger.Get(containerID)
	if !ok || cc.State != model.ContainerStarting {
		return
	}
	_ = c.ledger.ForceError(containerID)
	c.logger.Warn().Str("container_id", containerID).Msg("deploy acknowledgment timed out, container marked error")
}

// sendCommand looks up containerID, confirms its owning worker is
// connected, and sends msgType with the container's name as payload.
func (c *Coordinator) sendCommand(containerID string, msgType protocol.MessageType) (model.Container, error) {
	cc, ok := c.ledger.Get(containerID)
	if !ok {
		return model.Container{}, orcherr.New(orcherr.NotFound, "coordinatorsrv: unknown container %q", containerID)
	}

	w, ok := c.registry.Get(cc.NodeID)
	if !ok || w.State != model.NodeConnected || w.Conn == nil {
		return cc, orcherr.New(orcherr.WorkerUnavailable, "coordinatorsrv: worker %q is not connected", cc.NodeID)
	}

	if err := w.Conn.Send(uint8(msgType), wireproto.EncodeName(cc.Name)); err != nil {
		return cc, orcherr.Wrap(orcherr.TransportError, err, "coordinatorsrv: send %s to %q", msgType, cc.NodeID)
	}
	return cc, nil
}

// StartContainer routes a START_CONTAINER command to the owning worker.
func (c *Coordinator) StartContainer(containerID string) (model.Container, error) {
	return c.sendCommand(containerID, protocol.StartContainer)
}

// StopContainer routes a STOP_CONTAINER command to the owning worker.
func (c *Coordinator) StopContainer(containerID string) (model.Container, error) {
	return c.sendCommand(containerID, protocol.StopContainer)
}

// DeleteContainer routes a DELETE_CONTAINER command to the owning worker
// and removes the ledger record. A repeated delete against an
// already-removed container returns NotFound without ever reaching the
// worker a second time.
func (c *Coordinator) DeleteContainer(containerID string) error {
	cc, err := c.sendCommand(containerID, protocol.DeleteContainer)
	if err != nil {
		return err
	}
	if err := c.ledger.Remove(cc.ID); err != nil {
		return err
	}
	if err := c.registry.RemoveContainer(cc.NodeID, cc.ID); err != nil {
		c.logger.Warn().Str("container_id", cc.ID).Str("node_id", cc.NodeID).Err(err).Msg("failed to clear container from worker's registry record")
	}
	return nil
}

// ListContainers returns a snapshot of every tracked container.
func (c *Coordinator) ListContainers() []model.Container {
	return c.ledger.List()
}

// ListNodes returns a snapshot of every registered worker.
func (c *Coordinator) ListNodes() []model.Worker {
	return c.registry.List()
}
