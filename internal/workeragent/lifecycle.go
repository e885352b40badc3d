package workeragent

import (
	"context"

	"github.com/ahmadhassan44/distributed-lxc/internal/model"
	"github.com/ahmadhassan44/distributed-lxc/internal/wireproto"
	"github.com/ahmadhassan44/distributed-lxc/pkg/protocol"
)

// handleDeploy creates and starts a container locally, reporting its
// progress back to the coordinator via CONTAINER_STATUS, and an ACK/ERROR
// for the triggering DEPLOY_CONTAINER.
func (a *Agent) handleDeploy(ctx context.Context, payload []byte) {
	spec, err := wireproto.DecodeSpec(payload)
	if err != nil {
		a.reportError("malformed deploy payload: " + err.Error())
		return
	}

	lock := a.containerLock(spec.Name)
	lock.Lock()
	defer lock.Unlock()

	id := model.ContainerID(a.nodeID, spec.Name)
	rec := model.Container{ID: id, Name: spec.Name, NodeID: a.nodeID, State: model.ContainerStarting, Spec: spec}
	if err := a.ledger.Insert(rec); err != nil {
		// Re-deploy of an existing name: treat as a fresh attempt rather
		// than failing outright, matching the driver's own create idempotence.
		// The old record may be stranded in ERROR, so replace it instead of
		// transitioning it.
		_ = a.ledger.Remove(id)
		if err := a.ledger.Insert(rec); err != nil {
			a.reportError("container busy: " + id)
			return
		}
	}

	if err := a.driver.Create(ctx, spec); err != nil {
		a.failContainer(id, err)
		return
	}
	if err := a.driver.Start(ctx, spec.Name); err != nil {
		a.failContainer(id, err)
		return
	}

	_ = a.ledger.UpdateState(id, model.ContainerRunning)
	a.send(protocol.Ack, wireproto.EncodeText("deployed"))
	a.pushStatus(id)
}

// handleLifecycle services a START/STOP/DELETE command against an
// already-deployed container.
func (a *Agent) handleLifecycle(ctx context.Context, op, name string) {
	id := model.ContainerID(a.nodeID, name)

	lock := a.containerLock(name)
	lock.Lock()
	defer lock.Unlock()

	switch op {
	case "start":
		a.doStart(ctx, id, name)
	case "stop":
		a.doStop(ctx, id, name)
	case "delete":
		a.doDelete(ctx, id, name)
	}
}

func (a *Agent) doStart(ctx context.Context, id, name string) {
	if err := a.ledger.UpdateState(id, model.ContainerStarting); err != nil {
		a.reportError(err.Error())
		return
	}
	if err := a.driver.Start(ctx, name); err != nil {
		a.failContainer(id, err)
		return
	}
	_ = a.ledger.UpdateState(id, model.ContainerRunning)
	a.send(protocol.Ack, wireproto.EncodeText("started"))
	a.pushStatus(id)
}

func (a *Agent) doStop(ctx context.Context, id, name string) {
	if err := a.ledger.UpdateState(id, model.ContainerStopping); err != nil {
		a.reportError(err.Error())
		return
	}
	if err := a.driver.Stop(ctx, name); err != nil {
		a.failContainer(id, err)
		return
	}
	_ = a.ledger.UpdateState(id, model.ContainerStopped)
	a.send(protocol.Ack, wireproto.EncodeText("stopped"))
	a.pushStatus(id)
}

func (a *Agent) doDelete(ctx context.Context, id, name string) {
	if _, ok := a.ledger.Get(id); !ok {
		a.reportError("unknown container: " + id)
		return
	}
	if err := a.driver.Stop(ctx, name); err != nil {
		a.logger.Warn().Str("container_id", id).Err(err).Msg("stop-before-destroy failed, continuing to destroy")
	}
	if err := a.driver.Destroy(ctx, name); err != nil {
		a.failContainer(id, err)
		return
	}
	_ = a.ledger.Remove(id)
	a.send(protocol.Ack, wireproto.EncodeText("deleted"))
}

func (a *Agent) failContainer(id string, cause error) {
	_ = a.ledger.ForceError(id)
	a.logger.Error().Str("container_id", id).Err(cause).Msg("runtime driver reported failure")
	a.send(protocol.ErrorMsg, wireproto.EncodeText(cause.Error()))
	a.pushStatus(id)
}

func (a *Agent) reportError(reason string) {
	a.logger.Error().Str("reason", reason).Msg("rejecting lifecycle command")
	a.send(protocol.ErrorMsg, wireproto.EncodeText(reason))
}

func (a *Agent) pushStatus(id string) {
	c, ok := a.ledger.Get(id)
	if !ok {
		return
	}
	payload, err := wireproto.EncodeContainerStatus(c)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to encode container status")
		return
	}
	a.send(protocol.ContainerStatus, payload)
}
