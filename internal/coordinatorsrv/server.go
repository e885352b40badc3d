// Package coordinatorsrv implements the coordinator half of the protocol:
// the TCP accept loop and per-connection dispatch, the operator-initiated
// deploy/start/stop/delete operations, the REPL, and the HTTP
// metrics/health endpoints. It accepts one connection per client and drives
// container lifecycle commands against the node registry and the container
// ledger, each guarded by its own mutex.
package coordinatorsrv

import (
	"fmt"
	"net"

	"github.com/ahmadhassan44/distributed-lxc/internal/ledger"
	"github.com/ahmadhassan44/distributed-lxc/internal/metrics"
	"github.com/ahmadhassan44/distributed-lxc/internal/model"
	"github.com/ahmadhassan44/distributed-lxc/internal/obslog"
	"github.com/ahmadhassan44/distributed-lxc/internal/orcherr"
	"github.com/ahmadhassan44/distributed-lxc/internal/registry"
	"github.com/ahmadhassan44/distributed-lxc/internal/wire"
	"github.com/ahmadhassan44/distributed-lxc/internal/wireproto"
	"github.com/ahmadhassan44/distributed-lxc/pkg/config"
	"github.com/ahmadhassan44/distributed-lxc/pkg/protocol"
	"github.com/rs/zerolog"
)

// SelfID is the coordinator's own sender id on the wire.
const SelfID = "coordinator"

// Coordinator owns the node registry, container ledger, and liveness
// reaper, and drives the TCP accept loop plus operator-initiated commands
// against them.
type Coordinator struct {
	cfg      *config.Config
	registry *registry.Registry
	ledger   *ledger.Ledger
	reaper   *registry.Reaper
	logger   zerolog.Logger
	listener net.Listener
}

// New wires up a Coordinator and its reaper, ready to Serve.
func New(cfg *config.Config) *Coordinator {
	reg := registry.New(cfg.MaxWorkers)
	led := ledger.New()

	c := &Coordinator{
		cfg:      cfg,
		registry: reg,
		ledger:   led,
		logger:   obslog.WithComponent("coordinator"),
	}
	c.reaper = registry.NewReaper(reg, cfg.ReaperInterval, cfg.HeartbeatTimeout, c.onWorkerStale)
	return c
}

// onWorkerStale forces every container on a reaped worker into ERROR: its
// state can no longer be trusted once the worker is unreachable.
func (c *Coordinator) onWorkerStale(nodeID string) {
	affected := c.ledger.ForceErrorAllOnNode(nodeID)
	if len(affected) > 0 {
		c.logger.Warn().Str("node_id", nodeID).Strs("containers", affected).Msg("worker disconnected, containers forced to error")
	}
}

// Serve starts the reaper and the TCP accept loop. It blocks until the
// listener is closed.
func (c *Coordinator) Serve() error {
	addr := fmt.Sprintf(":%d", c.cfg.CoordinatorPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return orcherr.Wrap(orcherr.TransportError, err, "coordinatorsrv: listen on %s", addr)
	}
	c.listener = ln
	c.reaper.Start()

	c.logger.Info().Str("addr", addr).Msg("coordinator listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			return orcherr.Wrap(orcherr.TransportError, err, "coordinatorsrv: accept")
		}
		go c.handleConn(conn)
	}
}

// Close stops the reaper and the accept loop.
func (c *Coordinator) Close() error {
	c.reaper.Stop()
	if c.listener != nil {
		return c.listener.Close()
	}
	return nil
}

func (c *Coordinator) handleConn(netConn net.Conn) {
	defer netConn.Close()

	var nodeID string
	wc := &workerConn{conn: netConn, self: SelfID}

	for {
		f, err := wire.ReadFrame(netConn)
		if err != nil {
			if nodeID != "" {
				c.logger.Warn().Str("node_id", nodeID).Err(err).Msg("connection lost, marking worker disconnected")
				c.registry.MarkDisconnected(nodeID)
				c.onWorkerStale(nodeID)
			}
			return
		}

		switch f.Type {
		case protocol.RegisterNode:
			reg, err := wireproto.DecodeRegistration(f.Payload)
			if err != nil {
				c.logger.Error().Err(err).Msg("malformed REGISTER_NODE payload")
				continue
			}
			nodeID = f.SenderID
			wc.peer = nodeID
			w := &model.Worker{
				ID:       nodeID,
				Hostname: reg.Hostname,
				IP:       reg.IP,
				Port:     reg.Port,
				Conn:     wc,
			}
			if err := c.registry.Register(w); err != nil {
				c.logger.Error().Str("node_id", nodeID).Err(err).Msg("registration rejected")
				_ = wc.Send(uint8(protocol.ErrorMsg), wireproto.EncodeText(err.Error()))
				return
			}
			c.logger.Info().Str("node_id", nodeID).Str("hostname", reg.Hostname).Msg("worker registered")
			_ = wc.Send(uint8(protocol.Ack), wireproto.EncodeText("registered"))

		case protocol.NodeHeartbeat:
			res, err := wireproto.DecodeResources(f.Payload)
			if err != nil {
				c.logger.Error().Str("node_id", f.SenderID).Err(err).Msg("malformed NODE_HEARTBEAT payload")
				continue
			}
			if err := c.registry.Touch(f.SenderID, res); err != nil {
				c.logger.Warn().Str("node_id", f.SenderID).Err(err).Msg("heartbeat from unknown worker")
			}

		case protocol.ContainerStatus:
			status, err := wireproto.DecodeContainerStatus(f.Payload)
			if err != nil {
				c.logger.Error().Str("node_id", f.SenderID).Err(err).Msg("malformed CONTAINER_STATUS payload")
				continue
			}
			if err := c.ledger.UpdateState(status.ID, status.State); err != nil {
				c.logger.Warn().Str("container_id", status.ID).Err(err).Msg("rejected container status update")
			}

		case protocol.ErrorMsg:
			c.logger.Error().Str("node_id", f.SenderID).Str("reason", wireproto.DecodeText(f.Payload)).Msg("worker reported error")

		default:
			c.logger.Warn().Str("node_id", f.SenderID).Str("type", f.Type.String()).Msg("unknown message type, ignoring")
		}
	}
}

// refreshMetrics recomputes the node/container gauges from current state.
// Called on demand by the HTTP /metrics handler rather than on every
// mutation, since Prometheus scrapes are pull-based.
func (c *Coordinator) refreshMetrics() {
	byNodeState := map[model.NodeState]int{}
	for _, w := range c.registry.List() {
		byNodeState[w.State]++
	}
	for _, s := range []model.NodeState{model.NodeConnecting, model.NodeConnected, model.NodeBusy, model.NodeDisconnected, model.NodeError} {
		metrics.NodesTotal.WithLabelValues(s.String()).Set(float64(byNodeState[s]))
	}

	byContainerState := map[model.ContainerState]int{}
	for _, cc := range c.ledger.List() {
		byContainerState[cc.State]++
	}
	for _, s := range []model.ContainerState{model.ContainerStopped, model.ContainerStarting, model.ContainerRunning, model.ContainerStopping, model.ContainerError} {
		metrics.ContainersTotal.WithLabelValues(s.String()).Set(float64(byContainerState[s]))
	}
}
