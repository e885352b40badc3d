// Package workeragent implements the worker side of the protocol: connect
// to the coordinator, register, heartbeat, and service lifecycle commands
// against a runtime.Driver. It holds its local container table behind a
// single mutex and tracks arbitrary named containers rather than a fixed
// one-per-core layout.
package workeragent

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/ahmadhassan44/distributed-lxc/internal/ledger"
	"github.com/ahmadhassan44/distributed-lxc/internal/obslog"
	"github.com/ahmadhassan44/distributed-lxc/internal/orcherr"
	"github.com/ahmadhassan44/distributed-lxc/internal/runtime"
	"github.com/ahmadhassan44/distributed-lxc/internal/wire"
	"github.com/ahmadhassan44/distributed-lxc/internal/wireproto"
	"github.com/ahmadhassan44/distributed-lxc/pkg/protocol"
	"github.com/rs/zerolog"
)

// Agent is the worker process's connection to the coordinator.
type Agent struct {
	nodeID            string
	coordinatorAddr   string
	driver            runtime.Driver
	ledger            *ledger.Ledger
	heartbeatInterval time.Duration

	mu      sync.Mutex // serializes writes to conn
	conn    net.Conn
	logger  zerolog.Logger
	stopCh  chan struct{}
	cmdSema map[string]*sync.Mutex // per-container command serialization
	cmdMu   sync.Mutex
}

// NodeID derives the worker's identity as "{hostname}_{pid}", falling back
// to "node_{pid}" if the hostname can't be read.
func NodeID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return fmt.Sprintf("node_%d", os.Getpid())
	}
	return fmt.Sprintf("%s_%d", host, os.Getpid())
}

// New builds an Agent. Connect must be called before Run.
func New(coordinatorAddr string, driver runtime.Driver, heartbeatInterval time.Duration) *Agent {
	id := NodeID()
	return &Agent{
		nodeID:            id,
		coordinatorAddr:   coordinatorAddr,
		driver:            driver,
		ledger:            ledger.New(),
		heartbeatInterval: heartbeatInterval,
		logger:            obslog.WithNodeID(id),
		stopCh:            make(chan struct{}),
		cmdSema:           make(map[string]*sync.Mutex),
	}
}

// Connect dials the coordinator and sends REGISTER_NODE, waiting for ACK.
// On any failure the caller should abort the process rather than retry.
func (a *Agent) Connect(ctx context.Context, hostname, ip string, port int) error {
	conn, err := net.Dial("tcp", a.coordinatorAddr)
	if err != nil {
		return orcherr.Wrap(orcherr.TransportError, err, "workeragent: dial coordinator at %s", a.coordinatorAddr)
	}
	a.conn = conn

	payload := wireproto.EncodeRegistration(wireproto.Registration{Hostname: hostname, IP: ip, Port: port})
	if err := a.send(protocol.RegisterNode, payload); err != nil {
		return err
	}

	f, err := wire.ReadFrame(conn)
	if err != nil {
		return orcherr.Wrap(orcherr.TransportError, err, "workeragent: awaiting registration ack")
	}
	if f.Type != protocol.Ack {
		return orcherr.New(orcherr.WorkerUnavailable, "workeragent: registration rejected: %s", wireproto.DecodeText(f.Payload))
	}

	a.logger.Info().Msg("registered with coordinator")
	return nil
}

func (a *Agent) send(msgType protocol.MessageType, payload []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := wire.WriteFrame(a.conn, wire.Frame{Type: msgType, SenderID: a.nodeID, RecipientID: "coordinator", Payload: payload})
	if err != nil {
		// A failed send is fatal: closing the connection ends receiveLoop,
		// and with it Run.
		a.conn.Close()
	}
	return err
}

// Run launches the heartbeat task and enters the receive loop. It blocks
// until the connection fails or Stop is called.
func (a *Agent) Run(ctx context.Context) {
	go a.heartbeatLoop(ctx)
	a.receiveLoop(ctx)
}

// Stop ends the agent's background loops.
func (a *Agent) Stop() {
	close(a.stopCh)
	if a.conn != nil {
		a.conn.Close()
	}
}

func (a *Agent) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(a.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res, err := a.driver.SampleResources(ctx)
			if err != nil {
				a.logger.Warn().Err(err).Msg("failed to sample resources")
				continue
			}
			res.ContainerCount = a.ledger.Len()
			payload, err := wireproto.EncodeResources(res)
			if err != nil {
				a.logger.Error().Err(err).Msg("failed to encode heartbeat")
				continue
			}
			if err := a.send(protocol.NodeHeartbeat, payload); err != nil {
				a.logger.Warn().Err(err).Msg("failed to send heartbeat")
			}
		case <-a.stopCh:
			return
		}
	}
}

func (a *Agent) receiveLoop(ctx context.Context) {
	for {
		f, err := wire.ReadFrame(a.conn)
		if err != nil {
			a.logger.Error().Err(err).Msg("connection lost, exiting")
			return
		}

		switch f.Type {
		case protocol.DeployContainer:
			go a.handleDeploy(ctx, f.Payload)
		case protocol.StartContainer:
			go a.handleLifecycle(ctx, "start", wireproto.DecodeName(f.Payload))
		case protocol.StopContainer:
			go a.handleLifecycle(ctx, "stop", wireproto.DecodeName(f.Payload))
		case protocol.DeleteContainer:
			go a.handleLifecycle(ctx, "delete", wireproto.DecodeName(f.Payload))
		default:
			a.logger.Warn().Str("type", f.Type.String()).Msg("unknown message type, closing connection")
			return
		}
	}
}

// containerLock returns the per-container mutex that serializes driver
// commands against one name, ensuring only one command per container name
// is outstanding at a time; cross-container commands still run in parallel.
func (a *Agent) containerLock(name string) *sync.Mutex {
	a.cmdMu.Lock()
	defer a.cmdMu.Unlock()
	m, ok := a.cmdSema[name]
	if !ok {
		m = &sync.Mutex{}
		a.cmdSema[name] = m
	}
	return m
}
