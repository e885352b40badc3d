// Package model holds the data shared between the coordinator and the
// worker agent: node records, container records, specs, and the wire enums
// they serialize to.
package model

import "time"

// NodeState is the lifecycle state of a worker as seen by the coordinator.
type NodeState uint8

const (
	NodeConnecting NodeState = iota
	NodeConnected
	NodeBusy
	NodeDisconnected
	NodeError
)

func (s NodeState) String() string {
	switch s {
	case NodeConnecting:
		return "CONNECTING"
	case NodeConnected:
		return "CONNECTED"
	case NodeBusy:
		return "BUSY"
	case NodeDisconnected:
		return "DISCONNECTED"
	case NodeError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ContainerState is the lifecycle state of a container, mirrored between the
// coordinator's ledger and the owning worker's local ledger.
type ContainerState uint8

const (
	ContainerStopped ContainerState = iota
	ContainerStarting
	ContainerRunning
	ContainerStopping
	ContainerError
)

func (s ContainerState) String() string {
	switch s {
	case ContainerStopped:
		return "STOPPED"
	case ContainerStarting:
		return "STARTING"
	case ContainerRunning:
		return "RUNNING"
	case ContainerStopping:
		return "STOPPING"
	case ContainerError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Resources is a point-in-time sample of a worker's load.
type Resources struct {
	CPUUsed        float64
	MemUsed        float64
	DiskUsed       float64
	ContainerCount int
	MaxContainers  int
}

// ContainerSpec is the declarative intent for one container.
type ContainerSpec struct {
	Name        string
	Image       string
	CPULimit    int
	MemoryLimit int
	Privileged  bool
	Env         []string
	Mounts      []string
	Network     string
	// Ports maps "containerPort/proto" (e.g. "8080/tcp") to the host port to
	// publish it on. Empty means no published ports.
	Ports map[string]int
}

// ContainerID is deterministic: {node_id}_{spec.name}.
func ContainerID(nodeID, name string) string {
	return nodeID + "_" + name
}

// Container is the authoritative record of one deployed container.
type Container struct {
	ID        string
	Name      string
	NodeID    string
	State     ContainerState
	Spec      ContainerSpec
	CreatedAt time.Time
	StartedAt time.Time
}

// Worker is the coordinator's view of one registered node. Conn is a weak
// back-reference to the accepted connection; the registry never owns it and
// clears it on disconnect.
type Worker struct {
	ID            string
	Hostname      string
	IP            string
	Port          int
	State         NodeState
	Resources     Resources
	LastHeartbeat time.Time
	Conn          Conn
	Containers    []string // ContainerIDs placed on this worker
}

// Conn is the minimal surface the registry needs from an accepted
// connection: the ability to push a message to it, and to close it once
// the worker is declared disconnected. It is a weak back-reference, never
// ownership — the accepting task still owns the socket's lifetime for as
// long as it runs, and this field is cleared (via mark-disconnected) on
// termination; Close only unblocks that task's pending read rather than
// transferring ownership. Defined here rather than importing the wire
// package to avoid a dependency cycle (wire-level payload packing needs
// the model types).
type Conn interface {
	Send(msgType uint8, payload []byte) error
	Close() error
}
