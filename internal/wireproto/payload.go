// Package wireproto packs and unpacks the typed payloads carried inside a
// wire.Frame's data region: the declarative text registration line, and
// the JSON-encoded resource samples, specs, and container status records.
package wireproto

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ahmadhassan44/distributed-lxc/internal/model"
)

// Registration is the payload of a REGISTER_NODE message.
type Registration struct {
	Hostname string
	IP       string
	Port     int
}

// EncodeRegistration renders "<hostname> <ip> <port>" as the
// REGISTER_NODE payload text.
func EncodeRegistration(r Registration) []byte {
	return []byte(fmt.Sprintf("%s %s %d", r.Hostname, r.IP, r.Port))
}

// DecodeRegistration parses the REGISTER_NODE text payload.
func DecodeRegistration(payload []byte) (Registration, error) {
	fields := strings.Fields(string(payload))
	if len(fields) != 3 {
		return Registration{}, fmt.Errorf("wireproto: malformed registration payload %q", payload)
	}
	port, err := strconv.Atoi(fields[2])
	if err != nil {
		return Registration{}, fmt.Errorf("wireproto: malformed registration port: %w", err)
	}
	return Registration{Hostname: fields[0], IP: fields[1], Port: port}, nil
}

// resourcesWire is the JSON shape for a NODE_HEARTBEAT payload.
type resourcesWire struct {
	CPUUsed        float64 `json:"cpu_used"`
	MemUsed        float64 `json:"mem_used"`
	DiskUsed       float64 `json:"disk_used"`
	ContainerCount int     `json:"container_count"`
	MaxContainers  int     `json:"max_containers"`
}

func EncodeResources(r model.Resources) ([]byte, error) {
	return json.Marshal(resourcesWire{
		CPUUsed:        r.CPUUsed,
		MemUsed:        r.MemUsed,
		DiskUsed:       r.DiskUsed,
		ContainerCount: r.ContainerCount,
		MaxContainers:  r.MaxContainers,
	})
}

func DecodeResources(payload []byte) (model.Resources, error) {
	var w resourcesWire
	if err := json.Unmarshal(payload, &w); err != nil {
		return model.Resources{}, fmt.Errorf("wireproto: malformed resources payload: %w", err)
	}
	return model.Resources{
		CPUUsed:        w.CPUUsed,
		MemUsed:        w.MemUsed,
		DiskUsed:       w.DiskUsed,
		ContainerCount: w.ContainerCount,
		MaxContainers:  w.MaxContainers,
	}, nil
}

// specWire is the JSON shape for a DEPLOY_CONTAINER payload.
type specWire struct {
	Name        string         `json:"name"`
	Image       string         `json:"image,omitempty"`
	CPULimit    int            `json:"cpu_limit"`
	MemoryLimit int            `json:"memory_limit"`
	Privileged  bool           `json:"privileged"`
	Env         []string       `json:"env,omitempty"`
	Mounts      []string       `json:"mounts,omitempty"`
	Network     string         `json:"network,omitempty"`
	Ports       map[string]int `json:"ports,omitempty"`
}

func EncodeSpec(s model.ContainerSpec) ([]byte, error) {
	return json.Marshal(specWire{
		Name:        s.Name,
		Image:       s.Image,
		CPULimit:    s.CPULimit,
		MemoryLimit: s.MemoryLimit,
		Privileged:  s.Privileged,
		Env:         s.Env,
		Mounts:      s.Mounts,
		Network:     s.Network,
		Ports:       s.Ports,
	})
}

func DecodeSpec(payload []byte) (model.ContainerSpec, error) {
	var w specWire
	if err := json.Unmarshal(payload, &w); err != nil {
		return model.ContainerSpec{}, fmt.Errorf("wireproto: malformed spec payload: %w", err)
	}
	return model.ContainerSpec{
		Name:        w.Name,
		Image:       w.Image,
		CPULimit:    w.CPULimit,
		MemoryLimit: w.MemoryLimit,
		Privileged:  w.Privileged,
		Env:         w.Env,
		Mounts:      w.Mounts,
		Network:     w.Network,
		Ports:       w.Ports,
	}, nil
}

// containerWire is the JSON shape for a CONTAINER_STATUS payload. It omits
// the spec body: the coordinator already holds it from the original
// DEPLOY_CONTAINER, and re-sending it on every status push would waste
// frame space for no benefit.
type containerWire struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	NodeID string `json:"node_id"`
	State  uint8  `json:"state"`
}

func EncodeContainerStatus(c model.Container) ([]byte, error) {
	return json.Marshal(containerWire{ID: c.ID, Name: c.Name, NodeID: c.NodeID, State: uint8(c.State)})
}

// ContainerStatus is the decoded shape of a CONTAINER_STATUS payload.
type ContainerStatus struct {
	ID     string
	Name   string
	NodeID string
	State  model.ContainerState
}

func DecodeContainerStatus(payload []byte) (ContainerStatus, error) {
	var w containerWire
	if err := json.Unmarshal(payload, &w); err != nil {
		return ContainerStatus{}, fmt.Errorf("wireproto: malformed container status payload: %w", err)
	}
	return ContainerStatus{ID: w.ID, Name: w.Name, NodeID: w.NodeID, State: model.ContainerState(w.State)}, nil
}

// EncodeName packs a container name for START/STOP/DELETE payloads.
func EncodeName(name string) []byte { return []byte(name) }

// DecodeName unpacks a container name from a START/STOP/DELETE payload.
func DecodeName(payload []byte) string { return string(payload) }

// EncodeText packs a human-readable ACK/ERROR payload.
func EncodeText(s string) []byte { return []byte(s) }

// DecodeText unpacks a human-readable ACK/ERROR payload.
func DecodeText(payload []byte) string { return string(payload) }
