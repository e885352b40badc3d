package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahmadhassan44/distributed-lxc/internal/model"
	"github.com/ahmadhassan44/distributed-lxc/internal/orcherr"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// DockerDriver implements Driver against a local Docker Engine, generalizing
// the gateway's single-purpose worker-container orchestrator into the full
// create/start/stop/destroy/query contract the worker agent needs for
// arbitrary named containers.
type DockerDriver struct {
	cli           *client.Client
	containerRoot string
	maxContainers int
}

// NewDockerDriver connects to the Docker daemon using the ambient
// environment (DOCKER_HOST and friends), negotiating the API version the
// same way the gateway's orchestrator did.
func NewDockerDriver(maxContainers int) (*DockerDriver, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, orcherr.Wrap(orcherr.RuntimeError, err, "runtime: connect to docker daemon")
	}
	return &DockerDriver{cli: cli, containerRoot: "lxc-", maxContainers: maxContainers}, nil
}

func (d *DockerDriver) dockerName(name string) string {
	return d.containerRoot + name
}

// Create is idempotent: an already-existing container of this name is not
// an error, per the adapter contract.
func (d *DockerDriver) Create(ctx context.Context, spec model.ContainerSpec) error {
	exists, err := d.Exists(ctx, spec.Name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	exposedPorts, portBindings, err := portBindingsFor(spec.Ports)
	if err != nil {
		return orcherr.Wrap(orcherr.ParseError, err, "runtime: invalid ports for %q", spec.Name)
	}

	cfg := &container.Config{
		Image:        spec.Image,
		Env:          spec.Env,
		ExposedPorts: exposedPorts,
	}
	hostCfg := &container.HostConfig{
		Privileged:   spec.Privileged,
		Binds:        spec.Mounts,
		PortBindings: portBindings,
	}
	if spec.Network != "" {
		hostCfg.NetworkMode = containerNetworkMode(spec.Network)
	}
	if spec.CPULimit > 0 {
		hostCfg.Resources.NanoCPUs = int64(spec.CPULimit) * 1_000_000
	}
	if spec.MemoryLimit > 0 {
		hostCfg.Resources.Memory = int64(spec.MemoryLimit) * 1024 * 1024
	}

	_, err = d.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, d.dockerName(spec.Name))
	if err != nil {
		return orcherr.Wrap(orcherr.RuntimeError, err, "runtime: create container %q", spec.Name)
	}
	return nil
}

func (d *DockerDriver) Start(ctx context.Context, name string) error {
	if err := d.cli.ContainerStart(ctx, d.dockerName(name), container.StartOptions{}); err != nil {
		return orcherr.Wrap(orcherr.RuntimeError, err, "runtime: start container %q", name)
	}
	return nil
}

func (d *DockerDriver) Stop(ctx context.Context, name string) error {
	if err := d.cli.ContainerStop(ctx, d.dockerName(name), container.StopOptions{}); err != nil {
		return orcherr.Wrap(orcherr.RuntimeError, err, "runtime: stop container %q", name)
	}
	return nil
}

// Destroy is idempotent: an absent container is not an error.
func (d *DockerDriver) Destroy(ctx context.Context, name string) error {
	err := d.cli.ContainerRemove(ctx, d.dockerName(name), container.RemoveOptions{Force: true})
	if err != nil && !client.IsErrNotFound(err) {
		return orcherr.Wrap(orcherr.RuntimeError, err, "runtime: destroy container %q", name)
	}
	return nil
}

func (d *DockerDriver) Exists(ctx context.Context, name string) (bool, error) {
	_, err := d.cli.ContainerInspect(ctx, d.dockerName(name))
	if err == nil {
		return true, nil
	}
	if client.IsErrNotFound(err) {
		return false, nil
	}
	return false, orcherr.Wrap(orcherr.RuntimeError, err, "runtime: inspect container %q", name)
}

// QueryState maps the Docker status string to one of the lifecycle states.
// Anything this adapter doesn't recognize comes back as ERROR, per the
// adapter contract's "unknown CLI output maps to ERROR" policy.
func (d *DockerDriver) QueryState(ctx context.Context, name string) (model.ContainerState, error) {
	info, err := d.cli.ContainerInspect(ctx, d.dockerName(name))
	if err != nil {
		if client.IsErrNotFound(err) {
			return model.ContainerStopped, nil
		}
		return model.ContainerError, orcherr.Wrap(orcherr.RuntimeError, err, "runtime: query state of %q", name)
	}
	if info.State == nil {
		return model.ContainerError, nil
	}
	switch info.State.Status {
	case "created", "exited", "dead":
		return model.ContainerStopped, nil
	case "running":
		return model.ContainerRunning, nil
	case "restarting":
		return model.ContainerStarting, nil
	case "removing", "paused":
		return model.ContainerStopping, nil
	default:
		return model.ContainerError, nil
	}
}

// SampleResources reports host-level utilization via gopsutil: a coarse
// per-node sample rather than a per-container cgroup reading.
func (d *DockerDriver) SampleResources(ctx context.Context) (model.Resources, error) {
	var res model.Resources

	cpuPct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return res, orcherr.Wrap(orcherr.RuntimeError, err, "runtime: sample cpu")
	}
	if len(cpuPct) > 0 {
		res.CPUUsed = cpuPct[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return res, orcherr.Wrap(orcherr.RuntimeError, err, "runtime: sample memory")
	}
	res.MemUsed = vm.UsedPercent

	du, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		return res, orcherr.Wrap(orcherr.RuntimeError, err, "runtime: sample disk")
	}
	res.DiskUsed = du.UsedPercent

	containers, err := d.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return res, orcherr.Wrap(orcherr.RuntimeError, err, "runtime: list containers")
	}
	res.ContainerCount = len(containers)
	res.MaxContainers = d.maxContainers

	return res, nil
}

func containerNetworkMode(network string) container.NetworkMode {
	return container.NetworkMode(network)
}

// portBindingsFor turns a spec's "containerPort/proto" -> hostPort map into
// the exposed-ports set and host bindings ContainerCreate expects, the same
// nat.PortMap shape the gateway's single-port orchestrator built by hand.
func portBindingsFor(ports map[string]int) (nat.PortSet, nat.PortMap, error) {
	if len(ports) == 0 {
		return nil, nil, nil
	}
	exposed := make(nat.PortSet, len(ports))
	bindings := make(nat.PortMap, len(ports))
	for containerPort, hostPort := range ports {
		port, err := nat.NewPort(portProto(containerPort), portNumber(containerPort))
		if err != nil {
			return nil, nil, err
		}
		exposed[port] = struct{}{}
		bindings[port] = []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: fmt.Sprintf("%d", hostPort)}}
	}
	return exposed, bindings, nil
}

// portNumber and portProto split a "8080/tcp"-style spec into its parts,
// defaulting to tcp when no protocol is given.
func portNumber(spec string) string {
	number, _, _ := strings.Cut(spec, "/")
	return number
}

func portProto(spec string) string {
	_, proto, ok := strings.Cut(spec, "/")
	if !ok {
		return "tcp"
	}
	return proto
}
