package coordinatorsrv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ahmadhassan44/distributed-lxc/internal/configload"
)

// REPL runs the operator command loop, one line per command: deploy,
// start, stop, delete, list containers, list nodes, quit.
type REPL struct {
	coordinator *Coordinator
	loader      configload.Loader
	in          io.Reader
	out         io.Writer
}

// NewREPL builds a REPL reading from in and writing to out.
func NewREPL(c *Coordinator, in io.Reader, out io.Writer) *REPL {
	return &REPL{coordinator: c, loader: configload.NewFileLoader(), in: in, out: out}
}

// Run reads commands until EOF or "quit".
func (r *REPL) Run() {
	fmt.Fprintln(r.out, "\n=== Distributed Container Orchestrator ===")
	fmt.Fprintln(r.out, "Commands:")
	fmt.Fprintln(r.out, "  deploy <file>         - deploy container from a declarative spec file")
	fmt.Fprintln(r.out, "  start <container_id>  - start container")
	fmt.Fprintln(r.out, "  stop <container_id>   - stop container")
	fmt.Fprintln(r.out, "  delete <container_id> - delete container")
	fmt.Fprintln(r.out, "  list containers       - list all containers")
	fmt.Fprintln(r.out, "  list nodes            - list all nodes")
	fmt.Fprintln(r.out, "  quit                  - exit coordinator")
	fmt.Fprintln(r.out)

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, "coordinator> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if r.dispatch(line) {
			return
		}
	}
}

// dispatch handles one command line; returns true if the REPL should exit.
func (r *REPL) dispatch(line string) bool {
	switch {
	case strings.HasPrefix(line, "deploy "):
		r.cmdDeploy(strings.TrimSpace(strings.TrimPrefix(line, "deploy ")))
	case strings.HasPrefix(line, "start "):
		r.cmdStart(strings.TrimSpace(strings.TrimPrefix(line, "start ")))
	case strings.HasPrefix(line, "stop "):
		r.cmdStop(strings.TrimSpace(strings.TrimPrefix(line, "stop ")))
	case strings.HasPrefix(line, "delete "):
		r.cmdDelete(strings.TrimSpace(strings.TrimPrefix(line, "delete ")))
	case line == "list containers":
		r.cmdListContainers()
	case line == "list nodes":
		r.cmdListNodes()
	case line == "quit":
		return true
	default:
		fmt.Fprintf(r.out, "Unknown command: %s\n", line)
	}
	return false
}

func (r *REPL) cmdDeploy(path string) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(r.out, "Error: cannot open %s: %v\n", path, err)
		return
	}
	defer f.Close()

	c, err := r.coordinator.Deploy(f, r.loader)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "Deployed %s on %s (state=%s)\n", c.ID, c.NodeID, c.State)
}

func (r *REPL) cmdStart(id string) {
	c, err := r.coordinator.StartContainer(id)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "Start requested for %s\n", c.ID)
}

func (r *REPL) cmdStop(id string) {
	c, err := r.coordinator.StopContainer(id)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "Stop requested for %s\n", c.ID)
}

func (r *REPL) cmdDelete(id string) {
	if err := r.coordinator.DeleteContainer(id); err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "Deleted %s\n", id)
}

func (r *REPL) cmdListContainers() {
	fmt.Fprintf(r.out, "%-24s %-16s %-16s %s\n", "id", "name", "node_id", "state")
	for _, c := range r.coordinator.ListContainers() {
		fmt.Fprintf(r.out, "%-24s %-16s %-16s %s\n", c.ID, c.Name, c.NodeID, c.State)
	}
}

func (r *REPL) cmdListNodes() {
	fmt.Fprintf(r.out, "%-16s %-16s %-15s %-12s %-8s %s\n", "id", "hostname", "ip", "state", "cpu%", "mem%")
	for _, w := range r.coordinator.ListNodes() {
		fmt.Fprintf(r.out, "%-16s %-16s %-15s %-12s %-8.1f %.1f\n", w.ID, w.Hostname, w.IP, w.State, w.Resources.CPUUsed, w.Resources.MemUsed)
	}
}
