// Package configload implements the ConfigLoader collaborator: a
// declarative, indentation-aware key/value text format that is
// deliberately not YAML (no quoting rules, no list/map syntax, comma-joined
// scalars for lists). It is hand-rolled rather than built on a YAML
// library precisely because parsing it as YAML would silently accept a
// different grammar than the one deployed configs are written in; see
// DESIGN.md for the fuller justification.
package configload

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/ahmadhassan44/distributed-lxc/internal/model"
	"github.com/ahmadhassan44/distributed-lxc/internal/orcherr"
)

// Loader is the ConfigLoader collaborator: it turns a declarative text
// document into a ContainerSpec.
type Loader interface {
	Load(r io.Reader) (model.ContainerSpec, error)
}

// FileLoader is the sole Loader implementation, a direct line-oriented
// scanner.
type FileLoader struct{}

// NewFileLoader builds the default Loader.
func NewFileLoader() FileLoader { return FileLoader{} }

// node is one parsed "key: value" line. Indentation is scanned but not
// load-bearing for field lookup, since every field this format defines
// lives at a single nesting level.
type node struct {
	key   string
	value string
}

// Load scans r line by line, skipping blank lines and '#' comments,
// splitting each remaining line on the first colon, and trimming
// surrounding whitespace from both the key and the value — mirroring
// parse_yaml_line's behavior exactly, including its "no colon, no pair"
// rule.
func (FileLoader) Load(r io.Reader) (model.ContainerSpec, error) {
	nodes, err := scan(r)
	if err != nil {
		return model.ContainerSpec{}, err
	}
	return fromNodes(nodes)
}

func scan(r io.Reader) ([]node, error) {
	var nodes []node
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" || trimmed[0] == '#' {
			continue
		}
		colon := strings.IndexByte(trimmed, ':')
		if colon < 0 {
			continue
		}
		key := strings.TrimSpace(trimmed[:colon])
		value := strings.TrimSpace(trimmed[colon+1:])
		if key == "" {
			continue
		}
		nodes = append(nodes, node{key: key, value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, orcherr.Wrap(orcherr.ParseError, err, "configload: reading document")
	}
	return nodes, nil
}

func lookup(nodes []node, key string) (string, bool) {
	for _, n := range nodes {
		if n.key == key {
			return n.value, true
		}
	}
	return "", false
}

// fromNodes extracts the known ContainerSpec fields by key, matching
// extract_lxc_config's field set and its comma-joined list convention for
// environment and mounts.
func fromNodes(nodes []node) (model.ContainerSpec, error) {
	var spec model.ContainerSpec

	name, ok := lookup(nodes, "name")
	if !ok || name == "" {
		return model.ContainerSpec{}, orcherr.New(orcherr.ParseError, "configload: missing required field %q", "name")
	}
	spec.Name = name

	if image, ok := lookup(nodes, "image"); ok {
		spec.Image = image
	}
	if cpu, ok := lookup(nodes, "cpu_limit"); ok {
		n, err := strconv.Atoi(cpu)
		if err != nil {
			return model.ContainerSpec{}, orcherr.Wrap(orcherr.ParseError, err, "configload: cpu_limit must be an integer")
		}
		spec.CPULimit = n
	}
	if mem, ok := lookup(nodes, "memory_limit"); ok {
		n, err := strconv.Atoi(mem)
		if err != nil {
			return model.ContainerSpec{}, orcherr.Wrap(orcherr.ParseError, err, "configload: memory_limit must be an integer")
		}
		spec.MemoryLimit = n
	}
	if priv, ok := lookup(nodes, "privileged"); ok {
		spec.Privileged = priv == "true"
	}
	if env, ok := lookup(nodes, "environment"); ok && env != "" {
		spec.Env = splitList(env)
	}
	if mounts, ok := lookup(nodes, "mounts"); ok && mounts != "" {
		spec.Mounts = splitList(mounts)
	}
	if network, ok := lookup(nodes, "network"); ok {
		spec.Network = network
	}
	if ports, ok := lookup(nodes, "ports"); ok && ports != "" {
		parsed, err := parsePorts(ports)
		if err != nil {
			return model.ContainerSpec{}, err
		}
		spec.Ports = parsed
	}

	return spec, nil
}

// parsePorts reads the same comma-joined-list convention mounts and
// environment use, one "containerPort/proto:hostPort" entry per item, e.g.
// "8080/tcp:30080, 9090/tcp:30090".
func parsePorts(s string) (map[string]int, error) {
	out := make(map[string]int)
	for _, entry := range splitList(s) {
		containerPort, hostPort, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, orcherr.New(orcherr.ParseError, "configload: malformed ports entry %q, want containerPort/proto:hostPort", entry)
		}
		n, err := strconv.Atoi(strings.TrimSpace(hostPort))
		if err != nil {
			return nil, orcherr.Wrap(orcherr.ParseError, err, "configload: ports entry %q has non-integer host port", entry)
		}
		out[strings.TrimSpace(containerPort)] = n
	}
	return out, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
