package runtime

import (
	"context"
	"sync"

	"github.com/ahmadhassan44/distributed-lxc/internal/model"
	"github.com/ahmadhassan44/distributed-lxc/internal/orcherr"
)

// Command records a single call the worker agent made through the Driver
// interface, for tests asserting on call order and idempotence (e.g. that
// a second delete never reaches the driver).
type Command struct {
	Op   string
	Name string
}

// FakeDriver is an in-memory Driver for tests. It tracks container
// existence and state directly rather than shelling out anywhere, and lets
// a test script failures by name.
type FakeDriver struct {
	mu         sync.Mutex
	containers map[string]model.ContainerState
	specs      map[string]model.ContainerSpec
	commands   []Command
	failOn     map[string]error
	resources  model.Resources
}

// NewFakeDriver builds an empty fake with the given resource sample to
// report from SampleResources.
func NewFakeDriver(resources model.Resources) *FakeDriver {
	return &FakeDriver{
		containers: make(map[string]model.ContainerState),
		specs:      make(map[string]model.ContainerSpec),
		failOn:     make(map[string]error),
		resources:  resources,
	}
}

// FailOn scripts op (e.g. "start") for name to return err on its next call.
func (f *FakeDriver) FailOn(op, name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[op+":"+name] = err
}

// Commands returns the recorded call history, in order.
func (f *FakeDriver) Commands() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Command, len(f.commands))
	copy(out, f.commands)
	return out
}

// Spec returns the spec most recently passed to Create for name, for tests
// asserting on what the driver actually received.
func (f *FakeDriver) Spec(name string) (model.ContainerSpec, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.specs[name]
	return s, ok
}

func (f *FakeDriver) record(op, name string) error {
	f.commands = append(f.commands, Command{Op: op, Name: name})
	if err, ok := f.failOn[op+":"+name]; ok {
		delete(f.failOn, op+":"+name)
		return err
	}
	return nil
}

func (f *FakeDriver) Create(_ context.Context, spec model.ContainerSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("create", spec.Name); err != nil {
		return err
	}
	if _, exists := f.containers[spec.Name]; exists {
		return nil
	}
	f.containers[spec.Name] = model.ContainerStopped
	f.specs[spec.Name] = spec
	return nil
}

func (f *FakeDriver) Start(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("start", name); err != nil {
		return err
	}
	if _, exists := f.containers[name]; !exists {
		return orcherr.New(orcherr.NotFound, "fakedriver: no container %q", name)
	}
	f.containers[name] = model.ContainerRunning
	return nil
}

func (f *FakeDriver) Stop(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("stop", name); err != nil {
		return err
	}
	if _, exists := f.containers[name]; !exists {
		return orcherr.New(orcherr.NotFound, "fakedriver: no container %q", name)
	}
	f.containers[name] = model.ContainerStopped
	return nil
}

func (f *FakeDriver) Destroy(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("destroy", name); err != nil {
		return err
	}
	delete(f.containers, name)
	delete(f.specs, name)
	return nil
}

func (f *FakeDriver) Exists(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, exists := f.containers[name]
	return exists, nil
}

func (f *FakeDriver) QueryState(_ context.Context, name string) (model.ContainerState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, exists := f.containers[name]
	if !exists {
		return model.ContainerStopped, nil
	}
	return s, nil
}

func (f *FakeDriver) SampleResources(_ context.Context) (model.Resources, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resources, nil
}

// SetResources updates the sample reported by future SampleResources calls,
// for tests that simulate a changing load.
func (f *FakeDriver) SetResources(r model.Resources) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources = r
}
