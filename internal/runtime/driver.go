// Package runtime defines the adapter contract the worker agent uses to
// drive actual containers, and the two implementations it ships: a Docker
// Engine API backend for production use, and an in-memory fake for tests
// that records commands and lets them script failures.
package runtime

import (
	"context"

	"github.com/ahmadhassan44/distributed-lxc/internal/model"
)

// Driver is the adapter contract the worker agent depends on. create is
// idempotent (an existing container by that name is not an error); destroy
// is idempotent (an absent container is not an error); the cleanup order
// for removing a running container is Stop then Destroy. Any state the
// backend can't map to one of the four lifecycle states comes back as
// model.ContainerError.
type Driver interface {
	Create(ctx context.Context, spec model.ContainerSpec) error
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Destroy(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	QueryState(ctx context.Context, name string) (model.ContainerState, error)
	SampleResources(ctx context.Context) (model.Resources, error)
}
