// Package orcherr defines the typed error kinds shared across the
// coordinator and worker agent. Call sites that need to branch on failure
// category (to decide whether to ack, retry, or report upstream) use Kind;
// everything else just treats these as ordinary errors. Wrapping goes
// through github.com/pkg/errors so a failure keeps its origin stack as it
// crosses package boundaries.
package orcherr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why an operation failed.
type Kind uint8

const (
	// Unknown is the zero value: an error with no assigned kind.
	Unknown Kind = iota
	// ParseError marks a malformed wire payload or config document. The
	// ledger also returns it for a duplicate insert, an illegal state
	// transition, or a delete in a non-deletable state.
	ParseError
	// CapacityExceeded marks a registry at its configured worker cap.
	CapacityExceeded
	// NoCapacity marks a placement request with no worker able to host it.
	NoCapacity
	// NotFound marks a lookup against an unknown node or container id.
	NotFound
	// WorkerUnavailable marks a command sent to a disconnected or busy node.
	WorkerUnavailable
	// TransportError marks a short read/write or a broken connection.
	TransportError
	// RuntimeError marks a failure reported by the underlying container runtime.
	RuntimeError
	// Timeout marks an operation that exceeded its deadline (e.g. an
	// unacknowledged DEPLOY_CONTAINER).
	Timeout
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "parse_error"
	case CapacityExceeded:
		return "capacity_exceeded"
	case NoCapacity:
		return "no_capacity"
	case NotFound:
		return "not_found"
	case WorkerUnavailable:
		return "worker_unavailable"
	case TransportError:
		return "transport_error"
	case RuntimeError:
		return "runtime_error"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is an error carrying a Kind, for callers that need to branch on
// failure category rather than match strings.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// New builds a Kind-tagged error with a formatted message.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind to err, preserving err as the wrapped cause and its
// pkg/errors stack trace if it has one.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), err: errors.WithStack(err)}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error; otherwise it returns Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err's kind is exactly kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
