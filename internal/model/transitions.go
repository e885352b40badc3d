package model

// legalFrom lists, for each container state, the states it may transition
// into as a direct report (i.e. not via disconnect-forced ERROR, which is
// always legal and handled separately by CanForceError).
var legalFrom = map[ContainerState][]ContainerState{
	ContainerStopped:  {ContainerStarting},
	ContainerStarting: {ContainerRunning, ContainerError},
	ContainerRunning:  {ContainerStopping},
	ContainerStopping: {ContainerStopped, ContainerError},
	ContainerError:    {},
}

// CanTransition reports whether from -> to is one of the legal container
// state transitions. Self-transitions are not legal (callers that observe
// a repeated report should no-op, not re-apply).
func CanTransition(from, to ContainerState) bool {
	for _, s := range legalFrom[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanForceError reports whether a container in the given state may be
// forced into ERROR by a worker disconnect or an explicit error report.
// Every state can; this exists as a named predicate so callers document
// intent rather than unconditionally overwriting state.
func CanForceError(from ContainerState) bool {
	return true
}

// CanDelete reports whether a container in the given state may be removed
// on a DELETE acknowledgment. STARTING and STOPPING are terminal until the
// worker reports back or is declared disconnected; deleting mid-transition
// would leave a dangling in-flight command with no record to reconcile
// against.
func CanDelete(s ContainerState) bool {
	return s != ContainerStarting && s != ContainerStopping
}
