package model

import "testing"

func TestCanTransition(t *testing.T) {
	legal := []struct{ from, to ContainerState }{
		{ContainerStopped, ContainerStarting},
		{ContainerStarting, ContainerRunning},
		{ContainerStarting, ContainerError},
		{ContainerRunning, ContainerStopping},
		{ContainerStopping, ContainerStopped},
		{ContainerStopping, ContainerError},
	}
	for _, c := range legal {
		if !CanTransition(c.from, c.to) {
			t.Errorf("expected %s -> %s to be legal", c.from, c.to)
		}
	}

	illegal := []struct{ from, to ContainerState }{
		{ContainerStopped, ContainerRunning},
		{ContainerRunning, ContainerStarting},
		{ContainerError, ContainerStopped},
		{ContainerStopped, ContainerStopped},
		{ContainerRunning, ContainerRunning},
	}
	for _, c := range illegal {
		if CanTransition(c.from, c.to) {
			t.Errorf("expected %s -> %s to be illegal", c.from, c.to)
		}
	}
}

func TestCanDelete(t *testing.T) {
	deletable := []ContainerState{ContainerStopped, ContainerRunning, ContainerError}
	for _, s := range deletable {
		if !CanDelete(s) {
			t.Errorf("expected %s to be deletable", s)
		}
	}

	notDeletable := []ContainerState{ContainerStarting, ContainerStopping}
	for _, s := range notDeletable {
		if CanDelete(s) {
			t.Errorf("expected %s to not be deletable", s)
		}
	}
}

func TestCanForceError(t *testing.T) {
	for _, s := range []ContainerState{ContainerStopped, ContainerStarting, ContainerRunning, ContainerStopping, ContainerError} {
		if !CanForceError(s) {
			t.Errorf("expected %s to allow forced error", s)
		}
	}
}
