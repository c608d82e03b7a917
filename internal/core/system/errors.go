package system

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownDependency reports a declared dependency on a name no
	// registered system carries.
	ErrUnknownDependency = errors.New("unknown dependency")
	// ErrCyclicDependency reports a dependency cycle; no order exists.
	ErrCyclicDependency = errors.New("cyclic dependency")
	// ErrNotStarted reports a tick driven before Start succeeded.
	ErrNotStarted = errors.New("scheduler not started")
	// ErrDuplicateName reports a second registration under a taken name.
	ErrDuplicateName = errors.New("duplicate system name")
)

// UnknownDependencyError identifies both the declaring system and the
// missing name.
type UnknownDependencyError struct {
	System     string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("system %q depends on unregistered system %q", e.System, e.Dependency)
}

func (e *UnknownDependencyError) Unwrap() error { return ErrUnknownDependency }

// CyclicDependencyError carries the systems found on the cycle.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Cycle, " -> "))
}

func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }

// InitError reports which system failed to initialize and why. It aborts
// the whole registration batch: no system ticks until every Init succeeds.
type InitError struct {
	System string
	Err    error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init of system %q failed: %v", e.System, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// UpdateError wraps a per-tick failure of one system. It is logged and
// contained; other systems in the tick still run.
type UpdateError struct {
	System string
	Err    error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update of system %q failed: %v", e.System, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }
