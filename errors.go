package ecs

import "errors"

var (
	// ErrInvalidArgument indicates a call received an argument that violates its contract.
	ErrInvalidArgument = errors.New("ecs: invalid argument")
	// ErrInvariant indicates a structural invariant was violated, such as a cycle in a system graph.
	ErrInvariant = errors.New("ecs: invariant violated")
	// ErrNotFound signals lookup of a system, stage, entity or registered component type that does not exist.
	ErrNotFound = errors.New("ecs: not found")
	// ErrStopped indicates work cannot be submitted because the worker pool stopped.
	ErrStopped = errors.New("ecs: worker pool stopped")
	// ErrOutOfRange indicates an index or identifier outside the valid range.
	ErrOutOfRange = errors.New("ecs: out of range")
)
