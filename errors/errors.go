// forge/errors/errors.go
// Package errors defines the DI error taxonomy from spec.md §7. Each kind
// is a distinct sentinel so callers can use errors.Is, the same way the
// teacher's AppError taxonomy distinguished error kinds by a Type field —
// here the distinction is made through wrapped sentinel errors instead,
// since the DI core has no HTTP status to carry.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Use errors.Is(err, ErrUnresolvedKey) etc. to test
// which taxonomy member an error belongs to.
var (
	// ErrUnresolvedKey: no provider for a required key.
	ErrUnresolvedKey = errors.New("forge: unresolved key")
	// ErrAliasCycle: an alias chain revisits a key.
	ErrAliasCycle = errors.New("forge: alias cycle")
	// ErrBindingConflict: two equally-prioritised non-default providers
	// return incompatible substitutions.
	ErrBindingConflict = errors.New("forge: binding conflict")
	// ErrContainerInclusionCycle: the inclusion graph is not acyclic.
	ErrContainerInclusionCycle = errors.New("forge: container inclusion cycle")
	// ErrNoActiveContext: injection attempted with no context active.
	ErrNoActiveContext = errors.New("forge: no active context")
	// ErrResourceTeardown: an exception was raised during exit-stack unwind.
	ErrResourceTeardown = errors.New("forge: resource teardown failure")
	// ErrConcurrentMutation: registration attempted against a container
	// with live scopes.
	ErrConcurrentMutation = errors.New("forge: concurrent mutation of a bound container")
	// ErrNameCollision: container.New was given a name that an earlier
	// container in this process already uses (supplements spec.md, see
	// SPEC_FULL.md §3).
	ErrNameCollision = errors.New("forge: container name collision")
)

// WrapKey annotates a sentinel error with the offending key's diagnostic
// string, following the %w wrapping idiom used throughout the teacher's
// core package (core/module.go, core/lifecycle.go).
func WrapKey(sentinel error, keyName string) error {
	return fmt.Errorf("%w: %s", sentinel, keyName)
}

// Wrap annotates a sentinel error with a free-form message.
func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
