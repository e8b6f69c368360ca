// Package resource defines the capability contract a resource type
// implements to participate in planning and applying. The contract is
// parameterized over an opaque provider handle P so the core never needs
// to know what platform client a concrete resource type talks to.
package resource

import (
	"context"
	"errors"
)

// ErrNotImplemented is returned by the default Base[P] method bodies.
// A concrete resource type that reaches one of these without overriding
// it has a gap in its capability table, not a transient failure.
var ErrNotImplemented = errors.New("resource: method not implemented")

// Capability is the full set of operations the engine drives a resource
// type through. TypeTag identifies the type across process restarts and
// schema changes; it must be stable once any mirror file exists that
// references it.
type Capability[P any] interface {
	TypeTag() string
	Dependencies() []string
	ShouldRecreate(stored any) bool
	ShouldUpdate(stored any) bool
	Create(ctx context.Context, p P) error
	Read(ctx context.Context, p P) error
	Update(ctx context.Context, p P, stored any) error
	Delete(ctx context.Context, p P) error
}

// Base is embedded by a concrete resource type to pick up loud-failing
// defaults for every method that type doesn't need to override.
// ShouldRecreate and ShouldUpdate default to false: by default nothing
// about a declared value's drift from the stored value triggers an
// automatic recreate or update, since only the resource author knows
// which fields are significant.
type Base[P any] struct{}

func (Base[P]) Dependencies() []string { return nil }

func (Base[P]) ShouldRecreate(stored any) bool { return false }

func (Base[P]) ShouldUpdate(stored any) bool { return false }

func (Base[P]) Create(ctx context.Context, p P) error { return ErrNotImplemented }

func (Base[P]) Read(ctx context.Context, p P) error { return ErrNotImplemented }

func (Base[P]) Update(ctx context.Context, p P, stored any) error { return ErrNotImplemented }

func (Base[P]) Delete(ctx context.Context, p P) error { return ErrNotImplemented }

// ErrProvider wraps a failure returned by a capability method, carrying
// the resource key and the caller-defined error payload so the concrete
// platform error can surface without the core knowing its shape.
type ErrProvider struct {
	Key string
	Err error
}

func (e *ErrProvider) Error() string {
	return "resource " + e.Key + ": " + e.Err.Error()
}

func (e *ErrProvider) Unwrap() error { return e.Err }
