// Package depend implements the typed remote-reference cell and the
// blanket dependency-extraction walker that a store uses to build plan
// edges between resources without requiring every resource author to
// hand-write a Dependencies method.
package depend

import "fmt"

// Ref names a field on another resource that has not been resolved yet:
// the resource identified by Key, and the selector path into its stored
// payload (e.g. "id" or "endpoint.host").
type Ref struct {
	Key      string
	Selector string
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Key, r.Selector)
}

// Cell is the field type a resource author uses for an input that might
// be a literal value known up front, or a reference to another
// resource's output that will only be known once that resource has been
// created or read. It is the typed replacement for a string-based
// "ptr://" convention: whether a field is a reference is carried by its
// type and reported by Ref, instead of by a runtime prefix match.
type Cell[T any] struct {
	literal T
	ref     Ref
	isRef   bool
}

// Literal constructs a Cell holding a known value directly.
func Literal[T any](v T) Cell[T] {
	return Cell[T]{literal: v}
}

// Reference constructs a Cell that defers to another resource's output.
func Reference[T any](key, selector string) Cell[T] {
	return Cell[T]{ref: Ref{Key: key, Selector: selector}, isRef: true}
}

// Ref reports the reference this cell defers to, if any.
func (c Cell[T]) Ref() (Ref, bool) {
	return c.ref, c.isRef
}

// Value returns the literal value and true if this cell does not defer
// to another resource, or the zero value and false if it does.
func (c Cell[T]) Value() (T, bool) {
	if c.isRef {
		var zero T
		return zero, false
	}
	return c.literal, true
}

// Resolved returns a copy of this cell with v bound as its literal
// value, used by the applier once a referenced field becomes known.
func (c Cell[T]) Resolved(v T) Cell[T] {
	return Cell[T]{literal: v}
}
