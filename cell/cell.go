// Package cell implements the two value-cell types at the core of a
// reconciliation engine's data model: Local, a value known before any
// platform call is made, and Remote, a value that may still be Unknown
// until a create or read against the platform resolves it.
package cell

import "fmt"

// Local wraps a value that is always known — it came from the caller's
// declared configuration, not from a platform response.
type Local[T comparable] struct {
	Value T
}

// NewLocal constructs a Local cell holding v.
func NewLocal[T comparable](v T) Local[T] {
	return Local[T]{Value: v}
}

func (l Local[T]) String() string {
	return fmt.Sprintf("%v", l.Value)
}

// Equal reports whether two Local cells hold the same value.
func (l Local[T]) Equal(other Local[T]) bool {
	return l.Value == other.Value
}

// remoteState tags which variant a Remote cell currently holds.
type remoteState int

const (
	stateUnknown remoteState = iota
	stateKnown
)

// Remote wraps a value that is Unknown until a platform call resolves it
// to Known(v). Equality against Remote is deliberately asymmetric: a
// Remote cell that is still Unknown compares equal to anything, so that
// a composite comparison never reports drift on a field the platform
// hasn't told us about yet.
type Remote[T comparable] struct {
	state remoteState
	value T
}

// UnknownCell constructs a Remote cell with no known value.
func UnknownCell[T comparable]() Remote[T] {
	return Remote[T]{state: stateUnknown}
}

// KnownCell constructs a Remote cell holding a known value.
func KnownCell[T comparable](v T) Remote[T] {
	return Remote[T]{state: stateKnown, value: v}
}

// IsKnown reports whether the cell holds a resolved value.
func (r Remote[T]) IsKnown() bool {
	return r.state == stateKnown
}

// Get returns the known value and true, or the zero value and false if
// the cell is still Unknown.
func (r Remote[T]) Get() (T, bool) {
	return r.value, r.state == stateKnown
}

// MustGet returns the known value, panicking if the cell is Unknown.
// Resource authors should only call this from within Read/Create/Update,
// after the cell has just been assigned by a platform response.
func (r Remote[T]) MustGet() T {
	if r.state != stateKnown {
		panic("cell: MustGet called on an Unknown Remote cell")
	}
	return r.value
}

func (r Remote[T]) String() string {
	if r.state != stateKnown {
		return "<unknown>"
	}
	return fmt.Sprintf("%v", r.value)
}

// Equal implements the asymmetric equality rule: Unknown == anything is
// true, since an Unknown cell represents "we have not observed this
// field yet," not "this field differs." Two Known cells compare by value.
func (r Remote[T]) Equal(other Remote[T]) bool {
	if r.state != stateKnown || other.state != stateKnown {
		return true
	}
	return r.value == other.value
}

// jsonRemote is the wire shape for Remote[T], the tagged-union analogue
// of a typed Option: {"known":false,"value":<zero value of T>} or
// {"known":true,"value":v}.
type jsonRemote[T comparable] struct {
	Known bool `json:"known"`
	Value T    `json:"value"`
}

// MarshalJSON implements json.Marshaler.
func (r Remote[T]) MarshalJSON() ([]byte, error) {
	return marshalRemote(r)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Remote[T]) UnmarshalJSON(data []byte) error {
	return unmarshalRemote(data, r)
}
