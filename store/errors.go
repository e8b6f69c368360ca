package store

import "fmt"

// ErrDuplicateKey reports that a resource_key was declared twice in the
// same store, violating the uniqueness invariant every declared set
// must hold.
type ErrDuplicateKey struct {
	Key string
}

func (e *ErrDuplicateKey) Error() string {
	return fmt.Sprintf("store: resource key %q declared more than once", e.Key)
}
