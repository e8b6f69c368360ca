package store

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/mirrorplan/mirrorplan/depend"
	"github.com/mirrorplan/mirrorplan/resource"
)

// adapter is the runtime-dispatched capability table for one type tag:
// a decoder plus thin wrappers around a concrete resource.Capability[P]
// implementation's methods that operate on `any` instead of the
// concrete type T, so the store can hold heterogeneous resource types
// in one map keyed by type tag. It is installed into a Store's registry
// the first time a type is Declared, Registered, or handed to
// PendingDestroy — the Go analogue of teleform's auto-constructed
// ResourceDeleter.
type adapter[P any] struct {
	typeTag        string
	decode         func(data json.RawMessage) (any, error)
	dependencies   func(v any) []string
	shouldRecreate func(v any, stored any) bool
	shouldUpdate   func(v any, stored any) bool
	create         func(ctx context.Context, p P, v any) error
	read           func(ctx context.Context, p P, v any) error
	update         func(ctx context.Context, p P, v any, stored any) error
	delete         func(ctx context.Context, p P, v any) error
}

func newAdapter[P any, T resource.Capability[P]](tag string) *adapter[P] {
	return &adapter[P]{
		typeTag: tag,
		decode: func(data json.RawMessage) (any, error) {
			return decodeAs[T](data)
		},
		dependencies: func(v any) []string {
			t := v.(T)
			if deps := t.Dependencies(); len(deps) > 0 {
				return deps
			}
			return depend.Fields(t)
		},
		shouldRecreate: func(v any, stored any) bool { return v.(T).ShouldRecreate(stored) },
		shouldUpdate:   func(v any, stored any) bool { return v.(T).ShouldUpdate(stored) },
		create:         func(ctx context.Context, p P, v any) error { return v.(T).Create(ctx, p) },
		read:           func(ctx context.Context, p P, v any) error { return v.(T).Read(ctx, p) },
		update: func(ctx context.Context, p P, v any, stored any) error {
			return v.(T).Update(ctx, p, stored)
		},
		delete: func(ctx context.Context, p P, v any) error { return v.(T).Delete(ctx, p) },
	}
}

// decodeAs unmarshals data into a fresh T, handling both pointer-typed
// and value-typed capability implementations: Go generics give no way
// to write "new(T)" when T might itself be a pointer type, so this uses
// reflection to allocate the right shape before handing it to
// json.Unmarshal, which always needs a pointer to write through.
func decodeAs[T any](data []byte) (T, error) {
	var zero T
	rt := reflect.TypeOf(zero)

	if rt != nil && rt.Kind() == reflect.Pointer {
		v := reflect.New(rt.Elem())
		if len(data) > 0 {
			if err := json.Unmarshal(data, v.Interface()); err != nil {
				return zero, err
			}
		}
		return v.Interface().(T), nil
	}

	var v T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &v); err != nil {
			return zero, err
		}
	}
	return v, nil
}

func zeroTypeTag[P any, T resource.Capability[P]]() string {
	v, _ := decodeAs[T](nil)
	return v.TypeTag()
}
