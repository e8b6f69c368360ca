package store

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/mirrorplan/mirrorplan/depend"
	"github.com/mirrorplan/mirrorplan/engine"
	"github.com/mirrorplan/mirrorplan/persist"
)

// hasRef mirrors depend's internal interface so resolveReferences can
// recognize a depend.Cell field without depend exporting its method set
// under a different name; every depend.Cell[T] implements it regardless
// of T.
type hasRef interface {
	Ref() (depend.Ref, bool)
}

// resolvedMethodName names depend.Cell[T]'s Resolved method, invoked
// here through reflection since the concrete T varies per field
// and the store has no compile-time way to name it.
const resolvedMethodName = "Resolved"

// resolveReferences walks v (which must be a pointer so fields can be
// mutated in place) and replaces every depend.Cell still pointing at a
// Ref with the literal value read from that resource's stored entry in
// mirror, following the selector's dot-separated path into the stored
// JSON payload. It returns engine.ErrUnresolvedDependency if a
// referenced resource has no stored entry yet, or its selector path
// does not resolve to a value.
func resolveReferences(key string, v any, mirror *persist.Mirror) error {
	rv := reflect.ValueOf(v)
	return walkResolve(key, rv, mirror)
}

func walkResolve(key string, v reflect.Value, mirror *persist.Mirror) error {
	if !v.IsValid() {
		return nil
	}

	if v.CanInterface() {
		if rh, ok := v.Interface().(hasRef); ok {
			ref, isRef := rh.Ref()
			if !isRef {
				return nil
			}
			resolved, err := lookupSelector(mirror, ref)
			if err != nil {
				return &engine.ErrUnresolvedDependency{Key: key, RefKey: ref.Key, Selector: ref.Selector}
			}
			if v.CanSet() {
				return setResolved(v, resolved)
			}
			return nil
		}
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return walkResolve(key, v.Elem(), mirror)
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if err := walkResolve(key, v.Field(i), mirror); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := walkResolve(key, v.Index(i), mirror); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := walkResolve(key, iter.Value(), mirror); err != nil {
				return err
			}
		}
	}
	return nil
}

// setResolved calls the depend.Cell[T].Resolved(T) method via
// reflection, converting the decoded JSON value (float64, string, bool,
// map, slice, or nil) to T where a direct conversion exists, then
// assigns the result back into the field.
func setResolved(field reflect.Value, resolved any) error {
	method := field.MethodByName(resolvedMethodName)
	if !method.IsValid() {
		return nil
	}
	argType := method.Type().In(0)

	arg := reflect.ValueOf(resolved)
	if !arg.IsValid() {
		arg = reflect.Zero(argType)
	} else if arg.Type() != argType && arg.Type().ConvertibleTo(argType) {
		arg = arg.Convert(argType)
	}

	out := method.Call([]reflect.Value{arg})
	field.Set(out[0])
	return nil
}

// lookupSelector finds ref.Key's stored entry in mirror and navigates
// its JSON payload by ref.Selector, a dot-separated path such as
// "endpoint.host".
func lookupSelector(mirror *persist.Mirror, ref depend.Ref) (any, error) {
	entry, ok := mirror.Get(ref.Key)
	if !ok {
		return nil, errUnresolved
	}

	var payload any
	if err := json.Unmarshal(entry.Data, &payload); err != nil {
		return nil, err
	}

	for _, part := range strings.Split(ref.Selector, ".") {
		if part == "" {
			continue
		}
		m, ok := payload.(map[string]any)
		if !ok {
			return nil, errUnresolved
		}
		val, ok := m[part]
		if !ok {
			return nil, errUnresolved
		}
		unwrapped, err := unwrapRemoteWire(val)
		if err != nil {
			return nil, err
		}
		payload = unwrapped
	}
	return unwrapRemoteWire(payload)
}

// unwrapRemoteWire recognizes the {"known":bool,"value":v} shape a
// cell.Remote[T] marshals to and returns its inner value, so a selector
// like "id" names the field a resource author declared rather than the
// wire envelope around it. A selector that resolves to a Remote field
// still Unknown is itself unresolved: the referenced resource hasn't
// produced that output yet.
func unwrapRemoteWire(v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return v, nil
	}
	known, hasKnown := m["known"]
	if !hasKnown {
		return v, nil
	}
	isKnown, _ := known.(bool)
	if !isKnown {
		return nil, errUnresolved
	}
	return m["value"], nil
}

var errUnresolved = &unresolvedSelectorError{}

type unresolvedSelectorError struct{}

func (*unresolvedSelectorError) Error() string { return "selector did not resolve to a value" }
