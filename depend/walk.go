package depend

import "reflect"

// hasRef is implemented by every depend.Cell[T] instantiation: the
// method signature does not depend on T, so a single interface matches
// all of them without reflection needing to know the type parameter.
type hasRef interface {
	Ref() (Ref, bool)
}

// HasDependencies lets a resource author override the reflective walk
// with a hand-written list, for performance or to add dependencies that
// aren't reachable as depend.Cell fields (e.g. a dependency implied by
// a string convention elsewhere in the resource).
type HasDependencies interface {
	Dependencies() []string
}

// Keys walks v with reflection and collects the resource keys of every
// depend.Cell found, however deeply nested in structs, pointers,
// slices, arrays, and maps. It is the blanket derivation every resource
// type gets for free; types implementing HasDependencies are asked
// directly instead of being walked.
func Keys(v any) []string {
	if v == nil {
		return nil
	}
	if hd, ok := v.(HasDependencies); ok {
		return hd.Dependencies()
	}
	return Fields(v)
}

// Fields performs the same reflective walk as Keys but skips the
// top-level HasDependencies check. A resource.Base[P] embedder satisfies
// HasDependencies trivially (Base's default Dependencies returns nil),
// so a resource's own Dependencies method — or the store adapter's
// blanket-derivation fallback — calls Fields directly instead of Keys to
// avoid that self-reference always winning over the reflective walk.
func Fields(v any) []string {
	if v == nil {
		return nil
	}
	seen := make(map[string]bool)
	var order []string
	walk(reflect.ValueOf(v), seen, &order)
	return order
}

func walk(v reflect.Value, seen map[string]bool, order *[]string) {
	if !v.IsValid() {
		return
	}

	if v.CanInterface() {
		if rh, ok := v.Interface().(hasRef); ok {
			if ref, isRef := rh.Ref(); isRef {
				if !seen[ref.Key] {
					seen[ref.Key] = true
					*order = append(*order, ref.Key)
				}
			}
			return
		}
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return
		}
		walk(v.Elem(), seen, order)
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			if !field.CanInterface() {
				continue
			}
			walk(field, seen, order)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			walk(v.Index(i), seen, order)
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			walk(iter.Value(), seen, order)
		}
	}
}
