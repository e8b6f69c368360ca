package cell

// Composite implements the composite-merge rule for a Remote field:
// given a declared cell d and the matching stored cell s for the same
// field, it returns the cell a resource's Update should keep and a
// store should persist — the mechanism that lets a late-bound output
// (an ID assigned by Create, say) survive a caller re-declaring that
// field as Unknown on every subsequent plan. d wins whenever it is
// Known; s is only consulted to fill in what d left Unknown.
//
// Composite is idempotent: Composite(Composite(d, s), s) == Composite(d, s).
//
// Local fields need no such helper: composite(d, s) = d unconditionally,
// since a Local field is never persisted history the declaration should
// defer to — reading d.Value already is the answer.
func Composite[T comparable](declared, stored Remote[T]) Remote[T] {
	if v, ok := declared.Get(); ok {
		return KnownCell(v)
	}
	if v, ok := stored.Get(); ok {
		return KnownCell(v)
	}
	return UnknownCell[T]()
}
