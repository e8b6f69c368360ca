package engine

import "strings"

// ErrMissingResource reports that a declared resource's dependency key
// does not appear in either the declared or stored set.
type ErrMissingResource struct {
	Key     string
	Missing string
}

func (e *ErrMissingResource) Error() string {
	return "resource " + e.Key + " depends on unknown resource " + e.Missing
}

// ErrCyclicPlan reports a cycle discovered while topologically sorting
// the dependency graph. Keys lists, in lexicographic order, every node
// the sort could not place: the members of the cycle plus any node that
// depends on one of them.
type ErrCyclicPlan struct {
	Keys []string
}

func (e *ErrCyclicPlan) Error() string {
	return "cyclic plan: " + strings.Join(e.Keys, " -> ")
}

// ErrUnresolvedDependency reports that a node's input still referenced
// an Unknown field on another resource at the moment it was due to run.
type ErrUnresolvedDependency struct {
	Key      string
	RefKey   string
	Selector string
}

func (e *ErrUnresolvedDependency) Error() string {
	return "resource " + e.Key + ": dependency " + e.RefKey + "/" + e.Selector + " is still unresolved"
}
