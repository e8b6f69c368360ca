package engine

import (
	"fmt"
	"io"
	"strings"
)

// Action classifies what the applier must do for one resource key,
// per the declared/stored presence and should_recreate/should_update
// table.
type Action int

const (
	ActionNoop Action = iota
	ActionCreate
	ActionUpdate
	// ActionRecreate is the per-key diagnosis the store's classifier
	// assigns; BuildSchedule splits it into an ActionRecreateDestroy
	// node followed by an ActionRecreateCreate node (spec §4.4/§9: "two
	// linked nodes for visibility") so each half can interleave with
	// other resources' creates and destroys rather than running as one
	// opaque step. A caller never sees ActionRecreate in a Schedule.
	ActionRecreate
	ActionRecreateDestroy
	ActionRecreateCreate
	ActionDestroy
	// ActionWarnOrphan marks a stored entry whose type is not
	// registered with the store: it is carried through unchanged and
	// never touched by create/update/delete, only eligible for an
	// explicit PendingDestroy.
	ActionWarnOrphan
)

func (a Action) String() string {
	switch a {
	case ActionCreate, ActionRecreateCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionRecreate:
		return "recreate"
	case ActionDestroy, ActionRecreateDestroy:
		return "destroy"
	case ActionWarnOrphan:
		return "warn"
	default:
		return "noop"
	}
}

// PlannedAction is one node of a Schedule: a resource key, what the
// applier must do to it, and the type tag it was classified under. ID
// is the node's identity for dependency-edge purposes; it equals Key
// except for the two nodes a Recreate splits into, which share Key but
// carry distinct "#destroy"/"#create" suffixed IDs.
type PlannedAction struct {
	ID        string
	Key       string
	Action    Action
	TypeTag   string
	IsOrphan  bool
	DependsOn []string
}

// nodeID is this action's graph-node identity: ID when set, Key
// otherwise. Most actions never set ID explicitly and are identified by
// Key alone; only a Recreate's two split sub-nodes need the distinction.
func (a PlannedAction) nodeID() string {
	if a.ID != "" {
		return a.ID
	}
	return a.Key
}

// Schedule is the ordered, dependency-respecting plan produced by
// Plan: every action the applier will take, in an order where no
// action appears before an action it depends on (for create/update) or
// before an action that depends on it (for destroy, handled by the
// caller reversing dependents before building the schedule).
type Schedule struct {
	Actions  []PlannedAction
	Warnings []string
}

// ToText renders one line per action, in schedule order, the same
// shape a caller would show a user for confirmation before apply.
func (s *Schedule) ToText() string {
	var b strings.Builder
	for _, a := range s.Actions {
		if a.Action == ActionNoop {
			continue
		}
		marker := ""
		if a.IsOrphan {
			marker = " (orphaned type, not destroyed automatically)"
		}
		fmt.Fprintf(&b, "  %s '%s' [%s]%s\n", a.Action, a.Key, a.TypeTag, marker)
	}
	for _, w := range s.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	return b.String()
}

// ToDOT writes a Graphviz DOT rendering of the schedule's dependency
// edges, letting a caller inspect the plan visually without the core
// pulling in a graph-rendering dependency of its own.
func (s *Schedule) ToDOT(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph mirrorplan {"); err != nil {
		return err
	}
	for _, a := range s.Actions {
		label := fmt.Sprintf("%s\\n%s", a.Key, a.Action)
		if _, err := fmt.Fprintf(w, "  %q [label=%q];\n", a.nodeID(), label); err != nil {
			return err
		}
	}
	for _, a := range s.Actions {
		for _, dep := range a.DependsOn {
			if _, err := fmt.Fprintf(w, "  %q -> %q;\n", dep, a.nodeID()); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
