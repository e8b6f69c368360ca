package engine

import "fmt"

// ClassifiedResource is one resource key after the store has classified
// it against the declared/stored presence and should_recreate/
// should_update table. DependsOn carries the edges of a single-node
// action: for Create and Update, the forward dependencies this
// resource's declared value references; for a plain Destroy, the
// reverse dependents that must be destroyed first. For Recreate,
// DependsOn holds the Create-phase dependencies and DestroyDependsOn
// the reverse dependents the store computed from the dependency edges,
// used as the Destroy-phase dependencies; BuildSchedule reads
// DestroyDependsOn for no other action. A Recreate resource
// needs both: spec.md §4.4 requires its Destroy sub-node to wait on
// every current dependent's Destroy/Update, and its Create sub-node to
// wait on every new dependency's Create/Update.
type ClassifiedResource struct {
	Key              string
	Action           Action
	TypeTag          string
	IsOrphan         bool
	DependsOn        []string
	DestroyDependsOn []string
}

func destroyNodeID(key string) string { return key + "#destroy" }
func createNodeID(key string) string  { return key + "#create" }

// BuildSchedule topologically sorts the classified resources into a
// Schedule the applier can run. It splits every Recreate resource into
// two graph nodes sharing its Key — an ActionRecreateDestroy node and
// an ActionRecreateCreate node, joined by an explicit ordering edge —
// so a Recreate interleaves with other resources' plain creates and
// destroys instead of running as one atomic step. Validation of
// dangling dependency keys happens before the sort so a missing-
// resource error names the resource, not just "cycle."
func BuildSchedule(resources []ClassifiedResource) (*Schedule, error) {
	actionByKey := make(map[string]Action, len(resources))
	for _, r := range resources {
		actionByKey[r.Key] = r.Action
	}

	// forward resolves a key this node's create/update side depends on;
	// reverse resolves a key this node's destroy side depends on. A key
	// undergoing Recreate has two phases, so callers must say which one
	// they mean; every other action has exactly one node, named by Key.
	forward := func(key string) string {
		if actionByKey[key] == ActionRecreate {
			return createNodeID(key)
		}
		return key
	}
	reverse := func(key string) string {
		if actionByKey[key] == ActionRecreate {
			return destroyNodeID(key)
		}
		return key
	}
	resolveAll := func(keys []string, resolve func(string) string) []string {
		if len(keys) == 0 {
			return nil
		}
		out := make([]string, len(keys))
		for i, k := range keys {
			out[i] = resolve(k)
		}
		return out
	}

	var nodes []Node
	byID := make(map[string]PlannedAction)

	for _, r := range resources {
		if r.Action != ActionRecreate {
			var deps []string
			if r.Action == ActionDestroy {
				deps = resolveAll(r.DependsOn, reverse)
			} else {
				deps = resolveAll(r.DependsOn, forward)
			}
			nodes = append(nodes, Node{Key: r.Key, DependsOn: deps})
			byID[r.Key] = PlannedAction{
				ID: r.Key, Key: r.Key, Action: r.Action, TypeTag: r.TypeTag,
				IsOrphan: r.IsOrphan, DependsOn: deps,
			}
			continue
		}

		destroyID := destroyNodeID(r.Key)
		createID := createNodeID(r.Key)

		destroyDeps := resolveAll(r.DestroyDependsOn, reverse)
		nodes = append(nodes, Node{Key: destroyID, DependsOn: destroyDeps})
		byID[destroyID] = PlannedAction{
			ID: destroyID, Key: r.Key, Action: ActionRecreateDestroy, TypeTag: r.TypeTag,
			DependsOn: destroyDeps,
		}

		createDeps := append([]string{destroyID}, resolveAll(r.DependsOn, forward)...)
		nodes = append(nodes, Node{Key: createID, DependsOn: createDeps})
		byID[createID] = PlannedAction{
			ID: createID, Key: r.Key, Action: ActionRecreateCreate, TypeTag: r.TypeTag,
			DependsOn: createDeps,
		}
	}

	g := buildGraph(nodes)
	if err := g.validate(); err != nil {
		return nil, err
	}

	order, err := g.topoSort()
	if err != nil {
		return nil, err
	}

	sch := &Schedule{}
	for _, id := range order {
		a, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("engine: internal error, unknown scheduled node %q", id)
		}
		sch.Actions = append(sch.Actions, a)
	}
	return sch, nil
}
