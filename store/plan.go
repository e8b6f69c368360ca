package store

import (
	"context"

	"github.com/mirrorplan/mirrorplan/engine"
	"github.com/mirrorplan/mirrorplan/persist"
)

// Plan classifies every declared and stored resource against the
// action table (create / update / recreate / destroy / noop / warn) and
// returns the dependency-ordered Schedule the caller can inspect with
// Schedule.ToText or Schedule.ToDOT before calling Apply.
func (s *Store[P]) Plan(ctx context.Context) (*engine.Schedule, error) {
	s.mu.Lock()
	declared := s.lockedCopyDeclared()
	registry := s.lockedCopyRegistry()
	pendingDestroy := make(map[string]bool, len(s.pendingDestroy))
	for k, v := range s.pendingDestroy {
		pendingDestroy[k] = v
	}
	s.mu.Unlock()

	mirror, err := s.backend.Read(ctx)
	if err != nil {
		return nil, err
	}

	return classify(declared, registry, pendingDestroy, mirror)
}

func classify[P any](declared map[string]declaredEntry[P], registry map[string]*adapter[P], pendingDestroy map[string]bool, mirror *persist.Mirror) (*engine.Schedule, error) {
	declaredDeps := make(map[string][]string, len(declared))
	for key, de := range declared {
		declaredDeps[key] = registry[de.typeTag].dependencies(de.value)
	}

	dependents := make(map[string][]string)
	for key, deps := range declaredDeps {
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], key)
		}
	}
	for k, e := range mirror.Entries {
		for _, dep := range e.Dependencies {
			dependents[dep] = append(dependents[dep], k)
		}
	}

	var resources []engine.ClassifiedResource

	for key, de := range declared {
		entry, exists := mirror.Get(key)
		if !exists {
			resources = append(resources, engine.ClassifiedResource{
				Key: key, Action: engine.ActionCreate, TypeTag: de.typeTag,
				DependsOn: declaredDeps[key], DestroyDependsOn: dependents[key],
			})
			continue
		}

		adapter := registry[de.typeTag]
		storedVal, inert := persist.Decode(key, entry, adapter.decode)
		if inert != nil {
			return nil, &persist.ErrSchemaMigration{Key: key, TypeTag: de.typeTag, Detail: "stored payload does not match the declared type's current schema"}
		}

		action := engine.ActionNoop
		switch {
		case adapter.shouldRecreate(de.value, storedVal):
			action = engine.ActionRecreate
		case adapter.shouldUpdate(de.value, storedVal):
			action = engine.ActionUpdate
		}
		resources = append(resources, engine.ClassifiedResource{
			Key: key, Action: action, TypeTag: de.typeTag,
			DependsOn: declaredDeps[key], DestroyDependsOn: dependents[key],
		})
	}

	for key, entry := range mirror.Entries {
		if _, isDeclared := declared[key]; isDeclared {
			continue
		}
		_, registered := registry[entry.TypeTag]
		if !registered && !pendingDestroy[key] {
			resources = append(resources, engine.ClassifiedResource{
				Key: key, Action: engine.ActionWarnOrphan, TypeTag: entry.TypeTag, IsOrphan: true,
			})
			continue
		}
		resources = append(resources, engine.ClassifiedResource{
			Key: key, Action: engine.ActionDestroy, TypeTag: entry.TypeTag, DependsOn: dependents[key],
		})
	}

	return engine.BuildSchedule(resources)
}
