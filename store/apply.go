package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mirrorplan/mirrorplan/engine"
	"github.com/mirrorplan/mirrorplan/persist"
	"github.com/mirrorplan/mirrorplan/resource"
)

// Apply executes sch node by node, honoring its dependency edges and
// running independent nodes concurrently up to the store's configured
// concurrency limit. Every successful node's result is merged into the
// working mirror and checkpointed to the backend before the next
// dependent node is allowed to start; on the first failure, Apply stops
// starting new nodes, waits for in-flight ones to finish, and returns
// that failure without rolling back anything already committed.
func (s *Store[P]) Apply(ctx context.Context, sch *engine.Schedule) error {
	s.mu.Lock()
	declared := s.lockedCopyDeclared()
	registry := s.lockedCopyRegistry()
	provider := s.provider
	concurrency := s.maxConcurrency
	logger := s.logger
	s.mu.Unlock()

	if err := s.backend.Lock(ctx); err != nil {
		return err
	}
	defer s.backend.Unlock(ctx)

	mirror, err := s.backend.Read(ctx)
	if err != nil {
		return err
	}

	var mirrorMu sync.Mutex
	writeCheckpoint := func(ctx context.Context, key string, entry *persist.Entry) error {
		mirrorMu.Lock()
		defer mirrorMu.Unlock()
		if entry == nil {
			mirror.Delete(key)
		} else {
			mirror.Set(key, *entry)
		}
		return s.backend.Write(ctx, mirror)
	}
	readEntry := func(key string) (persist.Entry, bool) {
		mirrorMu.Lock()
		defer mirrorMu.Unlock()
		return mirror.Get(key)
	}
	resolve := func(key string, v any) error {
		mirrorMu.Lock()
		defer mirrorMu.Unlock()
		return resolveReferences(key, v, mirror)
	}

	exec := func(ctx context.Context, action engine.PlannedAction) error {
		nodeCtx, cancel := engine.WithTimeout(ctx, 0)
		defer cancel()

		logger.Info("applying", "key", action.Key, "action", action.Action.String())

		switch action.Action {
		case engine.ActionCreate:
			return s.runCreate(nodeCtx, provider, registry, declared[action.Key], action.Key, resolve, writeCheckpoint)
		case engine.ActionUpdate:
			entry, _ := readEntry(action.Key)
			return s.runUpdate(nodeCtx, provider, registry, declared[action.Key], action.Key, entry, resolve, writeCheckpoint)
		case engine.ActionRecreateDestroy:
			entry, _ := readEntry(action.Key)
			return s.runDestroy(nodeCtx, provider, registry, action, entry, writeCheckpoint)
		case engine.ActionRecreateCreate:
			return s.runCreate(nodeCtx, provider, registry, declared[action.Key], action.Key, resolve, writeCheckpoint)
		case engine.ActionDestroy:
			entry, _ := readEntry(action.Key)
			return s.runDestroy(nodeCtx, provider, registry, action, entry, writeCheckpoint)
		default:
			return nil
		}
	}

	return engine.Run(ctx, sch, engine.RunOptions{MaxConcurrency: concurrency}, exec)
}

type checkpointFunc func(ctx context.Context, key string, entry *persist.Entry) error
type resolveFunc func(key string, v any) error

func (s *Store[P]) runCreate(ctx context.Context, provider P, registry map[string]*adapter[P], de declaredEntry[P], key string, resolve resolveFunc, checkpoint checkpointFunc) error {
	a := registry[de.typeTag]
	if err := resolve(key, de.value); err != nil {
		return err
	}
	if err := a.create(ctx, provider, de.value); err != nil {
		return &resource.ErrProvider{Key: key, Err: err}
	}
	return s.persistValue(ctx, key, de.typeTag, de.value, a, checkpoint)
}

func (s *Store[P]) runUpdate(ctx context.Context, provider P, registry map[string]*adapter[P], de declaredEntry[P], key string, entry persist.Entry, resolve resolveFunc, checkpoint checkpointFunc) error {
	a := registry[de.typeTag]
	storedVal, inert := persist.Decode(key, entry, a.decode)
	if inert != nil {
		return &persist.ErrSchemaMigration{Key: key, TypeTag: de.typeTag, Detail: "stored payload does not match the declared type's current schema"}
	}
	if err := resolve(key, de.value); err != nil {
		return err
	}
	if err := a.update(ctx, provider, de.value, storedVal); err != nil {
		return &resource.ErrProvider{Key: key, Err: err}
	}
	return s.persistValue(ctx, key, de.typeTag, de.value, a, checkpoint)
}


func (s *Store[P]) runDestroy(ctx context.Context, provider P, registry map[string]*adapter[P], action engine.PlannedAction, entry persist.Entry, checkpoint checkpointFunc) error {
	a := registry[action.TypeTag]
	storedVal, inert := persist.Decode(action.Key, entry, a.decode)
	if inert != nil {
		// A tombstone: the payload no longer matches any shape this
		// type's decoder recognizes, so there is no T to hand the
		// capability's Delete. Destroy is still permitted — it just
		// degrades to dropping the entry from the mirror rather than
		// calling the platform, since nothing in the running process
		// can reconstruct what to delete.
		s.logger.Warn("destroying inert entry without a platform call", "key", action.Key, "type", action.TypeTag)
		return checkpoint(ctx, action.Key, nil)
	}
	if err := a.delete(ctx, provider, storedVal); err != nil {
		return &resource.ErrProvider{Key: action.Key, Err: err}
	}
	return checkpoint(ctx, action.Key, nil)
}

func (s *Store[P]) persistValue(ctx context.Context, key, typeTag string, value any, a *adapter[P], checkpoint checkpointFunc) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &persist.ErrPersistence{Kind: "encode", Err: err}
	}
	entry := &persist.Entry{TypeTag: typeTag, Data: data, Dependencies: a.dependencies(value)}
	return checkpoint(ctx, key, entry)
}
