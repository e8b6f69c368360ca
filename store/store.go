// Package store implements the reconciliation engine's store: the
// declared set, the type-tag adapter registry, and the Plan/Apply
// operations that drive the planner and applier in the engine package
// against a caller-supplied resource.Capability[P] implementation.
//
// Store methods cannot introduce new type parameters beyond the
// receiver's, so the per-type operations (Declare, Register,
// PendingDestroy) are free generic functions over *Store[P] rather than
// generic methods — the idiomatic Go shape for an API that would be a
// generic method on a trait object in a language that allows one.
package store

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/mirrorplan/mirrorplan/internal/logging"
	"github.com/mirrorplan/mirrorplan/persist"
	"github.com/mirrorplan/mirrorplan/resource"
)

type declaredEntry[P any] struct {
	typeTag string
	value   any
}

// Store holds one reconciliation engine instance: the caller-declared
// resources for this run, the type adapters installed so far, and the
// backend its mirror persists to. P is the opaque provider handle every
// registered resource type's Create/Read/Update/Delete receives.
type Store[P any] struct {
	mu sync.Mutex

	provider       P
	backend        persist.Backend
	logger         *slog.Logger
	maxConcurrency int

	declared       map[string]declaredEntry[P]
	registry       map[string]*adapter[P]
	pendingDestroy map[string]bool
}

// Option configures a Store constructed with New.
type Option[P any] func(*Store[P])

// WithBackend overrides the default local-file backend. Use this to
// point the store at persist.NewS3Backend or any other persist.Backend.
func WithBackend[P any](b persist.Backend) Option[P] {
	return func(s *Store[P]) { s.backend = b }
}

// WithLogger attaches a structured logger; without one the store logs
// nothing, since a library has no business installing a global logger.
func WithLogger[P any](l *slog.Logger) Option[P] {
	return func(s *Store[P]) { s.logger = logging.WithComponent(l, "store") }
}

// WithMaxConcurrency bounds how many nodes Apply runs at once. The
// default is 4; a value <= 1 makes Apply strictly sequential.
func WithMaxConcurrency[P any](n int) Option[P] {
	return func(s *Store[P]) { s.maxConcurrency = n }
}

// New constructs a Store backed by a local mirror file at
// rootDir/store.json, unless overridden with WithBackend.
func New[P any](provider P, rootDir string, opts ...Option[P]) *Store[P] {
	s := &Store[P]{
		provider:       provider,
		declared:       make(map[string]declaredEntry[P]),
		registry:       make(map[string]*adapter[P]),
		pendingDestroy: make(map[string]bool),
		logger:         logging.Nop(),
		maxConcurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.backend == nil {
		s.backend = persist.NewManager(filepath.Join(rootDir, "store.json"))
	}
	return s
}

func (s *Store[P]) installAdapter(tag string, a *adapter[P]) {
	if _, exists := s.registry[tag]; exists {
		return
	}
	s.registry[tag] = a
}

// Declare adds a resource to the declared set under key, installing a
// type adapter for T the first time this store sees that type. It
// returns ErrDuplicateKey if key was already declared in this store.
func Declare[P any, T resource.Capability[P]](s *Store[P], key string, value T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.declared[key]; exists {
		return &ErrDuplicateKey{Key: key}
	}

	tag := value.TypeTag()
	s.installAdapter(tag, newAdapter[P, T](tag))
	s.declared[key] = declaredEntry[P]{typeTag: tag, value: value}
	return nil
}

// Register installs T's type adapter without declaring any instance of
// it, so stored entries of that type remain eligible for Destroy (and
// not an orphan warning) even in a run that declares none of them.
func Register[P any, T resource.Capability[P]](s *Store[P]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tag := zeroTypeTag[P, T]()
	s.installAdapter(tag, newAdapter[P, T](tag))
}

// PendingDestroy marks key for destruction using T's capability
// when key is not declared. It behaves like Register (installing T's
// adapter so the stored entry decodes and destroys cleanly) plus
// recording key in the store's pending-destroy set. The resulting
// schedule node is an ordinary ActionDestroy, the same as for a dropped
// declaration of a registered type; a key that is still declared is
// planned from its declaration instead.
func PendingDestroy[P any, T resource.Capability[P]](s *Store[P], key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tag := zeroTypeTag[P, T]()
	s.installAdapter(tag, newAdapter[P, T](tag))
	s.pendingDestroy[key] = true
}

func (s *Store[P]) lockedCopyDeclared() map[string]declaredEntry[P] {
	out := make(map[string]declaredEntry[P], len(s.declared))
	for k, v := range s.declared {
		out[k] = v
	}
	return out
}

func (s *Store[P]) lockedCopyRegistry() map[string]*adapter[P] {
	out := make(map[string]*adapter[P], len(s.registry))
	for k, v := range s.registry {
		out[k] = v
	}
	return out
}
