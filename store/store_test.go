package store

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorplan/mirrorplan/depend"
	"github.com/mirrorplan/mirrorplan/engine"
	"github.com/mirrorplan/mirrorplan/fixture"
)

func newTestStore(t *testing.T) (*Store[*fixture.Provider], *fixture.Provider) {
	t.Helper()
	p := fixture.NewProvider()
	s := New[*fixture.Provider](p, t.TempDir())
	return s, p
}

func TestPlanOnEmptyStoreIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	sch, err := s.Plan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sch.Actions)
	assert.Empty(t, sch.Warnings)
}

func TestDeclareThenApplyCreatesResource(t *testing.T) {
	s, p := newTestStore(t)

	require.NoError(t, Declare[*fixture.Provider](s, "web", &fixture.Thing{
		Name: "web", Tag: depend.Literal("v1"),
	}))

	sch, err := s.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, sch.Actions, 1)
	assert.Equal(t, engine.ActionCreate, sch.Actions[0].Action)
	assert.Equal(t, "web", sch.Actions[0].Key)

	require.NoError(t, s.Apply(context.Background(), sch))
	assert.Equal(t, []string{"create:web"}, p.Calls())
}

func TestDeclareSameKeyTwiceIsRejected(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, Declare[*fixture.Provider](s, "web", &fixture.Thing{Name: "web", Tag: depend.Literal("v1")}))
	err := Declare[*fixture.Provider](s, "web", &fixture.Thing{Name: "web2", Tag: depend.Literal("v1")})

	require.Error(t, err)
	var dup *ErrDuplicateKey
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "web", dup.Key)
}

// A second Plan/Apply cycle over the same declared value and the mirror
// it just produced sees no drift: no Update, no Create, nothing for the
// provider to do.
func TestReapplyingUnchangedDeclarationIsNoop(t *testing.T) {
	s, p := newTestStore(t)
	thing := &fixture.Thing{Name: "web", Tag: depend.Literal("v1")}
	require.NoError(t, Declare[*fixture.Provider](s, "web", thing))

	sch, err := s.Plan(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Apply(context.Background(), sch))
	require.Len(t, p.Calls(), 1)

	s2 := New[*fixture.Provider](p, "")
	s2.backend = s.backend
	require.NoError(t, Declare[*fixture.Provider](s2, "web", &fixture.Thing{Name: "web", Tag: depend.Literal("v1")}))

	sch2, err := s2.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, sch2.Actions, 1)
	assert.Equal(t, engine.ActionNoop, sch2.Actions[0].Action)

	require.NoError(t, s2.Apply(context.Background(), sch2))
	assert.Len(t, p.Calls(), 1, "a noop action must never reach the provider")
}

// A declared change to a field ShouldUpdate cares about (Name) produces
// an Update action and an update: provider call, carrying the prior
// stored value through so Update can copy forward fields like ID.
func TestChangedFieldProducesUpdate(t *testing.T) {
	s, p := newTestStore(t)
	require.NoError(t, Declare[*fixture.Provider](s, "web", &fixture.Thing{Name: "web", Tag: depend.Literal("v1")}))
	sch, err := s.Plan(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Apply(context.Background(), sch))

	s2 := New[*fixture.Provider](p, "")
	s2.backend = s.backend
	require.NoError(t, Declare[*fixture.Provider](s2, "web", &fixture.Thing{Name: "web-renamed", Tag: depend.Literal("v1")}))

	sch2, err := s2.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, sch2.Actions, 1)
	assert.Equal(t, engine.ActionUpdate, sch2.Actions[0].Action)

	require.NoError(t, s2.Apply(context.Background(), sch2))
	assert.Equal(t, []string{"create:web", "update:web-renamed"}, p.Calls())
}

// A declared change to a field ShouldRecreate cares about (Tag)
// produces a Recreate classification, which the schedule splits into a
// destroy node followed by a create node for the same key.
func TestChangedTagProducesRecreateSplitIntoTwoNodes(t *testing.T) {
	s, p := newTestStore(t)
	require.NoError(t, Declare[*fixture.Provider](s, "web", &fixture.Thing{Name: "web", Tag: depend.Literal("v1")}))
	sch, err := s.Plan(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Apply(context.Background(), sch))

	s2 := New[*fixture.Provider](p, "")
	s2.backend = s.backend
	require.NoError(t, Declare[*fixture.Provider](s2, "web", &fixture.Thing{Name: "web", Tag: depend.Literal("v2")}))

	sch2, err := s2.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, sch2.Actions, 2)
	assert.Equal(t, engine.ActionRecreateDestroy, sch2.Actions[0].Action)
	assert.Equal(t, engine.ActionRecreateCreate, sch2.Actions[1].Action)
	assert.Equal(t, "web", sch2.Actions[0].Key)
	assert.Equal(t, "web", sch2.Actions[1].Key)
	assert.NotEqual(t, sch2.Actions[0].ID, sch2.Actions[1].ID)

	require.NoError(t, s2.Apply(context.Background(), sch2))
	assert.Equal(t, []string{"create:web", "delete:web", "create:web"}, p.Calls())
}

// A resource depending on another resource's not-yet-known output must
// be created after that resource, and the resolved value it sees is the
// scalar the dependency's selector names, not the Remote wire envelope.
func TestDependencyCreationOrderResolvesRemoteReference(t *testing.T) {
	s, p := newTestStore(t)
	require.NoError(t, Declare[*fixture.Provider](s, "base", &fixture.Thing{
		Name: "base", Tag: depend.Literal("v1"),
	}))
	require.NoError(t, Declare[*fixture.Provider](s, "dependent", &fixture.Thing{
		Name: "dependent", Tag: depend.Reference[string]("base", "ID"),
	}))

	sch, err := s.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, sch.Actions, 2)
	assert.Equal(t, "base", sch.Actions[0].Key)
	assert.Equal(t, "dependent", sch.Actions[1].Key)

	require.NoError(t, s.Apply(context.Background(), sch))
	assert.Equal(t, []string{"create:base", "create:dependent"}, p.Calls())

	mirror, err := s.backend.Read(context.Background())
	require.NoError(t, err)
	entry, ok := mirror.Get("dependent")
	require.True(t, ok)
	// The mirror file is written indented, so compact the payload before
	// matching the field's wire form.
	var compact bytes.Buffer
	require.NoError(t, json.Compact(&compact, entry.Data))
	assert.Contains(t, compact.String(), `"Got":{"known":true,"value":"thing-base"}`)
}

// A stored resource whose key was dropped from the declared set, and
// whose type is still registered (because the caller declared a
// sibling of the same type), is destroyed rather than merely warned
// about.
func TestDroppedDeclarationWithRegisteredTypeIsDestroyed(t *testing.T) {
	s, p := newTestStore(t)
	require.NoError(t, Declare[*fixture.Provider](s, "old", &fixture.Thing{Name: "old", Tag: depend.Literal("v1")}))
	sch, err := s.Plan(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Apply(context.Background(), sch))

	s2 := New[*fixture.Provider](p, "")
	s2.backend = s.backend
	require.NoError(t, Declare[*fixture.Provider](s2, "new", &fixture.Thing{Name: "new", Tag: depend.Literal("v1")}))

	sch2, err := s2.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, sch2.Actions, 2)

	var sawCreate, sawDestroy bool
	for _, a := range sch2.Actions {
		switch a.Key {
		case "new":
			sawCreate = a.Action == engine.ActionCreate
		case "old":
			sawDestroy = a.Action == engine.ActionDestroy
		}
	}
	assert.True(t, sawCreate)
	assert.True(t, sawDestroy)

	require.NoError(t, s2.Apply(context.Background(), sch2))
	assert.ElementsMatch(t, []string{"create:old", "create:new", "delete:old"}, p.Calls())
}

// A stored resource whose type was never registered or declared in this
// run is surfaced as an orphan warning, never touched.
func TestOrphanedTypeIsWarnedNotDestroyed(t *testing.T) {
	s, p := newTestStore(t)
	require.NoError(t, Declare[*fixture.Provider](s, "web", &fixture.Thing{Name: "web", Tag: depend.Literal("v1")}))
	sch, err := s.Plan(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Apply(context.Background(), sch))

	s2 := New[*fixture.Provider](p, "")
	s2.backend = s.backend

	sch2, err := s2.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, sch2.Actions, 1)
	assert.Equal(t, engine.ActionWarnOrphan, sch2.Actions[0].Action)
	assert.True(t, sch2.Actions[0].IsOrphan)

	require.NoError(t, s2.Apply(context.Background(), sch2))
	assert.Len(t, p.Calls(), 1, "an orphan warning must never reach the provider")
}

// PendingDestroy marks an undeclared key for destruction even without a
// matching Declare in this run, distinguishing it from an orphan.
func TestPendingDestroyDestroysUndeclaredKey(t *testing.T) {
	s, p := newTestStore(t)
	require.NoError(t, Declare[*fixture.Provider](s, "web", &fixture.Thing{Name: "web", Tag: depend.Literal("v1")}))
	sch, err := s.Plan(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Apply(context.Background(), sch))

	s2 := New[*fixture.Provider](p, "")
	s2.backend = s.backend
	PendingDestroy[*fixture.Provider, *fixture.Thing](s2, "web")

	sch2, err := s2.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, sch2.Actions, 1)
	assert.Equal(t, engine.ActionDestroy, sch2.Actions[0].Action)
	assert.False(t, sch2.Actions[0].IsOrphan)

	require.NoError(t, s2.Apply(context.Background(), sch2))
	assert.Equal(t, []string{"create:web", "delete:web"}, p.Calls())

	mirror, err := s2.backend.Read(context.Background())
	require.NoError(t, err)
	_, ok := mirror.Get("web")
	assert.False(t, ok)
}
