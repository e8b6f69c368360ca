// Package fixture provides a minimal resource.Capability implementation
// used by the engine's own test suite, the way the teacher's providers/null
// package exists purely to exercise its provider conformance tests rather
// than to model a real platform.
package fixture

import (
	"context"
	"fmt"

	"github.com/mirrorplan/mirrorplan/cell"
	"github.com/mirrorplan/mirrorplan/depend"
	"github.com/mirrorplan/mirrorplan/resource"
)

// Provider is the opaque handle fixture.Thing expects as its P type
// argument: a trivial in-memory platform standing in for a real one.
type Provider struct {
	calls []string
}

func NewProvider() *Provider { return &Provider{} }

func (p *Provider) Calls() []string { return p.calls }

func (p *Provider) record(call string) { p.calls = append(p.calls, call) }

// Thing is a stand-in resource: its declared Tag drives drift detection
// and its ID is assigned on Create the way a real platform would hand
// back a generated identifier.
type Thing struct {
	resource.Base[*Provider]

	Name string
	Tag  depend.Cell[string]

	ID  cell.Remote[string]
	Got cell.Remote[string]
}

func (t *Thing) TypeTag() string { return "fixture.thing" }

func (t *Thing) Dependencies() []string {
	return depend.Fields(t)
}

func (t *Thing) ShouldRecreate(stored any) bool {
	prior, ok := stored.(*Thing)
	if !ok {
		return false
	}
	tag, _ := t.Tag.Value()
	priorTag, _ := prior.Tag.Value()
	return tag != priorTag
}

func (t *Thing) ShouldUpdate(stored any) bool {
	prior, ok := stored.(*Thing)
	if !ok {
		return false
	}
	return t.Name != prior.Name
}

func (t *Thing) Create(ctx context.Context, p *Provider) error {
	p.record("create:" + t.Name)
	tag, _ := t.Tag.Value()
	t.ID = cell.KnownCell(fmt.Sprintf("thing-%s", t.Name))
	t.Got = cell.KnownCell(tag)
	return nil
}

func (t *Thing) Read(ctx context.Context, p *Provider) error {
	p.record("read:" + t.Name)
	return nil
}

func (t *Thing) Update(ctx context.Context, p *Provider, stored any) error {
	p.record("update:" + t.Name)
	if prior, ok := stored.(*Thing); ok {
		t.ID = cell.Composite(t.ID, prior.ID)
	}
	tag, _ := t.Tag.Value()
	t.Got = cell.KnownCell(tag)
	return nil
}

func (t *Thing) Delete(ctx context.Context, p *Provider) error {
	p.record("delete:" + t.Name)
	return nil
}
