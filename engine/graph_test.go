package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopoSortOrdersDependenciesFirst(t *testing.T) {
	g := buildGraph([]Node{
		{Key: "web", DependsOn: []string{"vpc"}},
		{Key: "vpc", DependsOn: nil},
		{Key: "db", DependsOn: []string{"vpc"}},
	})
	order, err := g.topoSort()
	require.NoError(t, err)
	require.Len(t, order, 3)
	assert.Equal(t, "vpc", order[0])
	assert.ElementsMatch(t, []string{"web", "db"}, order[1:])
}

func TestTopoSortIsDeterministic(t *testing.T) {
	nodes := []Node{
		{Key: "c"}, {Key: "a"}, {Key: "b"},
	}
	g1 := buildGraph(nodes)
	g2 := buildGraph(nodes)
	order1, err := g1.topoSort()
	require.NoError(t, err)
	order2, err := g2.topoSort()
	require.NoError(t, err)
	assert.Equal(t, order1, order2)
	assert.Equal(t, []string{"a", "b", "c"}, order1)
}

func TestTopoSortDetectsCycle(t *testing.T) {
	g := buildGraph([]Node{
		{Key: "a", DependsOn: []string{"b"}},
		{Key: "b", DependsOn: []string{"a"}},
	})
	_, err := g.topoSort()
	require.Error(t, err)
	var cycleErr *ErrCyclicPlan
	require.ErrorAs(t, err, &cycleErr)
	assert.ElementsMatch(t, []string{"a", "b"}, cycleErr.Keys)
}

func TestGraphValidateCatchesMissingResource(t *testing.T) {
	g := buildGraph([]Node{
		{Key: "web", DependsOn: []string{"vpc"}},
	})
	err := g.validate()
	require.Error(t, err)
	var missingErr *ErrMissingResource
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "web", missingErr.Key)
	assert.Equal(t, "vpc", missingErr.Missing)
}
