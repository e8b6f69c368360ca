package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildScheduleOrdersCreatesByDependency(t *testing.T) {
	sch, err := BuildSchedule([]ClassifiedResource{
		{Key: "web", Action: ActionCreate, TypeTag: "instance", DependsOn: []string{"vpc"}},
		{Key: "vpc", Action: ActionCreate, TypeTag: "network"},
	})
	require.NoError(t, err)
	require.Len(t, sch.Actions, 2)
	assert.Equal(t, "vpc", sch.Actions[0].Key)
	assert.Equal(t, "web", sch.Actions[1].Key)
}

func TestBuildScheduleOrdersDestroysByReversedDependency(t *testing.T) {
	// web depends on vpc when both existed; to tear down, web (the
	// dependent) must be destroyed before vpc, so the store is expected
	// to hand the destroy node for vpc a DependsOn of ["web"].
	sch, err := BuildSchedule([]ClassifiedResource{
		{Key: "web", Action: ActionDestroy, TypeTag: "instance"},
		{Key: "vpc", Action: ActionDestroy, TypeTag: "network", DependsOn: []string{"web"}},
	})
	require.NoError(t, err)
	require.Len(t, sch.Actions, 2)
	assert.Equal(t, "web", sch.Actions[0].Key)
	assert.Equal(t, "vpc", sch.Actions[1].Key)
}

func TestBuildScheduleReportsMissingResource(t *testing.T) {
	_, err := BuildSchedule([]ClassifiedResource{
		{Key: "web", Action: ActionCreate, DependsOn: []string{"vpc"}},
	})
	require.Error(t, err)
	var missingErr *ErrMissingResource
	require.ErrorAs(t, err, &missingErr)
}

func TestScheduleToTextSkipsNoopsAndMarksOrphans(t *testing.T) {
	sch := &Schedule{Actions: []PlannedAction{
		{Key: "web", Action: ActionCreate, TypeTag: "instance"},
		{Key: "stale", Action: ActionNoop, TypeTag: "instance"},
		{Key: "ghost", Action: ActionWarnOrphan, TypeTag: "unknown_type", IsOrphan: true},
	}}
	text := sch.ToText()
	assert.Contains(t, text, "create 'web'")
	assert.NotContains(t, text, "stale")
	assert.Contains(t, text, "warn 'ghost' [unknown_type] (orphaned type, not destroyed automatically)")
}

func TestScheduleToDOTRendersEdges(t *testing.T) {
	sch := &Schedule{Actions: []PlannedAction{
		{Key: "vpc", Action: ActionCreate},
		{Key: "web", Action: ActionCreate, DependsOn: []string{"vpc"}},
	}}
	var buf strings.Builder
	require.NoError(t, sch.ToDOT(&buf))
	out := buf.String()
	assert.Contains(t, out, `"vpc" -> "web"`)
}
