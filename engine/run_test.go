package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExecutesAllNodes(t *testing.T) {
	sch := &Schedule{Actions: []PlannedAction{
		{Key: "vpc", Action: ActionCreate},
		{Key: "web", Action: ActionCreate, DependsOn: []string{"vpc"}},
		{Key: "db", Action: ActionCreate, DependsOn: []string{"vpc"}},
	}}

	var mu sync.Mutex
	var executed []string
	err := Run(context.Background(), sch, RunOptions{MaxConcurrency: 4}, func(ctx context.Context, a PlannedAction) error {
		mu.Lock()
		executed = append(executed, a.Key)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"vpc", "web", "db"}, executed)
}

func TestRunRespectsDependencyOrder(t *testing.T) {
	sch := &Schedule{Actions: []PlannedAction{
		{Key: "vpc", Action: ActionCreate},
		{Key: "web", Action: ActionCreate, DependsOn: []string{"vpc"}},
	}}

	var vpcDone atomic.Bool
	err := Run(context.Background(), sch, RunOptions{MaxConcurrency: 4}, func(ctx context.Context, a PlannedAction) error {
		if a.Key == "web" {
			assert.True(t, vpcDone.Load(), "web ran before vpc completed")
		}
		time.Sleep(5 * time.Millisecond)
		if a.Key == "vpc" {
			vpcDone.Store(true)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestRunHandlesFanOutExceedingConcurrency(t *testing.T) {
	var actions []PlannedAction
	for i := 0; i < 5; i++ {
		actions = append(actions, PlannedAction{Key: fmt.Sprintf("node%d", i), Action: ActionCreate})
	}
	sch := &Schedule{Actions: actions}

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), sch, RunOptions{MaxConcurrency: 2}, func(ctx context.Context, a PlannedAction) error {
			time.Sleep(5 * time.Millisecond)
			return nil
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run deadlocked on a ready batch wider than MaxConcurrency")
	}
}

func TestRunFailsFastAndStopsStartingNewNodes(t *testing.T) {
	sch := &Schedule{Actions: []PlannedAction{
		{Key: "a", Action: ActionCreate},
		{Key: "b", Action: ActionCreate, DependsOn: []string{"a"}},
		{Key: "c", Action: ActionCreate, DependsOn: []string{"b"}},
	}}

	boom := errors.New("boom")
	var ran atomic.Int32
	err := Run(context.Background(), sch, RunOptions{MaxConcurrency: 1}, func(ctx context.Context, a PlannedAction) error {
		ran.Add(1)
		if a.Key == "a" {
			return boom
		}
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), ran.Load())
}

func TestRunSkipsNoopsAndOrphans(t *testing.T) {
	sch := &Schedule{Actions: []PlannedAction{
		{Key: "a", Action: ActionNoop},
		{Key: "b", Action: ActionWarnOrphan},
	}}
	calls := 0
	err := Run(context.Background(), sch, RunOptions{}, func(ctx context.Context, a PlannedAction) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
}
