//go:build linux

package process

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpsboost/fpsboost/pkg/integrations/common"
)

const missingPID = int32(1 << 30)

func newTestSystem(t *testing.T) *System {
	t.Helper()
	sys, err := NewSystem()
	require.NoError(t, err)
	if !sys.Available() {
		t.Skip("/proc not available")
	}
	return sys
}

func TestSystemImplementsController(t *testing.T) {
	var _ Controller = (*System)(nil)
}

func TestListIncludesSelf(t *testing.T) {
	sys := newTestSystem(t)
	self := int32(os.Getpid())

	infos, err := sys.List()
	require.NoError(t, err)
	require.NotEmpty(t, infos)

	found := false
	for i, info := range infos {
		if i > 0 {
			assert.Less(t, infos[i-1].PID, info.PID, "list must be ordered by pid")
		}
		if info.PID == self {
			found = true
			assert.NotEmpty(t, info.Name)
			assert.GreaterOrEqual(t, info.CPUPercent, 0.0)
		}
	}
	assert.True(t, found, "own pid missing from process list")

	// second pass goes through the cached handles
	_, err = sys.List()
	require.NoError(t, err)
}

func TestNameAndPriorityOfSelf(t *testing.T) {
	sys := newTestSystem(t)
	self := int32(os.Getpid())

	name, err := sys.Name(self)
	require.NoError(t, err)
	assert.NotEmpty(t, name)

	prio, err := sys.Priority(self)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, int(prio), int(PriorityHighest))
	assert.LessOrEqual(t, int(prio), int(PriorityIdle))

	// re-applying the current value never needs privileges
	require.NoError(t, sys.SetPriority(self, prio))
}

func TestNiceFromKernel(t *testing.T) {
	tests := []struct {
		raw  int
		nice int
	}{
		{20, 0},
		{40, -20},
		{30, -10},
		{15, 5},
		{1, 19},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.nice, niceFromKernel(tt.raw), "raw %d", tt.raw)
	}
}

func TestMissingProcessIsGone(t *testing.T) {
	sys := newTestSystem(t)

	_, err := sys.Name(missingPID)
	assert.Equal(t, common.KindProcessGone, common.KindOf(err))

	_, err = sys.Priority(missingPID)
	assert.Equal(t, common.KindProcessGone, common.KindOf(err))

	err = sys.SetPriority(missingPID, PriorityIdle)
	assert.Equal(t, common.KindProcessGone, common.KindOf(err))

	err = sys.SetAffinityAll(missingPID)
	assert.Equal(t, common.KindProcessGone, common.KindOf(err))
}

func TestTasksMainThreadFirst(t *testing.T) {
	self := int32(os.Getpid())

	tids, err := tasks(self)
	require.NoError(t, err)
	require.NotEmpty(t, tids)
	assert.Equal(t, int(self), tids[0])

	seen := map[int]bool{}
	for _, tid := range tids {
		assert.False(t, seen[tid], "duplicate tid %d", tid)
		seen[tid] = true
	}
}

func TestLogicalCPUs(t *testing.T) {
	sys := newTestSystem(t)
	assert.GreaterOrEqual(t, sys.LogicalCPUs(), 1)
}
