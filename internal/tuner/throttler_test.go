package tuner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpsboost/fpsboost/pkg/integrations/process"
	"github.com/fpsboost/fpsboost/pkg/integrations/process/processtest"
)

func newTestThrottler(fake *processtest.Fake, record *Record) *Throttler {
	targets := NewTargets([]string{"chrome", "discord", "systemd"}, []string{"systemd", "xorg"})
	return NewThrottler(fake, targets, record, DefaultBalancedLimit)
}

func TestThrottleBalancedCap(t *testing.T) {
	fake := processtest.NewFake()
	for i := int32(1); i <= 8; i++ {
		fake.Add(100+i, "chrome", float64(i*10))
	}
	th := newTestThrottler(fake, nil)

	assert.Equal(t, 5, th.Throttle(1, false))
	assert.Equal(t, []int32{104, 105, 106, 107, 108}, fake.Touched(), "the five highest CPU users")
	for _, pid := range fake.Touched() {
		assert.Equal(t, process.PriorityIdle, fake.Nice(pid))
	}
}

func TestThrottleTurboTakesAll(t *testing.T) {
	fake := processtest.NewFake()
	for i := int32(1); i <= 8; i++ {
		fake.Add(100+i, "chrome", float64(i*10))
	}
	th := newTestThrottler(fake, nil)

	assert.Equal(t, 8, th.Throttle(1, true))
	assert.Len(t, fake.Touched(), 8)
}

func TestThrottleStableTieBreak(t *testing.T) {
	fake := processtest.NewFake()
	for i := int32(1); i <= 7; i++ {
		fake.Add(100+i, "discord", 1)
	}
	th := newTestThrottler(fake, nil)

	selected, err := th.Candidates(1, false)
	require.NoError(t, err)

	pids := make([]int32, 0, len(selected))
	for _, p := range selected {
		pids = append(pids, p.PID)
	}
	assert.Equal(t, []int32{101, 102, 103, 104, 105}, pids, "ties keep enumeration order")
}

func TestThrottleProtectionWins(t *testing.T) {
	fake := processtest.NewFake().
		Add(1, "systemd", 90).
		Add(2, "xorg", 80).
		Add(3, "chrome", 10)
	th := newTestThrottler(fake, nil)

	assert.Equal(t, 1, th.Throttle(999, true))
	assert.Empty(t, fake.Sets(1), "protected systemd must never be touched")
	assert.Empty(t, fake.Sets(2))
	assert.Equal(t, process.PriorityIdle, fake.Nice(3))
}

func TestThrottleExcludesActivePID(t *testing.T) {
	fake := processtest.NewFake().Add(10, "chrome", 99).Add(11, "chrome", 1)
	th := newTestThrottler(fake, nil)

	assert.Equal(t, 1, th.Throttle(10, true))
	assert.Empty(t, fake.Sets(10))
	assert.Equal(t, process.PriorityIdle, fake.Nice(11))
}

// Ten matching processes, one of them active: balanced mode picks the five
// busiest of the other nine.
func TestThrottleSkipsActiveAmongMany(t *testing.T) {
	fake := processtest.NewFake()
	for i := int32(0); i < 10; i++ {
		fake.Add(200+i, "chrome", float64(100-i))
	}
	th := newTestThrottler(fake, nil)

	assert.Equal(t, 5, th.Throttle(200, false))
	assert.Equal(t, []int32{201, 202, 203, 204, 205}, fake.Touched())
}

func TestThrottleSkipsFailures(t *testing.T) {
	fake := processtest.NewFake().
		Add(1, "chrome", 30).
		Add(2, "chrome", 20).
		Add(3, "discord", 10).
		Deny(1)
	th := newTestThrottler(fake, nil)

	assert.Equal(t, 2, th.Throttle(0, true))
	assert.Empty(t, fake.Sets(1))
	assert.Equal(t, process.PriorityIdle, fake.Nice(2))
	assert.Equal(t, process.PriorityIdle, fake.Nice(3))
}

func TestThrottleRecordsOriginals(t *testing.T) {
	fake := processtest.NewFake().AddWithPriority(1, "chrome", 30, 4).Add(50, "game", 90)
	record := NewRecord()
	th := newTestThrottler(fake, record)
	tu := New(fake, record)

	_, err := tu.Elevate(50, false)
	require.NoError(t, err)
	assert.Equal(t, 1, th.Throttle(50, false))
	assert.Equal(t, 2, record.Len())

	assert.Equal(t, 2, tu.Restore())
	assert.Equal(t, process.Priority(4), fake.Nice(1))
	assert.Equal(t, process.PriorityNormal, fake.Nice(50))
}

func TestThrottleDefaultLimit(t *testing.T) {
	th := NewThrottler(processtest.NewFake(), NewTargets(nil, nil), nil, 0)
	assert.Equal(t, DefaultBalancedLimit, th.limit)
}

func TestThrottleCustomLimit(t *testing.T) {
	fake := processtest.NewFake()
	for i := int32(1); i <= 6; i++ {
		fake.Add(i, "Chrome", float64(i))
	}
	th := NewThrottler(fake, NewTargets([]string{"chrome"}, nil), nil, 2)

	assert.Equal(t, 2, th.Throttle(0, false))
	assert.Equal(t, []int32{5, 6}, fake.Touched())
}
