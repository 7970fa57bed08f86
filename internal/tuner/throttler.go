package tuner

import (
	"log"
	"sort"

	"github.com/fpsboost/fpsboost/pkg/integrations/common"
	"github.com/fpsboost/fpsboost/pkg/integrations/process"
)

// DefaultBalancedLimit caps how many background processes are throttled
// outside turbo mode.
const DefaultBalancedLimit = 5

// Throttler lowers background competitors of the boosted process to idle
// priority.
type Throttler struct {
	ctrl    process.Controller
	targets *Targets
	record  *Record
	limit   int
}

// NewThrottler shares record with the Tuner so a single Restore reverts
// both. A limit below 1 uses DefaultBalancedLimit.
func NewThrottler(ctrl process.Controller, targets *Targets, record *Record, limit int) *Throttler {
	if limit < 1 {
		limit = DefaultBalancedLimit
	}
	if record == nil {
		record = NewRecord()
	}
	return &Throttler{ctrl: ctrl, targets: targets, record: record, limit: limit}
}

// Candidates returns the throttle selection for activePID without changing
// anything: every eligible process in turbo mode, the top limit by CPU
// usage otherwise.
func (th *Throttler) Candidates(activePID int32, turbo bool) ([]process.Info, error) {
	procs, err := th.ctrl.List()
	if err != nil {
		return nil, common.Classify("list", 0, err)
	}

	var candidates []process.Info
	for _, p := range procs {
		if p.PID == activePID {
			continue
		}
		if th.targets.Eligible(p.Name) {
			candidates = append(candidates, p)
		}
	}

	if turbo || len(candidates) <= th.limit {
		return candidates, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CPUPercent > candidates[j].CPUPercent
	})
	return candidates[:th.limit], nil
}

// Throttle sets the selected background processes to idle priority and
// returns how many were changed. Per-process failures are skipped.
func (th *Throttler) Throttle(activePID int32, turbo bool) int {
	selected, err := th.Candidates(activePID, turbo)
	if err != nil {
		log.Printf("Failed to enumerate processes: %v", err)
		return 0
	}

	throttled := 0
	for _, p := range selected {
		if err := th.lower(p); err != nil {
			if !common.IsGone(err) {
				log.Printf("Skipping %s (pid %d): %v", p.Name, p.PID, err)
			}
			continue
		}
		throttled++
	}
	return throttled
}

func (th *Throttler) lower(p process.Info) error {
	current, err := th.ctrl.Priority(p.PID)
	if err != nil {
		return err
	}
	if err := th.ctrl.SetPriority(p.PID, process.PriorityIdle); err != nil {
		return err
	}
	th.record.Capture(p.PID, current)
	return nil
}
