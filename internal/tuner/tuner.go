// Package tuner changes scheduling attributes of the foreground process and
// its background competitors, and remembers what it changed so it can be
// put back.
package tuner

import (
	"log"

	"github.com/fpsboost/fpsboost/pkg/integrations/common"
	"github.com/fpsboost/fpsboost/pkg/integrations/process"
)

// Target describes a successfully elevated process.
type Target struct {
	PID      int32
	Name     string
	Original process.Priority
	Priority process.Priority
}

// Tuner elevates processes and restores them from its Record.
type Tuner struct {
	ctrl   process.Controller
	record *Record
}

func New(ctrl process.Controller, record *Record) *Tuner {
	if record == nil {
		record = NewRecord()
	}
	return &Tuner{ctrl: ctrl, record: record}
}

func (t *Tuner) Record() *Record {
	return t.record
}

// PriorityFor returns the nice value used for the boosted process.
func PriorityFor(turbo bool) process.Priority {
	if turbo {
		return process.PriorityHighest
	}
	return process.PriorityHigh
}

// Elevate raises pid to the boost priority for the mode, raises its I/O
// priority in turbo mode and allows it on every CPU. The original priority
// is recorded only once the priority change succeeded, and only the first
// time pid is seen.
func (t *Tuner) Elevate(pid int32, turbo bool) (*Target, error) {
	if !t.ctrl.Available() {
		return nil, common.NewError("elevate", pid, common.KindPlatformUnsupported, nil)
	}

	name, err := t.ctrl.Name(pid)
	if err != nil {
		return nil, common.Classify("elevate", pid, err)
	}

	current, err := t.ctrl.Priority(pid)
	if err != nil {
		return nil, common.Classify("elevate", pid, err)
	}

	original := current
	if prev, ok := t.record.Original(pid); ok {
		original = prev
	}

	prio := PriorityFor(turbo)
	if err := t.ctrl.SetPriority(pid, prio); err != nil {
		return nil, common.Classify("elevate", pid, err)
	}
	t.record.Capture(pid, current)

	if turbo {
		if err := t.ctrl.RaiseIOPriority(pid); err != nil {
			log.Printf("I/O priority unchanged for %s (pid %d): %v", name, pid, err)
		}
	}

	if err := t.ctrl.SetAffinityAll(pid); err != nil {
		if common.IsGone(err) {
			return nil, err
		}
		log.Printf("Affinity unchanged for %s (pid %d): %v", name, pid, err)
	}

	return &Target{PID: pid, Name: name, Original: original, Priority: prio}, nil
}

// Restore puts every recorded pid back to its original priority and clears
// the record. Failures are logged and skipped. It returns the number of
// processes restored.
func (t *Tuner) Restore() int {
	restored := 0
	for _, entry := range t.record.Drain() {
		if err := t.ctrl.SetPriority(entry.PID, entry.Original); err != nil {
			if !common.IsGone(err) {
				log.Printf("Failed to restore pid %d to %d: %v", entry.PID, entry.Original, err)
			}
			continue
		}
		restored++
	}
	return restored
}

// RestorePID restores a single pid and drops it from the record. It reports
// whether the pid was recorded and put back.
func (t *Tuner) RestorePID(pid int32) bool {
	original, ok := t.record.Original(pid)
	if !ok {
		return false
	}
	t.record.Remove(pid)

	if err := t.ctrl.SetPriority(pid, original); err != nil {
		if !common.IsGone(err) {
			log.Printf("Failed to restore pid %d to %d: %v", pid, original, err)
		}
		return false
	}
	return true
}
