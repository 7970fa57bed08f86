package booster

import (
	"fmt"

	"github.com/fpsboost/fpsboost/pkg/utils"
)

// Severity tells the shell how to present a Status.
type Severity int

const (
	SeverityIdle Severity = iota
	SeverityBoosting
	SeverityPermissionLimited
)

func (s Severity) String() string {
	switch s {
	case SeverityIdle:
		return "idle"
	case SeverityBoosting:
		return "boosting"
	case SeverityPermissionLimited:
		return "permission_limited"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Mode is the aggressiveness of a boost.
type Mode int

const (
	ModeBalanced Mode = iota
	ModeTurbo
)

func ModeOf(turbo bool) Mode {
	if turbo {
		return ModeTurbo
	}
	return ModeBalanced
}

func (m Mode) String() string {
	if m == ModeTurbo {
		return "TURBO"
	}
	return "BALANCED"
}

// Phase distinguishes the start and stop notices from per-tick statuses.
type Phase int

const (
	PhaseTick Phase = iota
	PhaseWarming
	PhaseStopped
)

// Status is the snapshot pushed to the shell. Each one replaces the
// previous one entirely.
type Status struct {
	Headline string
	Detail   string
	Severity Severity
	Phase    Phase

	// Set only for SeverityBoosting.
	PID       int32
	Process   string
	Throttled int
	Mode      Mode
}

func warmingStatus() Status {
	return Status{
		Headline: "Monitoring...",
		Detail:   "Booster engine warming up...",
		Phase:    PhaseWarming,
	}
}

func stoppedStatus() Status {
	return Status{
		Headline: "Stopped",
		Detail:   "Monitoring disabled. Priorities restored where possible.",
		Phase:    PhaseStopped,
	}
}

func idleStatus() Status {
	return Status{
		Headline: "Idle - waiting for fullscreen application",
		Detail:   "Launch your game fullscreen/borderless, then keep this running.",
	}
}

func unsupportedStatus() Status {
	return Status{
		Headline: "Idle - fullscreen detection unavailable",
		Detail:   "No X11 display or process control on this system. Nothing will be boosted.",
	}
}

func permissionStatus(name string, pid int32) Status {
	return Status{
		Headline: "Fullscreen app detected (needs admin)",
		Detail:   "Run as root or grant CAP_SYS_NICE to unlock maximum process priority control.",
		Severity: SeverityPermissionLimited,
		PID:      pid,
		Process:  name,
	}
}

func boostingStatus(name string, pid int32, throttled int, mode Mode) Status {
	return Status{
		Headline:  fmt.Sprintf("BOOSTING %s: %s", mode, name),
		Detail:    fmt.Sprintf("Fullscreen lock • PID %d • tuned %s", pid, utils.Plural(throttled, "background app")),
		Severity:  SeverityBoosting,
		PID:       pid,
		Process:   name,
		Throttled: throttled,
		Mode:      mode,
	}
}
