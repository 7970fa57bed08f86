// Package process reads the live process table and changes scheduling
// attributes of individual processes.
package process

// Priority is a POSIX nice value. Lower means more CPU time.
type Priority int

const (
	// PriorityHighest is the top of the nice range, used in turbo mode.
	PriorityHighest Priority = -20
	// PriorityHigh is used for the boosted process in balanced mode.
	PriorityHigh Priority = -10
	// PriorityNormal is the default nice value.
	PriorityNormal Priority = 0
	// PriorityIdle is the bottom of the nice range, used for throttled
	// background processes.
	PriorityIdle Priority = 19
)

// Info is one row of the process table.
type Info struct {
	PID        int32
	Name       string // lower-cased executable name
	CPUPercent float64
}

// Controller is the process facility the tuner and throttler operate on.
// Every error it returns is classified with common.Classify.
type Controller interface {
	// List enumerates live processes in pid order.
	List() ([]Info, error)

	// Name returns the display name of pid.
	Name(pid int32) (string, error)

	// Priority returns the current nice value of pid.
	Priority(pid int32) (Priority, error)

	// SetPriority sets the nice value of every thread of pid.
	SetPriority(pid int32, prio Priority) error

	// SetAffinityAll allows pid to run on every logical CPU.
	SetAffinityAll(pid int32) error

	// RaiseIOPriority moves pid to the top of the best-effort I/O class.
	RaiseIOPriority(pid int32) error

	// Available reports whether the facility works on this system.
	Available() bool
}
