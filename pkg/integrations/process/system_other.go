//go:build !linux

package process

import (
	"github.com/fpsboost/fpsboost/pkg/integrations/common"
)

// System is the stand-in controller on platforms without a supported
// scheduling model. Every operation fails with PlatformUnsupported.
type System struct{}

// NewSystem returns the unsupported controller.
func NewSystem() (*System, error) {
	return &System{}, nil
}

func (s *System) Available() bool  { return false }
func (s *System) LogicalCPUs() int { return 1 }
func (s *System) List() ([]Info, error) {
	return nil, common.NewError("list processes", 0, common.KindPlatformUnsupported, nil)
}

func (s *System) Name(pid int32) (string, error) {
	return "", common.NewError("name", pid, common.KindPlatformUnsupported, nil)
}

func (s *System) Priority(pid int32) (Priority, error) {
	return PriorityNormal, common.NewError("nice", pid, common.KindPlatformUnsupported, nil)
}

func (s *System) SetPriority(pid int32, _ Priority) error {
	return common.NewError("setpriority", pid, common.KindPlatformUnsupported, nil)
}

func (s *System) SetAffinityAll(pid int32) error {
	return common.NewError("sched_setaffinity", pid, common.KindPlatformUnsupported, nil)
}

func (s *System) RaiseIOPriority(pid int32) error {
	return common.NewError("ioprio_set", pid, common.KindPlatformUnsupported, nil)
}

// CanRaisePriority is always false here.
func CanRaisePriority() bool { return false }
