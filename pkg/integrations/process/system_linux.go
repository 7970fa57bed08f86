//go:build linux

package process

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/syndtr/gocapability/capability"
	"golang.org/x/sys/unix"

	"github.com/fpsboost/fpsboost/pkg/integrations/common"
)

const (
	handleCacheSize = 4096

	ioprioWhoProcess = 1
	ioprioClassBE    = 2
	ioprioClassShift = 13
	ioprioLevelTop   = 0
)

// System implements Controller on top of /proc and the Linux scheduler
// syscalls.
type System struct {
	mu      sync.Mutex
	handles *lru.Cache[int32, *tracked]
	cpus    int
}

// tracked keeps a gopsutil handle alive between enumerations so that
// Percent(0) measures CPU use since the previous tick.
type tracked struct {
	proc    *process.Process
	created int64
}

// NewSystem creates the Linux process controller.
func NewSystem() (*System, error) {
	cache, err := lru.New[int32, *tracked](handleCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create process handle cache: %w", err)
	}

	cpus, err := cpu.Counts(true)
	if err != nil || cpus < 1 {
		cpus = 1
	}

	return &System{handles: cache, cpus: cpus}, nil
}

// Available reports whether /proc is mounted.
func (s *System) Available() bool {
	_, err := os.Stat("/proc/self/stat")
	return err == nil
}

// LogicalCPUs returns the number of CPUs used for affinity masks.
func (s *System) LogicalCPUs() int {
	return s.cpus
}

// List enumerates all live processes with their lower-cased names and
// recent CPU usage, ordered by pid.
func (s *System) List() ([]Info, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, common.Classify("list processes", 0, err)
	}

	sort.Slice(procs, func(i, j int) bool { return procs[i].Pid < procs[j].Pid })

	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]Info, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			PID:        p.Pid,
			Name:       strings.ToLower(name),
			CPUPercent: s.cpuPercent(p),
		})
	}

	return infos, nil
}

// cpuPercent returns usage since the last enumeration of the same process,
// or the lifetime average the first time a process is seen.
func (s *System) cpuPercent(p *process.Process) float64 {
	created, err := p.CreateTime()
	if err != nil {
		return 0
	}

	if t, ok := s.handles.Get(p.Pid); ok && t.created == created {
		pct, err := t.proc.Percent(0)
		if err != nil {
			return 0
		}
		return pct
	}

	s.handles.Add(p.Pid, &tracked{proc: p, created: created})
	_, _ = p.Percent(0)

	pct, err := p.CPUPercent()
	if err != nil {
		return 0
	}
	return pct
}

func (s *System) open(op string, pid int32) (*process.Process, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		if err == process.ErrorProcessNotRunning {
			return nil, common.NewError(op, pid, common.KindProcessGone, err)
		}
		return nil, common.Classify(op, pid, err)
	}
	return p, nil
}

// Name returns the executable name of pid.
func (s *System) Name(pid int32) (string, error) {
	p, err := s.open("name", pid)
	if err != nil {
		return "", err
	}
	name, err := p.Name()
	if err != nil {
		return "", common.Classify("name", pid, err)
	}
	return name, nil
}

// Priority returns the nice value of pid. The raw getpriority syscall
// reports 20-nice so that it never returns a negative value.
func (s *System) Priority(pid int32) (Priority, error) {
	ret, err := unix.Getpriority(unix.PRIO_PROCESS, int(pid))
	if err != nil {
		return PriorityNormal, common.Classify("getpriority", pid, err)
	}
	return Priority(niceFromKernel(ret)), nil
}

func niceFromKernel(v int) int {
	return 20 - v
}

// SetPriority applies prio to every thread of pid. Linux scopes
// setpriority(PRIO_PROCESS) to a single task, so each tid is set in turn.
// Only a failure on the main thread is reported.
func (s *System) SetPriority(pid int32, prio Priority) error {
	return s.eachTask("setpriority", pid, func(tid int) error {
		return unix.Setpriority(unix.PRIO_PROCESS, tid, int(prio))
	})
}

// SetAffinityAll allows every thread of pid on all logical CPUs.
func (s *System) SetAffinityAll(pid int32) error {
	var set unix.CPUSet
	set.Zero()
	for i := 0; i < s.cpus; i++ {
		set.Set(i)
	}

	return s.eachTask("sched_setaffinity", pid, func(tid int) error {
		return unix.SchedSetaffinity(tid, &set)
	})
}

// RaiseIOPriority moves every thread of pid to best-effort level 0.
func (s *System) RaiseIOPriority(pid int32) error {
	value := uintptr(ioprioClassBE<<ioprioClassShift | ioprioLevelTop)

	return s.eachTask("ioprio_set", pid, func(tid int) error {
		_, _, errno := unix.Syscall(unix.SYS_IOPRIO_SET, ioprioWhoProcess, uintptr(tid), value)
		if errno != 0 {
			return errno
		}
		return nil
	})
}

func (s *System) eachTask(op string, pid int32, fn func(tid int) error) error {
	tids, err := tasks(pid)
	if err != nil {
		return common.Classify(op, pid, err)
	}

	for _, tid := range tids {
		if err := fn(tid); err != nil && tid == int(pid) {
			return common.Classify(op, pid, err)
		}
	}
	return nil
}

// tasks lists the thread ids of pid with the main thread first.
func tasks(pid int32) ([]int, error) {
	entries, err := os.ReadDir(fmt.Sprintf("/proc/%d/task", pid))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return []int{int(pid)}, nil
	}

	tids := []int{int(pid)}
	for _, entry := range entries {
		tid, err := strconv.Atoi(entry.Name())
		if err != nil || tid == int(pid) {
			continue
		}
		tids = append(tids, tid)
	}
	return tids, nil
}

// CanRaisePriority reports whether this process may lower nice values of
// other processes: root, or CAP_SYS_NICE in the effective set.
func CanRaisePriority() bool {
	if os.Geteuid() == 0 {
		return true
	}

	caps, err := capability.NewPid2(0)
	if err != nil {
		return false
	}
	if err := caps.Load(); err != nil {
		return false
	}
	return caps.Get(capability.EFFECTIVE, capability.CAP_SYS_NICE)
}
