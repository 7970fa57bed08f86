// Package processtest provides an in-memory process.Controller for tests.
package processtest

import (
	"sort"
	"sync"
	"syscall"

	"github.com/fpsboost/fpsboost/pkg/integrations/common"
	"github.com/fpsboost/fpsboost/pkg/integrations/process"
)

type proc struct {
	name string
	nice process.Priority
	cpu  float64
}

// Fake is a process table held in memory. Pids added with Deny fail every
// mutation with PermissionDenied; pids removed with Kill fail with
// ProcessGone.
type Fake struct {
	mu        sync.Mutex
	procs     map[int32]*proc
	denied    map[int32]bool
	ioDenied  bool
	ioRaised  map[int32]bool
	affinity  map[int32]bool
	sets      map[int32][]process.Priority
	available bool
}

func NewFake() *Fake {
	return &Fake{
		procs:     make(map[int32]*proc),
		denied:    make(map[int32]bool),
		ioRaised:  make(map[int32]bool),
		affinity:  make(map[int32]bool),
		sets:      make(map[int32][]process.Priority),
		available: true,
	}
}

// Add registers a process with nice 0.
func (f *Fake) Add(pid int32, name string, cpu float64) *Fake {
	return f.AddWithPriority(pid, name, cpu, process.PriorityNormal)
}

func (f *Fake) AddWithPriority(pid int32, name string, cpu float64, nice process.Priority) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.procs[pid] = &proc{name: name, nice: nice, cpu: cpu}
	return f
}

func (f *Fake) Deny(pid int32) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.denied[pid] = true
	return f
}

// DenyIO makes every RaiseIOPriority call fail.
func (f *Fake) DenyIO() *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ioDenied = true
	return f
}

func (f *Fake) Kill(pid int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.procs, pid)
}

func (f *Fake) SetAvailable(available bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available = available
}

// Nice returns the current nice value of pid.
func (f *Fake) Nice(pid int32) process.Priority {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.procs[pid]; ok {
		return p.nice
	}
	return process.PriorityNormal
}

// Sets returns every priority SetPriority applied to pid, in order.
func (f *Fake) Sets(pid int32) []process.Priority {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]process.Priority(nil), f.sets[pid]...)
}

// Touched returns the pids SetPriority succeeded on, sorted.
func (f *Fake) Touched() []int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	pids := make([]int32, 0, len(f.sets))
	for pid := range f.sets {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	return pids
}

func (f *Fake) IORaised(pid int32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ioRaised[pid]
}

func (f *Fake) AffinitySet(pid int32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.affinity[pid]
}

func (f *Fake) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

func (f *Fake) List() ([]process.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	infos := make([]process.Info, 0, len(f.procs))
	for pid, p := range f.procs {
		infos = append(infos, process.Info{PID: pid, Name: p.name, CPUPercent: p.cpu})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].PID < infos[j].PID })
	return infos, nil
}

func (f *Fake) Name(pid int32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.procs[pid]
	if !ok {
		return "", common.Classify("name", pid, syscall.ESRCH)
	}
	return p.name, nil
}

func (f *Fake) Priority(pid int32) (process.Priority, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.procs[pid]
	if !ok {
		return 0, common.Classify("getpriority", pid, syscall.ESRCH)
	}
	return p.nice, nil
}

func (f *Fake) SetPriority(pid int32, prio process.Priority) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.mutable("setpriority", pid)
	if err != nil {
		return err
	}
	p.nice = prio
	f.sets[pid] = append(f.sets[pid], prio)
	return nil
}

func (f *Fake) SetAffinityAll(pid int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.mutable("sched_setaffinity", pid); err != nil {
		return err
	}
	f.affinity[pid] = true
	return nil
}

func (f *Fake) RaiseIOPriority(pid int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.mutable("ioprio_set", pid); err != nil {
		return err
	}
	if f.ioDenied {
		return common.Classify("ioprio_set", pid, syscall.EPERM)
	}
	f.ioRaised[pid] = true
	return nil
}

func (f *Fake) mutable(op string, pid int32) (*proc, error) {
	if !f.available {
		return nil, common.NewError(op, pid, common.KindPlatformUnsupported, nil)
	}
	p, ok := f.procs[pid]
	if !ok {
		return nil, common.Classify(op, pid, syscall.ESRCH)
	}
	if f.denied[pid] {
		return nil, common.Classify(op, pid, syscall.EPERM)
	}
	return p, nil
}

var _ process.Controller = (*Fake)(nil)
