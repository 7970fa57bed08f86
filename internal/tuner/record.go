package tuner

import (
	"sort"
	"sync"

	"github.com/fpsboost/fpsboost/pkg/integrations/process"
)

// Record maps a pid to the priority it had before it was first elevated or
// throttled. A pid appears at most once.
type Record struct {
	mu       sync.Mutex
	original map[int32]process.Priority
}

func NewRecord() *Record {
	return &Record{original: make(map[int32]process.Priority)}
}

// Capture stores prio for pid unless pid is already recorded. It reports
// whether a new entry was added.
func (r *Record) Capture(pid int32, prio process.Priority) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.original[pid]; ok {
		return false
	}
	r.original[pid] = prio
	return true
}

func (r *Record) Original(pid int32) (process.Priority, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prio, ok := r.original[pid]
	return prio, ok
}

func (r *Record) Has(pid int32) bool {
	_, ok := r.Original(pid)
	return ok
}

func (r *Record) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.original)
}

func (r *Record) Remove(pid int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.original, pid)
}

// Entry is one recorded pid.
type Entry struct {
	PID      int32
	Original process.Priority
}

// Drain empties the record and returns its entries in pid order.
func (r *Record) Drain() []Entry {
	r.mu.Lock()
	entries := make([]Entry, 0, len(r.original))
	for pid, prio := range r.original {
		entries = append(entries, Entry{PID: pid, Original: prio})
	}
	r.original = make(map[int32]process.Priority)
	r.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].PID < entries[j].PID })
	return entries
}
