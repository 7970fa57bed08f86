// Package booster runs the monitoring loop: it classifies the foreground
// window on every tick, boosts fullscreen processes, throttles their
// background competitors and restores everything when monitoring stops.
package booster

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/fpsboost/fpsboost/internal/config"
	"github.com/fpsboost/fpsboost/internal/models"
	"github.com/fpsboost/fpsboost/internal/tuner"
	"github.com/fpsboost/fpsboost/pkg/integrations/common"
	"github.com/fpsboost/fpsboost/pkg/integrations/process"
	"github.com/fpsboost/fpsboost/pkg/window"
)

// Journal persists boost sessions and classified failures.
// *database.Repository implements it.
type Journal interface {
	CreateSession(session *models.BoostSession) error
	EndSession(id uint, endedAt time.Time, duration int64) error
	UpdateThrottled(id uint, throttled int) error
	CreateErrorLog(errorLog *models.ErrorLog) error
}

// StatusHandler receives every status, from the loop goroutine or from
// inside Start and Stop. It must not call Start, Stop or Running
// synchronously.
type StatusHandler func(Status)

// Engine owns the monitoring loop and every priority change it makes.
type Engine struct {
	interval        time.Duration
	restoreOnSwitch bool
	allow           map[string]struct{}

	probe      window.Probe
	classifier *window.Classifier
	ctrl       process.Controller
	tuner      *tuner.Tuner
	throttler  *tuner.Throttler
	tweaker    *tuner.Tweaker
	journal    Journal

	turbo       atomic.Bool
	lastBoosted atomic.Int32
	sessionID   atomic.Value // string

	// mu serializes Start and Stop.
	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	statusMu sync.RWMutex
	onStatus StatusHandler
	last     Status

	// owned by the loop goroutine
	session *models.BoostSession
	lastErr string
}

// NewEngine wires the engine from cfg. journal may be nil.
func NewEngine(cfg *config.Config, probe window.Probe, ctrl process.Controller, journal Journal) *Engine {
	record := tuner.NewRecord()
	targets := tuner.NewTargets(cfg.Targets.Background, cfg.Targets.Protected)

	e := &Engine{
		interval:        cfg.Booster.PollInterval,
		restoreOnSwitch: cfg.Booster.RestoreOnSwitch,
		allow:           make(map[string]struct{}, len(cfg.Booster.AllowList)),
		probe:           probe,
		classifier:      window.NewClassifier(probe, cfg.Booster.Tolerance, cfg.Booster.ShellClasses),
		ctrl:            ctrl,
		tuner:           tuner.New(ctrl, record),
		throttler:       tuner.NewThrottler(ctrl, targets, record, cfg.Targets.BalancedLimit),
		tweaker:         tuner.NewTweaker(cfg.Tweaks.PowerCommand, cfg.Tweaks.PowerProfile),
		journal:         journal,
		last:            stoppedStatus(),
	}
	for _, name := range cfg.Booster.AllowList {
		e.allow[strings.ToLower(name)] = struct{}{}
	}
	if e.interval <= 0 {
		e.interval = config.Default().Booster.PollInterval
	}
	if overlap := targets.Overlap(); len(overlap) > 0 {
		log.Printf("Protected processes also listed as background targets, they will not be throttled: %s",
			strings.Join(overlap, ", "))
	}
	e.turbo.Store(cfg.Booster.Turbo)
	return e
}

// SetStatusHandler replaces the status observer.
func (e *Engine) SetStatusHandler(fn StatusHandler) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.onStatus = fn
}

// Status returns the most recent status.
func (e *Engine) Status() Status {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.last
}

// SetTurbo changes the mode; the next tick picks it up.
func (e *Engine) SetTurbo(on bool) {
	e.turbo.Store(on)
}

func (e *Engine) Turbo() bool {
	return e.turbo.Load()
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// LastBoostedPID returns the pid boosted by the most recent successful
// tick, or 0.
func (e *Engine) LastBoostedPID() int32 {
	return e.lastBoosted.Load()
}

// SessionID identifies the current or most recent monitoring run. It is
// safe to call from a StatusHandler.
func (e *Engine) SessionID() string {
	id, _ := e.sessionID.Load().(string)
	return id
}

func (e *Engine) Tweaker() *tuner.Tweaker {
	return e.tweaker
}

// Start applies the power tweak and spawns the monitoring loop. It returns
// false if the engine was already running.
func (e *Engine) Start() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return false
	}

	e.running = true
	e.sessionID.Store(uuid.NewString())
	e.session = nil
	e.lastErr = ""
	e.tweaker.ApplyOnce()

	log.Printf("Starting booster with %v poll interval (session %s, turbo: %v)", e.interval, e.SessionID(), e.Turbo())
	e.emit(warmingStatus())

	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go e.loop(e.stop, e.done)
	return true
}

// Stop signals the loop, waits for it to exit, then restores every changed
// priority. It returns the number of processes restored.
func (e *Engine) Stop() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return 0
	}

	close(e.stop)
	<-e.done
	e.running = false

	e.endSession(time.Now())
	restored := e.tuner.Restore()
	e.lastBoosted.Store(0)

	log.Printf("Booster stopped, restored %d process(es)", restored)
	e.emit(stoppedStatus())
	return restored
}

// Run starts the engine, blocks until ctx is done, then stops it.
func (e *Engine) Run(ctx context.Context) error {
	if !e.Start() {
		return fmt.Errorf("booster is already running")
	}
	<-ctx.Done()
	e.Stop()
	return nil
}

func (e *Engine) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		default:
		}

		e.emit(e.tick(time.Now()))

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// tick runs one detection and tuning pass.
func (e *Engine) tick(now time.Time) Status {
	if !e.probe.Available() || !e.ctrl.Available() {
		e.endSession(now)
		return unsupportedStatus()
	}

	turbo := e.turbo.Load()

	h, ok := e.probe.ForegroundWindow()
	if !ok {
		e.endSession(now)
		return idleStatus()
	}
	pid, ok := e.probe.OwningProcess(h)
	if !ok || !e.classifier.IsFullscreen(h) {
		e.endSession(now)
		return idleStatus()
	}

	if len(e.allow) > 0 && !e.allowed(pid) {
		e.endSession(now)
		return idleStatus()
	}

	target, err := e.tuner.Elevate(pid, turbo)
	if err != nil {
		e.endSession(now)
		e.recordError(now, pid, err)

		switch common.KindOf(err) {
		case common.KindPermissionDenied:
			name, _ := e.ctrl.Name(pid)
			return permissionStatus(name, pid)
		case common.KindPlatformUnsupported:
			return unsupportedStatus()
		}
		return idleStatus()
	}
	e.lastErr = ""

	if prev := e.lastBoosted.Load(); prev != 0 && prev != pid && e.restoreOnSwitch {
		if e.tuner.RestorePID(prev) {
			log.Printf("Restored previously boosted pid %d", prev)
		}
	}

	throttled := e.throttler.Throttle(pid, turbo)
	e.lastBoosted.Store(pid)

	mode := ModeOf(turbo)
	e.trackSession(now, target, mode, throttled)
	return boostingStatus(target.Name, pid, throttled, mode)
}

func (e *Engine) allowed(pid int32) bool {
	name, err := e.ctrl.Name(pid)
	if err != nil {
		return false
	}
	_, ok := e.allow[strings.ToLower(name)]
	return ok
}

func (e *Engine) emit(s Status) {
	e.statusMu.Lock()
	changed := s.Headline != e.last.Headline || s.Detail != e.last.Detail
	e.last = s
	fn := e.onStatus
	e.statusMu.Unlock()

	if changed {
		log.Printf("%s | %s", s.Headline, s.Detail)
	}
	if fn != nil {
		fn(s)
	}
}

// trackSession opens a journal session on the first boosted tick of a pid
// and keeps its throttle count current.
func (e *Engine) trackSession(now time.Time, target *tuner.Target, mode Mode, throttled int) {
	if e.journal == nil {
		return
	}

	if e.session != nil && (e.session.PID != target.PID || e.session.Mode != mode.String()) {
		e.endSession(now)
	}

	if e.session != nil {
		if throttled > e.session.Throttled {
			e.session.Throttled = throttled
			if err := e.journal.UpdateThrottled(e.session.ID, throttled); err != nil {
				log.Printf("Failed to update boost session: %v", err)
			}
		}
		return
	}

	session := &models.BoostSession{
		SessionID:   e.SessionID(),
		PID:         target.PID,
		ProcessName: strings.ToLower(target.Name),
		Mode:        mode.String(),
		Throttled:   throttled,
		StartedAt:   now,
	}
	if err := e.journal.CreateSession(session); err != nil {
		log.Printf("Failed to store boost session: %v", err)
		return
	}
	e.session = session
}

func (e *Engine) endSession(now time.Time) {
	if e.session == nil || e.journal == nil {
		return
	}

	duration := int64(now.Sub(e.session.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}
	if err := e.journal.EndSession(e.session.ID, now, duration); err != nil {
		log.Printf("Failed to end boost session: %v", err)
	}
	e.session = nil
}

// recordError journals a classified failure once per distinct pid and kind
// so a denied process does not produce a row on every tick.
func (e *Engine) recordError(now time.Time, pid int32, err error) {
	kind := common.KindOf(err)
	if kind == common.KindProcessGone {
		return
	}

	key := fmt.Sprintf("%d/%s", pid, kind)
	if key == e.lastErr {
		return
	}
	e.lastErr = key

	log.Printf("Boost of pid %d failed: %v", pid, err)
	if e.journal == nil {
		return
	}

	errorLog := &models.ErrorLog{
		Timestamp: now,
		SessionID: e.SessionID(),
		Kind:      kind.String(),
		PID:       pid,
		ErrorMsg:  err.Error(),
	}
	if dbErr := e.journal.CreateErrorLog(errorLog); dbErr != nil {
		log.Printf("Failed to store error in database: %v (original error: %v)", dbErr, err)
	}
}
