package booster

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/fpsboost/fpsboost/internal/config"
	"github.com/fpsboost/fpsboost/internal/models"
	"github.com/fpsboost/fpsboost/pkg/integrations/process"
	"github.com/fpsboost/fpsboost/pkg/integrations/process/processtest"
	"github.com/fpsboost/fpsboost/pkg/window"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var monitor = window.Rect{Width: 1920, Height: 1080}

type fakeProbe struct {
	mu        sync.Mutex
	handle    window.Handle
	pid       int32
	win       window.Rect
	minimized bool
	class     string
	available bool
}

func newFakeProbe() *fakeProbe {
	return &fakeProbe{available: true}
}

// focus puts a window owned by pid in the foreground.
func (p *fakeProbe) focus(h window.Handle, pid int32, win window.Rect) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handle, p.pid, p.win, p.minimized = h, pid, win, false
}

func (p *fakeProbe) minimize() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minimized = true
}

func (p *fakeProbe) ForegroundWindow() (window.Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle, p.handle != 0
}

func (p *fakeProbe) OwningProcess(window.Handle) (int32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid, p.pid != 0
}

func (p *fakeProbe) Geometry(window.Handle) (window.Rect, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.win, nil
}

func (p *fakeProbe) MonitorGeometry(window.Handle) (window.Rect, error) { return monitor, nil }
func (p *fakeProbe) IsVisible(window.Handle) bool                       { return true }

func (p *fakeProbe) IsMinimized(window.Handle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.minimized
}

func (p *fakeProbe) ClassName(window.Handle) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.class
}

func (p *fakeProbe) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

func (p *fakeProbe) DisplayServer() string { return "fake" }
func (p *fakeProbe) Close() error          { return nil }

type fakeJournal struct {
	mu       sync.Mutex
	nextID   uint
	sessions map[uint]*models.BoostSession
	errors   []*models.ErrorLog
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{sessions: make(map[uint]*models.BoostSession)}
}

func (j *fakeJournal) CreateSession(s *models.BoostSession) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.nextID++
	s.ID = j.nextID
	cp := *s
	j.sessions[s.ID] = &cp
	return nil
}

func (j *fakeJournal) EndSession(id uint, endedAt time.Time, duration int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := j.sessions[id]
	s.EndedAt = &endedAt
	s.Duration = duration
	return nil
}

func (j *fakeJournal) UpdateThrottled(id uint, throttled int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sessions[id].Throttled = throttled
	return nil
}

func (j *fakeJournal) CreateErrorLog(l *models.ErrorLog) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, l)
	return nil
}

func (j *fakeJournal) session(id uint) models.BoostSession {
	j.mu.Lock()
	defer j.mu.Unlock()
	return *j.sessions[id]
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Booster.PollInterval = 5 * time.Millisecond
	cfg.Booster.Turbo = false
	cfg.Tweaks.PowerProfile = false
	cfg.Targets.Background = []string{"chrome", "discord"}
	cfg.Targets.Protected = []string{"xorg"}
	return cfg
}

func newTestEngine(t *testing.T, cfg *config.Config) (*Engine, *fakeProbe, *processtest.Fake, *fakeJournal) {
	t.Helper()
	probe := newFakeProbe()
	fake := processtest.NewFake().
		Add(100, "game", 80).
		Add(200, "chrome", 30).
		Add(201, "chrome", 20).
		Add(300, "discord", 10).
		Add(400, "xorg", 50)
	journal := newFakeJournal()
	return NewEngine(cfg, probe, fake, journal), probe, fake, journal
}

func TestTickBoostsFullscreen(t *testing.T) {
	e, probe, fake, journal := newTestEngine(t, testConfig())
	probe.focus(1, 100, monitor)

	s := e.tick(time.Now())

	assert.Equal(t, SeverityBoosting, s.Severity)
	assert.Equal(t, "BOOSTING BALANCED: game", s.Headline)
	assert.Equal(t, "Fullscreen lock • PID 100 • tuned 3 background apps", s.Detail)
	assert.Equal(t, 3, s.Throttled)
	assert.Equal(t, process.PriorityHigh, fake.Nice(100))
	assert.Equal(t, process.PriorityIdle, fake.Nice(200))
	assert.Empty(t, fake.Sets(400), "protected process untouched")
	assert.Equal(t, int32(100), e.LastBoostedPID())

	require.Len(t, journal.sessions, 1)
	assert.Equal(t, "game", journal.session(1).ProcessName)
	assert.Equal(t, "BALANCED", journal.session(1).Mode)
}

func TestTickTurboFromToggle(t *testing.T) {
	e, probe, fake, _ := newTestEngine(t, testConfig())
	probe.focus(1, 100, monitor)

	e.SetTurbo(true)
	assert.True(t, e.Turbo())

	s := e.tick(time.Now())
	assert.Equal(t, "BOOSTING TURBO: game", s.Headline)
	assert.Equal(t, ModeTurbo, s.Mode)
	assert.Equal(t, process.PriorityHighest, fake.Nice(100))
	assert.True(t, fake.IORaised(100))
}

func TestTickWithinTolerance(t *testing.T) {
	e, probe, _, _ := newTestEngine(t, testConfig())

	probe.focus(1, 100, window.Rect{Width: 1912, Height: 1072})
	assert.Equal(t, SeverityBoosting, e.tick(time.Now()).Severity)

	probe.focus(1, 100, window.Rect{Width: 1911, Height: 1080})
	assert.Equal(t, SeverityIdle, e.tick(time.Now()).Severity)
}

func TestTickIdle(t *testing.T) {
	e, probe, fake, _ := newTestEngine(t, testConfig())

	s := e.tick(time.Now())
	assert.Equal(t, SeverityIdle, s.Severity)
	assert.Equal(t, "Idle - waiting for fullscreen application", s.Headline)

	probe.focus(1, 100, window.Rect{Width: 800, Height: 600})
	assert.Equal(t, SeverityIdle, e.tick(time.Now()).Severity)

	probe.focus(1, 100, monitor)
	probe.minimize()
	assert.Equal(t, SeverityIdle, e.tick(time.Now()).Severity)

	assert.Empty(t, fake.Touched())
}

// A denied elevation reports PermissionLimited and leaves
// background processes alone.
func TestTickPermissionDenied(t *testing.T) {
	e, probe, fake, journal := newTestEngine(t, testConfig())
	fake.Deny(100)
	probe.focus(1, 100, monitor)

	s := e.tick(time.Now())
	assert.Equal(t, SeverityPermissionLimited, s.Severity)
	assert.Equal(t, "Fullscreen app detected (needs admin)", s.Headline)
	assert.Empty(t, fake.Touched(), "throttler must not run")
	assert.Equal(t, int32(0), e.LastBoostedPID())
	assert.Zero(t, e.tuner.Record().Len())

	e.tick(time.Now())
	require.Len(t, journal.errors, 1, "repeated denials are journaled once")
	assert.Equal(t, "permission_denied", journal.errors[0].Kind)
	assert.Equal(t, int32(100), journal.errors[0].PID)
}

func TestTickProcessGone(t *testing.T) {
	e, probe, _, journal := newTestEngine(t, testConfig())
	probe.focus(1, 999, monitor)

	assert.Equal(t, SeverityIdle, e.tick(time.Now()).Severity)
	assert.Empty(t, journal.errors)
}

func TestTickUnsupported(t *testing.T) {
	e, probe, fake, _ := newTestEngine(t, testConfig())
	probe.focus(1, 100, monitor)
	fake.SetAvailable(false)

	s := e.tick(time.Now())
	assert.Equal(t, SeverityIdle, s.Severity)
	assert.Equal(t, "Idle - fullscreen detection unavailable", s.Headline)

	fake.SetAvailable(true)
	e2 := NewEngine(testConfig(), window.Unsupported{}, fake, nil)
	assert.Equal(t, "Idle - fullscreen detection unavailable", e2.tick(time.Now()).Headline)
}

func TestTickAllowList(t *testing.T) {
	cfg := testConfig()
	cfg.Booster.AllowList = []string{"Emulator"}
	e, probe, fake, _ := newTestEngine(t, cfg)
	fake.Add(500, "emulator", 60)

	probe.focus(1, 100, monitor)
	assert.Equal(t, SeverityIdle, e.tick(time.Now()).Severity)
	assert.Empty(t, fake.Touched())

	probe.focus(2, 500, monitor)
	assert.Equal(t, SeverityBoosting, e.tick(time.Now()).Severity)
}

func TestTickRestoreOnSwitch(t *testing.T) {
	e, probe, fake, journal := newTestEngine(t, testConfig())
	fake.AddWithPriority(500, "emulator", 60, 2)
	start := time.Now()

	probe.focus(1, 100, monitor)
	e.tick(start)
	probe.focus(2, 500, monitor)
	e.tick(start.Add(10 * time.Second))

	assert.Equal(t, process.PriorityNormal, fake.Nice(100), "previous boost reverted")
	assert.Equal(t, process.PriorityHigh, fake.Nice(500))
	assert.Equal(t, int32(500), e.LastBoostedPID())

	first := journal.session(1)
	require.NotNil(t, first.EndedAt)
	assert.Equal(t, int64(10), first.Duration)
	assert.Nil(t, journal.session(2).EndedAt)
}

func TestTickNoRestoreOnSwitch(t *testing.T) {
	cfg := testConfig()
	cfg.Booster.RestoreOnSwitch = false
	e, probe, fake, _ := newTestEngine(t, cfg)
	fake.Add(500, "emulator", 60)

	probe.focus(1, 100, monitor)
	e.tick(time.Now())
	probe.focus(2, 500, monitor)
	e.tick(time.Now())

	assert.Equal(t, process.PriorityHigh, fake.Nice(100))
	assert.Equal(t, process.PriorityHigh, fake.Nice(500))
}

func TestSessionSplitsOnModeChange(t *testing.T) {
	e, probe, _, journal := newTestEngine(t, testConfig())
	probe.focus(1, 100, monitor)

	e.tick(time.Now())
	e.tick(time.Now())
	e.SetTurbo(true)
	e.tick(time.Now())

	require.Len(t, journal.sessions, 2)
	assert.NotNil(t, journal.session(1).EndedAt)
	assert.Equal(t, "TURBO", journal.session(2).Mode)
}

type statusLog struct {
	mu       sync.Mutex
	statuses []Status
}

func (l *statusLog) add(s Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, s)
}

func (l *statusLog) snapshot() []Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Status(nil), l.statuses...)
}

func TestStartStop(t *testing.T) {
	e, probe, fake, journal := newTestEngine(t, testConfig())
	probe.focus(1, 100, monitor)

	var log statusLog
	e.SetStatusHandler(log.add)

	require.True(t, e.Start())
	assert.False(t, e.Start(), "second Start is a no-op")
	assert.True(t, e.Running())
	assert.NotEmpty(t, e.SessionID())

	require.Eventually(t, func() bool {
		return e.Status().Severity == SeverityBoosting
	}, time.Second, time.Millisecond)

	restored := e.Stop()
	assert.Equal(t, 4, restored, "game plus three background apps")
	assert.Equal(t, 0, e.Stop(), "second Stop is a no-op")
	assert.False(t, e.Running())
	assert.Equal(t, int32(0), e.LastBoostedPID())

	for _, pid := range []int32{100, 200, 201, 300} {
		assert.Equal(t, process.PriorityNormal, fake.Nice(pid), "pid %d", pid)
	}

	statuses := log.snapshot()
	require.GreaterOrEqual(t, len(statuses), 3)
	assert.Equal(t, PhaseWarming, statuses[0].Phase)
	assert.Equal(t, "Monitoring...", statuses[0].Headline)
	last := statuses[len(statuses)-1]
	assert.Equal(t, PhaseStopped, last.Phase)
	assert.Equal(t, "Stopped", last.Headline)

	assert.NotNil(t, journal.session(1).EndedAt, "stop closes the open session")
	assert.Equal(t, e.SessionID(), journal.session(1).SessionID)
}

func TestRestartGetsNewSession(t *testing.T) {
	e, _, _, _ := newTestEngine(t, testConfig())

	require.True(t, e.Start())
	first := e.SessionID()
	e.Stop()

	require.True(t, e.Start())
	assert.NotEqual(t, first, e.SessionID())
	e.Stop()
}

func TestStartAppliesTweakOnce(t *testing.T) {
	cfg := testConfig()
	cfg.Tweaks.PowerProfile = true
	e, _, _, _ := newTestEngine(t, cfg)

	calls := 0
	e.Tweaker().WithRunner(func(context.Context, []string) (bool, error) {
		calls++
		return true, nil
	})

	e.Start()
	e.Stop()
	e.Start()
	e.Stop()

	assert.Equal(t, 1, calls)
}

func TestRun(t *testing.T) {
	e, probe, fake, _ := newTestEngine(t, testConfig())
	probe.focus(1, 100, monitor)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()

	require.Eventually(t, func() bool {
		return fake.Nice(100) == process.PriorityHigh
	}, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-errc)
	assert.False(t, e.Running())
	assert.Equal(t, process.PriorityNormal, fake.Nice(100))
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "TURBO", ModeOf(true).String())
	assert.Equal(t, "BALANCED", ModeOf(false).String())
	assert.Equal(t, "permission_limited", SeverityPermissionLimited.String())

	s := boostingStatus("game", 7, 1, ModeTurbo)
	assert.Equal(t, "Fullscreen lock • PID 7 • tuned 1 background app", s.Detail)
}
