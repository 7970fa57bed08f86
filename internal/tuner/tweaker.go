package tuner

import (
	"context"
	"io"
	"log"
	"os/exec"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultPowerCommand switches power-profiles-daemon to its performance
// profile.
var DefaultPowerCommand = []string{"powerprofilesctl", "set", "performance"}

const powerCommandTimeout = 5 * time.Second

// Runner executes an external command. A non-nil error means the command
// could not be started; a non-zero exit is reported with started=true.
type Runner func(ctx context.Context, argv []string) (started bool, err error)

// Tweaker applies the power profile change at most once per process
// lifetime.
type Tweaker struct {
	mu      sync.Mutex
	argv    []string
	run     Runner
	enabled bool
	applied bool
}

// NewTweaker returns a tweaker for argv. An empty argv or enabled=false
// makes ApplyOnce a no-op.
func NewTweaker(argv []string, enabled bool) *Tweaker {
	return &Tweaker{argv: argv, run: execRunner, enabled: enabled && len(argv) > 0}
}

// WithRunner replaces the command runner.
func (t *Tweaker) WithRunner(run Runner) *Tweaker {
	t.run = run
	return t
}

// ApplyOnce runs the command the first time it is called and reports
// whether the profile has been applied. Failures are logged and swallowed.
func (t *Tweaker) ApplyOnce() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled || t.applied {
		return t.applied
	}

	ctx, cancel := context.WithTimeout(context.Background(), powerCommandTimeout)
	defer cancel()

	started, err := t.run(ctx, t.argv)
	if started {
		t.applied = true
	}
	if err != nil {
		log.Printf("Power profile tweak %v: %v", t.argv, err)
	}
	return t.applied
}

func (t *Tweaker) Applied() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.applied
}

func execRunner(ctx context.Context, argv []string) (bool, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return false, errors.Wrap(err, "failed to start power command")
	}
	if err := cmd.Wait(); err != nil {
		return true, errors.Wrap(err, "power command failed")
	}
	return true, nil
}
