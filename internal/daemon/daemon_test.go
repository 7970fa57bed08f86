package daemon

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "fpsboost.pid"))
}

func TestPIDLifecycle(t *testing.T) {
	d := newTestDaemon(t)

	pid, err := d.ReadPID()
	require.NoError(t, err)
	assert.Zero(t, pid, "missing PID file reads as 0")

	running, _, err := d.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)

	require.NoError(t, d.WritePID())

	pid, err = d.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	running, pid, err = d.IsRunning()
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, d.RemovePID())
	require.NoError(t, d.RemovePID(), "removing twice is fine")
}

func TestInvalidPIDFile(t *testing.T) {
	d := newTestDaemon(t)
	require.NoError(t, os.WriteFile(d.pidFile, []byte("not-a-pid"), 0644))

	_, err := d.ReadPID()
	assert.Error(t, err)
}

func TestStalePIDFileIsRemoved(t *testing.T) {
	d := newTestDaemon(t)

	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())
	require.NoError(t, os.WriteFile(d.pidFile, []byte(strconv.Itoa(cmd.Process.Pid)), 0644))

	running, _, err := d.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)

	_, err = os.Stat(d.pidFile)
	assert.True(t, os.IsNotExist(err))
}

func TestStopNotRunning(t *testing.T) {
	d := newTestDaemon(t)
	assert.Error(t, d.Stop(time.Second))
}

func TestStopWaitsForExit(t *testing.T) {
	d := newTestDaemon(t)

	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())
	go cmd.Wait()

	require.NoError(t, os.WriteFile(d.pidFile, []byte(strconv.Itoa(cmd.Process.Pid)), 0644))
	require.NoError(t, d.Stop(5*time.Second))

	_, err := os.Stat(d.pidFile)
	assert.True(t, os.IsNotExist(err))
}

func TestState(t *testing.T) {
	d := newTestDaemon(t)
	assert.Equal(t, filepath.Join(filepath.Dir(d.pidFile), "fpsboost.state"), d.stateFile)

	state, err := d.ReadState()
	require.NoError(t, err)
	assert.Nil(t, state)

	want := State{
		PID:       42,
		SessionID: "abc",
		Headline:  "BOOSTING TURBO: game",
		Severity:  "boosting",
		Turbo:     true,
		UpdatedAt: time.Now().Round(0).Truncate(time.Second),
	}
	require.NoError(t, d.WriteState(want))

	state, err = d.ReadState()
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, want.Headline, state.Headline)
	assert.True(t, want.UpdatedAt.Equal(state.UpdatedAt))

	require.NoError(t, d.RemovePID())
	state, err = d.ReadState()
	require.NoError(t, err)
	assert.Nil(t, state, "RemovePID clears the state file")
}
