//go:build linux

package processtest

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"testing"
)

// StartSleeper starts a short-lived child process that the test owns and
// may renice freely. It is killed when the test ends.
func StartSleeper(t testing.TB) int32 {
	t.Helper()

	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start sleep: %v", err)
	}
	t.Cleanup(func() {
		cmd.Process.Kill()
		cmd.Wait()
	})
	return int32(cmd.Process.Pid)
}

// KernelNice reads the nice value of pid from /proc/<pid>/stat, field 19.
func KernelNice(pid int32) (int, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, err
	}
	return parseStatNice(string(data))
}

// parseStatNice skips past the command name, which may itself contain
// spaces or parentheses.
func parseStatNice(stat string) (int, error) {
	end := strings.LastIndexByte(stat, ')')
	if end < 0 {
		return 0, fmt.Errorf("malformed stat line")
	}
	// fields after the name start at field 3 (state)
	fields := strings.Fields(stat[end+1:])
	if len(fields) < 17 {
		return 0, fmt.Errorf("stat line has %d fields after the name", len(fields))
	}
	return strconv.Atoi(fields[16])
}
