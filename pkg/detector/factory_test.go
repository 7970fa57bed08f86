package detector

import (
	"os"
	"testing"
)

func TestNew(t *testing.T) {
	probe, err := New()
	if err != nil {
		t.Logf("New() returned error (may be expected): %v", err)
		if probe == nil {
			t.Fatal("New() must return a usable probe even on error")
		}
		if probe.Available() {
			t.Error("fallback probe must report unavailable")
		}
		return
	}

	displayServer := probe.DisplayServer()
	t.Logf("Detected display server: %s", displayServer)

	if displayServer != "x11" {
		t.Errorf("DisplayServer() = %s, want x11", displayServer)
	}

	if h, ok := probe.ForegroundWindow(); ok {
		pid, _ := probe.OwningProcess(h)
		t.Logf("Current window: 0x%x (%s), pid %d", uint32(h), probe.ClassName(h), pid)
	}

	if err := probe.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestDetectDisplayServer(t *testing.T) {
	tests := []struct {
		name             string
		sessionType      string
		waylandDisplay   string
		x11Display       string
		expectedContains string
	}{
		{
			name:             "Wayland session",
			sessionType:      "wayland",
			waylandDisplay:   "wayland-0",
			x11Display:       "",
			expectedContains: "wayland",
		},
		{
			name:             "X11 session",
			sessionType:      "x11",
			waylandDisplay:   "",
			x11Display:       ":0",
			expectedContains: "x11",
		},
		{
			name:             "Unknown session",
			sessionType:      "",
			waylandDisplay:   "",
			x11Display:       "",
			expectedContains: "unknown",
		},
		{
			name:             "Wayland display set",
			sessionType:      "",
			waylandDisplay:   "wayland-1",
			x11Display:       "",
			expectedContains: "wayland",
		},
		{
			name:             "X11 display set",
			sessionType:      "",
			waylandDisplay:   "",
			x11Display:       ":1",
			expectedContains: "x11",
		},
	}

	origSessionType := os.Getenv("XDG_SESSION_TYPE")
	origWaylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	origX11Display := os.Getenv("DISPLAY")

	defer func() {
		os.Setenv("XDG_SESSION_TYPE", origSessionType)
		os.Setenv("WAYLAND_DISPLAY", origWaylandDisplay)
		os.Setenv("DISPLAY", origX11Display)
	}()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("XDG_SESSION_TYPE", tt.sessionType)
			os.Setenv("WAYLAND_DISPLAY", tt.waylandDisplay)
			os.Setenv("DISPLAY", tt.x11Display)

			result := DetectDisplayServer()
			if result != tt.expectedContains {
				t.Errorf("DetectDisplayServer() = %s, want %s", result, tt.expectedContains)
			}
		})
	}
}

func TestNewWithoutDisplay(t *testing.T) {
	origX11Display := os.Getenv("DISPLAY")
	defer os.Setenv("DISPLAY", origX11Display)

	os.Unsetenv("DISPLAY")

	probe, err := New()
	if err == nil {
		t.Fatal("New() without DISPLAY should fail")
	}
	if probe == nil || probe.Available() {
		t.Error("New() should fall back to an unavailable probe")
	}
	if err := probe.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestMultipleProbeInstances(t *testing.T) {
	probe1, err := New()
	if err != nil {
		t.Skip("Display server not available")
	}
	defer probe1.Close()

	probe2, err := New()
	if err != nil {
		t.Skip("Display server not available")
	}
	defer probe2.Close()

	if probe1.DisplayServer() != probe2.DisplayServer() {
		t.Errorf("Display servers don't match: %s vs %s", probe1.DisplayServer(), probe2.DisplayServer())
	}
}
