package detector

import (
	"log"
	"os"
	"runtime"

	"github.com/pkg/errors"

	"github.com/fpsboost/fpsboost/pkg/integrations/x11"
	"github.com/fpsboost/fpsboost/pkg/window"
)

// ErrNoDisplay is returned when no X display is reachable.
var ErrNoDisplay = errors.New("no X11 display available")

// New returns the window probe for the current session. Wayland sessions
// are served through XWayland when DISPLAY is exported.
func New() (window.Probe, error) {
	if runtime.GOOS != "linux" {
		return window.Unsupported{}, errors.Wrapf(window.ErrUnsupported, "platform %s", runtime.GOOS)
	}

	if os.Getenv("DISPLAY") == "" {
		return window.Unsupported{}, ErrNoDisplay
	}

	if DetectDisplayServer() == "wayland" {
		log.Printf("Wayland session detected, only XWayland clients will be classified")
	}

	probe, err := x11.NewProbe()
	if err != nil {
		return window.Unsupported{}, errors.Wrap(err, "failed to initialize X11 probe")
	}
	return probe, nil
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
