package window

import "strings"

// DefaultTolerance is how many pixels a window may differ from its monitor
// in each dimension and still count as fullscreen. It absorbs the invisible
// border some borderless-fullscreen windows keep.
const DefaultTolerance = 8

// DefaultShellClasses are desktop, panel and tray window classes that cover
// a monitor without being an application.
var DefaultShellClasses = []string{
	"progman",
	"workerw",
	"shell_traywnd",
	"desktop_window",
	"nautilus-desktop",
	"nemo-desktop",
	"xfdesktop",
	"xfce4-panel",
	"plasmashell",
	"gnome-shell",
	"polybar",
	"tint2",
	"conky",
}

// Classifier decides whether a window is running fullscreen.
type Classifier struct {
	probe     Probe
	tolerance int
	shell     map[string]struct{}
}

// NewClassifier builds a classifier over probe. A negative tolerance is
// treated as zero. Shell class names are matched case-insensitively.
func NewClassifier(probe Probe, tolerance int, shellClasses []string) *Classifier {
	if tolerance < 0 {
		tolerance = 0
	}
	shell := make(map[string]struct{}, len(shellClasses))
	for _, class := range shellClasses {
		shell[strings.ToLower(class)] = struct{}{}
	}
	return &Classifier{probe: probe, tolerance: tolerance, shell: shell}
}

// Tolerance returns the per-dimension slack in pixels.
func (c *Classifier) Tolerance() int {
	return c.tolerance
}

// IsFullscreen reports whether h covers its monitor within the tolerance
// and is a visible, non-minimized application window. A maximized ordinary
// window that matches the monitor size also qualifies.
func (c *Classifier) IsFullscreen(h Handle) bool {
	if h == 0 || c.probe == nil || !c.probe.Available() {
		return false
	}
	if !c.probe.IsVisible(h) || c.probe.IsMinimized(h) {
		return false
	}
	if c.IsShell(c.probe.ClassName(h)) {
		return false
	}

	win, err := c.probe.Geometry(h)
	if err != nil {
		return false
	}
	mon, err := c.probe.MonitorGeometry(h)
	if err != nil {
		return false
	}

	return CoversMonitor(win, mon, c.tolerance)
}

// IsShell reports whether class belongs to the desktop shell.
func (c *Classifier) IsShell(class string) bool {
	if class == "" {
		return false
	}
	_, ok := c.shell[strings.ToLower(class)]
	return ok
}

// CoversMonitor compares sizes only; position is ignored because the probe
// already resolved which monitor the window belongs to.
func CoversMonitor(win, mon Rect, tolerance int) bool {
	return abs(win.Width-mon.Width) <= tolerance && abs(win.Height-mon.Height) <= tolerance
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
