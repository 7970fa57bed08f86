package window

// Handle is an opaque window identifier. Zero means no window.
type Handle uint32

// Rect is a rectangle in root-window (screen) coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Center returns the midpoint of r.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Probe is the interface that all window-system backends must satisfy.
// Every query is best-effort: a failing OS call yields the zero value
// rather than propagating.
type Probe interface {
	// ForegroundWindow returns the window holding input focus.
	ForegroundWindow() (Handle, bool)

	// OwningProcess resolves the pid that created the window.
	OwningProcess(h Handle) (int32, bool)

	// Geometry returns the window's bounding box.
	Geometry(h Handle) (Rect, error)

	// MonitorGeometry returns the bounds of the monitor the window sits on.
	MonitorGeometry(h Handle) (Rect, error)

	// IsVisible reports whether the window is mapped and viewable.
	IsVisible(h Handle) bool

	// IsMinimized reports whether the window is iconified.
	IsMinimized(h Handle) bool

	// ClassName returns the window class, or "" if unknown.
	ClassName(h Handle) string

	// Available checks if this probe can run on the current system
	Available() bool

	// DisplayServer returns the backend name ("x11", "unsupported")
	DisplayServer() string

	// Close cleans up any resources used by the probe
	Close() error
}
