package window

import "github.com/pkg/errors"

// ErrUnsupported is returned by geometry queries of the Unsupported probe.
var ErrUnsupported = errors.New("window probing is not supported on this system")

// Unsupported is the probe used when no window-system backend is usable.
// It never reports a foreground window, so the engine stays idle.
type Unsupported struct{}

func (Unsupported) ForegroundWindow() (Handle, bool)     { return 0, false }
func (Unsupported) OwningProcess(Handle) (int32, bool)   { return 0, false }
func (Unsupported) Geometry(Handle) (Rect, error)        { return Rect{}, ErrUnsupported }
func (Unsupported) MonitorGeometry(Handle) (Rect, error) { return Rect{}, ErrUnsupported }
func (Unsupported) IsVisible(Handle) bool                { return false }
func (Unsupported) IsMinimized(Handle) bool              { return false }
func (Unsupported) ClassName(Handle) string              { return "" }
func (Unsupported) Available() bool                      { return false }
func (Unsupported) DisplayServer() string                { return "unsupported" }
func (Unsupported) Close() error                         { return nil }
