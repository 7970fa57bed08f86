package x11

import (
	"strings"

	"github.com/fpsboost/fpsboost/pkg/window"
)

// ICCCM WM_STATE value for iconified windows.
const iconicState = 3

// parseWMClass extracts the class name from a raw WM_CLASS value, which is
// two NUL-terminated strings: instance then class.
func parseWMClass(data []byte) string {
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) >= 2 && parts[1] != "" {
		return parts[1]
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return ""
}

func hasAtom(atoms []uint32, want uint32) bool {
	if want == 0 {
		return false
	}
	for _, a := range atoms {
		if a == want {
			return true
		}
	}
	return false
}

func isIconic(wmState []uint32) bool {
	return len(wmState) > 0 && wmState[0] == iconicState
}

// pickMonitor returns the monitor containing the window's centre, else the
// monitor nearest to it, else fallback.
func pickMonitor(win window.Rect, monitors []window.Rect, fallback window.Rect) window.Rect {
	if len(monitors) == 0 {
		return fallback
	}

	cx, cy := win.Center()
	best := monitors[0]
	bestDist := -1
	for _, mon := range monitors {
		if mon.Contains(cx, cy) {
			return mon
		}
		if d := distance(mon, cx, cy); bestDist < 0 || d < bestDist {
			best, bestDist = mon, d
		}
	}
	return best
}

// distance is the squared distance from a point to the nearest edge of r.
func distance(r window.Rect, x, y int) int {
	dx := 0
	switch {
	case x < r.X:
		dx = r.X - x
	case x >= r.X+r.Width:
		dx = x - (r.X + r.Width - 1)
	}
	dy := 0
	switch {
	case y < r.Y:
		dy = r.Y - y
	case y >= r.Y+r.Height:
		dy = y - (r.Y + r.Height - 1)
	}
	return dx*dx + dy*dy
}
