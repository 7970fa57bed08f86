package tuner

import (
	"sort"
	"strings"
)

// DefaultBackground lists executables that compete with games for CPU and
// disk while rarely needing it themselves.
var DefaultBackground = []string{
	"chrome",
	"chromium",
	"msedge",
	"firefox",
	"discord",
	"steamwebhelper",
	"epicgameslauncher.exe",
	"onedrive",
	"obs",
	"teams",
	"teams-for-linux",
	"slack",
	"spotify",
	"tracker-miner-f",
	"baloo_file",
}

// DefaultProtected lists session-critical processes that are never touched.
var DefaultProtected = []string{
	"systemd",
	"init",
	"kthreadd",
	"xorg",
	"xwayland",
	"gnome-shell",
	"kwin_x11",
	"kwin_wayland",
	"pipewire",
	"pulseaudio",
	"wireplumber",
	"dbus-daemon",
	"sshd",
}

// Targets holds the background and protected name sets. Names are compared
// lower-cased. A name present in both sets is protected.
type Targets struct {
	background map[string]struct{}
	protected  map[string]struct{}
}

func NewTargets(background, protected []string) *Targets {
	return &Targets{
		background: toSet(background),
		protected:  toSet(protected),
	}
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}

func (t *Targets) IsProtected(name string) bool {
	_, ok := t.protected[strings.ToLower(name)]
	return ok
}

func (t *Targets) IsBackground(name string) bool {
	_, ok := t.background[strings.ToLower(name)]
	return ok
}

// Eligible reports whether a process may be throttled.
func (t *Targets) Eligible(name string) bool {
	return t.IsBackground(name) && !t.IsProtected(name)
}

// Overlap returns names present in both sets, sorted.
func (t *Targets) Overlap() []string {
	var both []string
	for name := range t.background {
		if _, ok := t.protected[name]; ok {
			both = append(both, name)
		}
	}
	sort.Strings(both)
	return both
}
