package x11

import (
	"log"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/fpsboost/fpsboost/pkg/window"
)

const classCacheSize = 256

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_PID",
	"_NET_WM_STATE",
	"_NET_WM_STATE_HIDDEN",
	"WM_STATE",
	"WM_CLASS",
}

// Probe implements window.Probe over a native X11 connection.
type Probe struct {
	conn    *xgb.Conn
	root    xproto.Window
	screen  window.Rect
	atoms   map[string]xproto.Atom
	randr   bool
	classes *lru.Cache[classKey, string]
}

// classKey pairs a window id with its owner. X servers recycle ids of
// destroyed windows, so the pid guards against serving a stale class.
type classKey struct {
	h   window.Handle
	pid int32
}

// NewProbe connects to the X server named by $DISPLAY.
func NewProbe() (*Probe, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)

	p := &Probe{
		conn: conn,
		root: screen.Root,
		screen: window.Rect{
			Width:  int(screen.WidthInPixels),
			Height: int(screen.HeightInPixels),
		},
		atoms: make(map[string]xproto.Atom, len(atomNames)),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		p.atoms[name] = reply.Atom
	}

	if err := randr.Init(conn); err != nil {
		log.Printf("RandR unavailable, using root window as the only monitor: %v", err)
	} else {
		p.randr = true
	}

	p.classes, err = lru.New[classKey, string](classCacheSize)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to create class cache")
	}

	return p, nil
}

// Available reports whether the connection is open.
func (p *Probe) Available() bool {
	return p != nil && p.conn != nil
}

// DisplayServer returns "x11"
func (p *Probe) DisplayServer() string {
	return "x11"
}

// ForegroundWindow reads _NET_ACTIVE_WINDOW and falls back to the input
// focus window walked up to its top-level ancestor.
func (p *Probe) ForegroundWindow() (window.Handle, bool) {
	data, err := p.property(p.root, p.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if err == nil {
		if ids := decodeCardinals(data); len(ids) > 0 && ids[0] != 0 {
			return window.Handle(ids[0]), true
		}
	}

	focus, err := xproto.GetInputFocus(p.conn).Reply()
	if err != nil {
		return 0, false
	}
	// 0 is None and 1 is PointerRoot
	if focus.Focus <= 1 || focus.Focus == p.root {
		return 0, false
	}

	top := p.topLevel(focus.Focus)
	if top == 0 {
		return 0, false
	}
	return window.Handle(top), true
}

func (p *Probe) topLevel(w xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(p.conn, w).Reply()
		if err != nil {
			return 0
		}
		if reply.Parent == p.root || reply.Parent == 0 {
			return w
		}
		w = reply.Parent
	}
}

// OwningProcess reads _NET_WM_PID.
func (p *Probe) OwningProcess(h window.Handle) (int32, bool) {
	if h == 0 {
		return 0, false
	}
	data, err := p.property(xproto.Window(h), p.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil {
		return 0, false
	}
	vals := decodeCardinals(data)
	if len(vals) == 0 || vals[0] == 0 {
		return 0, false
	}
	return int32(vals[0]), true
}

// Geometry returns the window's size and its origin in root coordinates.
func (p *Probe) Geometry(h window.Handle) (window.Rect, error) {
	geom, err := xproto.GetGeometry(p.conn, xproto.Drawable(h)).Reply()
	if err != nil {
		return window.Rect{}, errors.Wrapf(err, "failed to get geometry of window 0x%x", uint32(h))
	}

	pos, err := xproto.TranslateCoordinates(p.conn, xproto.Window(h), p.root, 0, 0).Reply()
	if err != nil {
		return window.Rect{}, errors.Wrapf(err, "failed to translate coordinates of window 0x%x", uint32(h))
	}

	return window.Rect{
		X:      int(pos.DstX),
		Y:      int(pos.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// MonitorGeometry returns the CRTC the window belongs to.
func (p *Probe) MonitorGeometry(h window.Handle) (window.Rect, error) {
	win, err := p.Geometry(h)
	if err != nil {
		return window.Rect{}, err
	}
	return pickMonitor(win, p.monitors(), p.screen), nil
}

// monitors lists the active CRTCs. An empty result means the caller should
// fall back to the root window size.
func (p *Probe) monitors() []window.Rect {
	if !p.randr {
		return nil
	}

	res, err := randr.GetScreenResourcesCurrent(p.conn, p.root).Reply()
	if err != nil {
		return nil
	}

	var mons []window.Rect
	for _, crtc := range res.Crtcs {
		info, err := randr.GetCrtcInfo(p.conn, crtc, res.ConfigTimestamp).Reply()
		if err != nil || info.Mode == 0 || info.Width == 0 || info.Height == 0 {
			continue
		}
		mons = append(mons, window.Rect{
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}
	return mons
}

// IsVisible reports whether the window is mapped and viewable.
func (p *Probe) IsVisible(h window.Handle) bool {
	if h == 0 {
		return false
	}
	attrs, err := xproto.GetWindowAttributes(p.conn, xproto.Window(h)).Reply()
	if err != nil {
		p.forgetClass(h)
		return false
	}
	return attrs.MapState == xproto.MapStateViewable
}

// IsMinimized checks _NET_WM_STATE_HIDDEN first, then ICCCM WM_STATE.
func (p *Probe) IsMinimized(h window.Handle) bool {
	if h == 0 {
		return false
	}

	data, err := p.property(xproto.Window(h), p.atoms["_NET_WM_STATE"], xproto.AtomAtom, 64)
	if err == nil && hasAtom(decodeCardinals(data), uint32(p.atoms["_NET_WM_STATE_HIDDEN"])) {
		return true
	}

	wmState := p.atoms["WM_STATE"]
	data, err = p.property(xproto.Window(h), wmState, wmState, 2)
	if err != nil {
		return false
	}
	return isIconic(decodeCardinals(data))
}

// ClassName returns the class half of WM_CLASS. Results are cached per
// window and owning pid since WM_CLASS is set once before mapping.
func (p *Probe) ClassName(h window.Handle) string {
	if h == 0 {
		return ""
	}
	pid, _ := p.OwningProcess(h)

	return p.cachedClass(classKey{h: h, pid: pid}, func() string {
		data, err := p.property(xproto.Window(h), p.atoms["WM_CLASS"], xproto.AtomString, 256)
		if err != nil {
			p.forgetClass(h)
			return ""
		}
		return parseWMClass(data)
	})
}

func (p *Probe) cachedClass(key classKey, fetch func() string) string {
	if class, ok := p.classes.Get(key); ok {
		return class
	}
	class := fetch()
	if class != "" {
		p.classes.Add(key, class)
	}
	return class
}

// forgetClass drops every cached class of a window that no longer exists.
func (p *Probe) forgetClass(h window.Handle) {
	for _, key := range p.classes.Keys() {
		if key.h == h {
			p.classes.Remove(key)
		}
	}
}

// Close closes the X connection.
func (p *Probe) Close() error {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	return nil
}

func (p *Probe) property(w xproto.Window, atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(p.conn, false, w, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

// decodeCardinals splits a 32-bit format property into its values.
func decodeCardinals(data []byte) []uint32 {
	vals := make([]uint32, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		vals = append(vals, xgb.Get32(data[i:]))
	}
	return vals
}
