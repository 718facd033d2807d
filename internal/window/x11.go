package window

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/swayrst/internal/logger"
)

// x11SocketPath reads the I3_SOCKET_PATH property i3 sets on the root window.
func x11SocketPath() (string, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return "", fmt.Errorf("failed to connect to X server: %w", err)
	}
	defer conn.Close()

	root := xproto.Setup(conn).DefaultScreen(conn).Root
	atom, err := getAtom(conn, "I3_SOCKET_PATH")
	if err != nil {
		return "", err
	}

	reply, err := xproto.GetProperty(conn, false, root, atom, xproto.GetPropertyTypeAny, 0, (1<<32)-1).Reply()
	if err != nil {
		return "", err
	}
	if reply.ValueLen == 0 {
		return "", fmt.Errorf("empty property")
	}
	return string(reply.Value), nil
}

// getAtom gets an atom ID by name
func getAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}

// X11PIDResolver fills in process ids for nodes that only carry an X11
// window id. i3 does not report pids in its tree; sway does, except for
// some Xwayland clients.
type X11PIDResolver struct {
	conn    *xgb.Conn
	pidAtom xproto.Atom
}

// NewX11PIDResolver connects to the X server named by $DISPLAY.
func NewX11PIDResolver() (*X11PIDResolver, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	atom, err := getAtom(conn, "_NET_WM_PID")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to intern _NET_WM_PID: %w", err)
	}

	return &X11PIDResolver{conn: conn, pidAtom: atom}, nil
}

// Close closes the X11 connection
func (r *X11PIDResolver) Close() {
	r.conn.Close()
}

// PID reads _NET_WM_PID from the X11 window.
func (r *X11PIDResolver) PID(win uint32) (int, error) {
	reply, err := xproto.GetProperty(
		r.conn,
		false,
		xproto.Window(win),
		r.pidAtom,
		xproto.AtomCardinal,
		0,
		1,
	).Reply()
	if err != nil {
		return 0, err
	}
	if len(reply.Value) < 4 {
		return 0, fmt.Errorf("window 0x%x has no _NET_WM_PID", win)
	}
	return int(uint32(reply.Value[0]) |
		uint32(reply.Value[1])<<8 |
		uint32(reply.Value[2])<<16 |
		uint32(reply.Value[3])<<24), nil
}

// Fill sets PID on every node of root that has an X11 window but no pid.
func (r *X11PIDResolver) Fill(root *Node) {
	log := logger.WithComponent("x11")
	root.Walk(func(n *Node) bool {
		if n.PID != 0 || n.Window == nil || *n.Window == 0 {
			return true
		}
		pid, err := r.PID(*n.Window)
		if err != nil {
			log.Debug().Err(err).Int64("id", n.ID).Msg("No pid for X11 window")
			return true
		}
		n.PID = pid
		return true
	})
}

// PIDFillingSession decorates a Session so that snapshots carry pids
// resolved through X11 where the window manager omits them.
type PIDFillingSession struct {
	Session
	Resolver *X11PIDResolver
}

// Snapshot returns the decorated session's tree with pids filled in
func (s *PIDFillingSession) Snapshot() (*Node, error) {
	root, err := s.Session.Snapshot()
	if err != nil {
		return nil, err
	}
	s.Resolver.Fill(root)
	return root, nil
}
