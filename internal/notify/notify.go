// Package notify sends desktop notifications over the session bus.
package notify

import (
	"fmt"
	"strings"

	"github.com/bryanchriswhite/swayrst/internal/logger"
	"github.com/bryanchriswhite/swayrst/internal/restore"
	"github.com/godbus/dbus/v5"
)

const (
	notificationsService = "org.freedesktop.Notifications"
	notificationsPath    = "/org/freedesktop/Notifications"
	notifyMethod         = notificationsService + ".Notify"

	appName       = "swayrst"
	expireTimeout = int32(5000)
)

// caller is the part of dbus.BusObject used to send notifications
type caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Notifier posts notifications to the freedesktop notification daemon.
type Notifier struct {
	conn *dbus.Conn
	obj  caller
}

// New connects to the session bus.
func New() (*Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Notifier{
		conn: conn,
		obj:  conn.Object(notificationsService, dbus.ObjectPath(notificationsPath)),
	}, nil
}

// Close releases the bus connection
func (n *Notifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}

// Send posts one notification and returns its id.
func (n *Notifier) Send(summary, body string) (uint32, error) {
	call := n.obj.Call(notifyMethod, 0,
		appName,
		uint32(0),
		"",
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{},
		expireTimeout,
	)

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", err)
	}

	logger.WithComponent("notify").Debug().Uint32("id", id).Str("summary", summary).Msg("Notification sent")
	return id, nil
}

// Report posts the summary of a restore.
func (n *Notifier) Report(rep *restore.Report) error {
	summary, body := Summarize(rep)
	_, err := n.Send(summary, body)
	return err
}

// Summarize renders a restore report as notification text.
func Summarize(rep *restore.Report) (summary, body string) {
	summary = fmt.Sprintf("Profile %s restored", rep.Profile)

	var lines []string
	lines = append(lines, fmt.Sprintf("%d of %d windows placed", rep.Matched, rep.Matched+rep.Unmatched))
	if len(rep.Spawned) > 0 {
		lines = append(lines, fmt.Sprintf("%d apps started", len(rep.Spawned)))
	}
	if len(rep.Failed) > 0 {
		names := make([]string, 0, len(rep.Failed))
		for _, argv := range rep.Failed {
			if len(argv) > 0 {
				names = append(names, argv[0])
			}
		}
		lines = append(lines, "failed to start: "+strings.Join(names, ", "))
	}
	if rep.TimedOut {
		lines = append(lines, "timed out waiting for apps")
	}
	if rep.Failures > 0 {
		lines = append(lines, fmt.Sprintf("%d commands failed", rep.Failures))
	}
	return summary, strings.Join(lines, "\n")
}
