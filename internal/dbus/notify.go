package dbus

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
)

// org.freedesktop.Notifications endpoint.
const (
	NotificationsBusName = "org.freedesktop.Notifications"
	NotificationsPath    = "/org/freedesktop/Notifications"
	notifyMethod         = NotificationsBusName + ".Notify"
)

// Notification is an outgoing org.freedesktop.Notifications.Notify call.
type Notification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// NewNotification builds a transient notification from imecued.
// urgency follows the freedesktop levels: 0 low, 1 normal, 2 critical.
func NewNotification(summary, body, icon string, urgency byte) *Notification {
	return &Notification{
		AppName: "imecued",
		AppIcon: icon,
		Summary: summary,
		Body:    body,
		Actions: []string{},
		Hints: map[string]dbus.Variant{
			"urgency":       dbus.MakeVariant(urgency),
			"category":      dbus.MakeVariant("device"),
			"transient":     dbus.MakeVariant(true),
			"desktop-entry": dbus.MakeVariant("imecued"),
		},
		ExpireTimeout: 5000,
	}
}

// Urgency returns the urgency hint (0=low, 1=normal, 2=critical). Defaults to 1.
func (n *Notification) Urgency() int {
	if v, ok := n.Hints["urgency"]; ok {
		if u, ok := v.Value().(byte); ok {
			return int(u)
		}
	}
	return 1
}

// Transient returns whether the server should skip its history for this notification.
func (n *Notification) Transient() bool {
	if v, ok := n.Hints["transient"]; ok {
		if t, ok := v.Value().(bool); ok {
			return t
		}
	}
	return false
}

func (n *Notification) args() []interface{} {
	return []interface{}{
		n.AppName, n.ReplacesID, n.AppIcon, n.Summary, n.Body,
		n.Actions, n.Hints, n.ExpireTimeout,
	}
}

// DesktopNotifier sends notifications to whichever notification daemon owns
// the freedesktop name.
type DesktopNotifier struct {
	conn    *dbus.Conn
	timeout time.Duration
}

// NewDesktopNotifier opens a private session bus connection.
func NewDesktopNotifier(timeout time.Duration) (*DesktopNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &DesktopNotifier{conn: conn, timeout: timeout}, nil
}

// Send delivers n and returns the server-assigned id.
func (d *DesktopNotifier) Send(n *Notification) (uint32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	var id uint32
	obj := d.conn.Object(NotificationsBusName, NotificationsPath)
	if err := obj.CallWithContext(ctx, notifyMethod, 0, n.args()...).Store(&id); err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", err)
	}
	return id, nil
}

// Close closes the bus connection.
func (d *DesktopNotifier) Close() error {
	return d.conn.Close()
}
