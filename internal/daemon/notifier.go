package daemon

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// NotificationLevel indicates the urgency of a desktop notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// Urgency maps the level onto the freedesktop urgency byte.
func (l NotificationLevel) Urgency() byte {
	switch l {
	case NotificationLevelInfo:
		return 0
	case NotificationLevelError:
		return 2
	default:
		return 1
	}
}

// Icon returns the freedesktop icon name for the level.
func (l NotificationLevel) Icon() string {
	switch l {
	case NotificationLevelInfo:
		return "dialog-information"
	case NotificationLevelError:
		return "dialog-error"
	default:
		return "dialog-warning"
	}
}

// Notification is a desktop notification about an imecued event.
type Notification struct {
	Summary string
	Body    string
	Level   NotificationLevel
}

// Notifier reports daemon problems to the user. Repeats of the same key are
// rate limited, and one-shot keys are only ever sent once.
type Notifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	send func(Notification) error

	lastNotifyTime map[string]time.Time // key -> last notification time
	sentOnce       map[string]bool
	minInterval    time.Duration
	now            func() time.Time

	enabled bool
}

// NewNotifier creates a Notifier. Nothing is sent until SetSendFunc is called.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger:         logger,
		lastNotifyTime: make(map[string]time.Time),
		sentOnce:       make(map[string]bool),
		minInterval:    30 * time.Second,
		now:            time.Now,
		enabled:        true,
	}
}

// SetSendFunc sets the function that delivers notifications.
func (n *Notifier) SetSendFunc(send func(Notification) error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.send = send
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between notifications with the same key.
func (n *Notifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends a notification unless the key was used within the minimum
// interval. It reports whether the notification was handed to the send func.
func (n *Notifier) Notify(key, summary, body string, level NotificationLevel) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if last, ok := n.lastNotifyTime[key]; ok && n.now().Sub(last) < n.minInterval {
		n.logger.Debug("notification rate-limited", "key", key, "summary", summary)
		return false
	}
	return n.deliver(key, Notification{Summary: summary, Body: body, Level: level})
}

// NotifyOnce sends a notification for key at most once per process.
func (n *Notifier) NotifyOnce(key, summary, body string, level NotificationLevel) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.sentOnce[key] {
		return false
	}
	n.sentOnce[key] = true
	return n.deliver(key, Notification{Summary: summary, Body: body, Level: level})
}

// deliver must be called with n.mu held.
func (n *Notifier) deliver(key string, notification Notification) bool {
	if !n.enabled {
		return false
	}
	if n.send == nil {
		n.logger.Debug("notification skipped: no sender", "summary", notification.Summary)
		return false
	}
	n.lastNotifyTime[key] = n.now()

	n.logger.Debug("sending notification", "key", key, "summary", notification.Summary)
	if err := n.send(notification); err != nil {
		n.logger.Debug("failed to send notification", "key", key, "error", err)
		return false
	}
	return true
}

// NotifySinkDisabled reports a sink that could not be set up and stays off.
func (n *Notifier) NotifySinkDisabled(sink string, err error) {
	n.NotifyOnce(
		"sink-disabled-"+sink,
		"imecue: "+sink+" bridge disabled",
		err.Error(),
		NotificationLevelWarning,
	)
}

// NotifySinkError reports a failed bridge publish. Used as the bridge error handler.
func (n *Notifier) NotifySinkError(sink string, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	n.Notify(
		"sink-error-"+sink,
		"imecue: "+sink+" bridge write failed",
		err.Error(),
		NotificationLevelWarning,
	)
}
