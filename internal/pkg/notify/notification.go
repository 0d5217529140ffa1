// Package notify delivers short-lived user notifications: flash messages read by the next
// rendered page and live pushes over websocket.
package notify

import (
	"context"
	"encoding/json"
	"time"
)

const (
	DefaultDuration = 5 * time.Second
	DismissLabel    = "Close"
	PositionCenter  = "center"
)

// Notification is a transient message shown to the user for Duration.
type Notification struct {
	Message   string
	Action    string
	Duration  time.Duration
	Position  string
	ExpiresAt time.Time
}

// DurationMS is the display duration in milliseconds, as consumed by page scripts.
func (n Notification) DurationMS() int64 {
	return n.Duration.Milliseconds()
}

type wireNotification struct {
	Message    string    `json:"message"`
	Action     string    `json:"action"`
	DurationMS int64     `json:"duration_ms"`
	Position   string    `json:"position"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (n Notification) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireNotification{
		Message:    n.Message,
		Action:     n.Action,
		DurationMS: n.DurationMS(),
		Position:   n.Position,
		ExpiresAt:  n.ExpiresAt,
	})
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	var w wireNotification
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*n = Notification{
		Message:   w.Message,
		Action:    w.Action,
		Duration:  time.Duration(w.DurationMS) * time.Millisecond,
		Position:  w.Position,
		ExpiresAt: w.ExpiresAt,
	}
	return nil
}

// New builds a notification with the default dismiss label and position.
func New(message string, duration time.Duration) Notification {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return Notification{
		Message:  message,
		Action:   DismissLabel,
		Duration: duration,
		Position: PositionCenter,
	}
}

// Notifier shows notifications. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Multi fans a notification out to every notifier.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}
