package secondary

import (
	"context"
	"time"
)

// Notification is the payload handed to the delivery channel when a
// schedule fires.
type Notification struct {
	Title     string
	Body      string
	Variables map[string]string
	FiredAt   time.Time
}

// Notifier defines the secondary port for reminder delivery. The scheduler
// computes trigger decisions; implementations own the transport (console,
// system notifications, push).
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
