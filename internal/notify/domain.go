package notify

import (
	"errors"
	"time"
)

// Notification is a portal message for a vendor user, optionally mirrored
// out by email.
type Notification struct {
	ID         int64
	VendorID   int64
	UserID     int64
	EventType  string
	EntityType string
	EntityID   int64
	Message    string
	Read       bool
	CreatedAt  time.Time
}

// ErrNotFound indicates the notification does not exist.
var ErrNotFound = errors.New("notify: notification not found")
