package auth

import "time"

// User represents a login account. Vendor users carry the vendor scope they
// are restricted to; admin users have VendorID zero.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	VendorID     int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
