package domain

import "time"

// Token is an opaque bearer credential bound one-to-one to a user. It lives
// until the user logs out; there is no expiry.
type Token struct {
	UserID    int64
	Value     string
	CreatedAt time.Time
}
