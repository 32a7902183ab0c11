package domain

import "time"

// Member is the chat-facing profile linked one-to-one with a User. The
// username is a denormalized copy of the user's, set when the profile is
// created.
type Member struct {
	ID        int64
	UserID    int64
	Username  string
	CreatedAt time.Time
}
