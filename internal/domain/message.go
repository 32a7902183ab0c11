package domain

import "time"

// Message is a single entry in the shared room, owned by exactly one member.
// Messages are append-only and ordered by CreatedAt (id breaks ties).
type Message struct {
	ID             int64
	MemberID       int64
	MemberUsername string
	Text           string
	CreatedAt      time.Time
}
