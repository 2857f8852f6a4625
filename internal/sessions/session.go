package sessions

import "time"

// Session is one admin session and the state it owns.
type Session[T any] struct {
	ID        string
	Value     T
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s *Session[T]) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
