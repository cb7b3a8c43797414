package domain

import "time"

type APIToken struct {
	ID        int64
	UserID    int64
	Name      string
	TokenHash string
	ExpiresAt *time.Time
}

func (t APIToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}
