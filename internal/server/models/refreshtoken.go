package models

import "time"

// RefreshToken is a stored login session. Only the token digest is kept.
type RefreshToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
}
