package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserStatus is the moderation state of a buyer account.
type UserStatus string

const (
	UserStatusPending   UserStatus = "PENDING"
	UserStatusApproved  UserStatus = "APPROVED"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

type User struct {
	ID               string
	UserName         string
	Email            string
	PasswordHash     string
	Role             string
	Status           UserStatus
	Balance          decimal.Decimal
	AccountExpiresAt *time.Time
	CreatedAt        time.Time
}

// Expired reports whether the account expiry has passed at now.
func (u *User) Expired(now time.Time) bool {
	return u.AccountExpiresAt != nil && !u.AccountExpiresAt.After(now)
}
