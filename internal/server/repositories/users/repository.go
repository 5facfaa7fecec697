package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetForUpdate is GetByID that also locks the row for the rest of the
	// transaction.
	GetForUpdate(ctx context.Context, id string) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	// Debit subtracts amount only when the balance covers it and returns the
	// new balance, or common.ErrorInsufficientFunds.
	Debit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)
	Credit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)
	SetStatus(ctx context.Context, id string, status models.UserStatus, expiresAt *time.Time) error
}
