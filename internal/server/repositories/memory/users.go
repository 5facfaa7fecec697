package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UsersRepository struct {
	s *Store
}

func NewUsersRepository(s *Store) *UsersRepository {
	return &UsersRepository{s: s}
}

func (r *UsersRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.st.users {
		if existing.v.UserName == u.UserName {
			return nil, fmt.Errorf("username %q: %w", u.UserName, common.ErrorAlreadyExists)
		}
	}

	u.ID = uuid.NewString()
	u.Balance = decimal.Zero
	u.CreatedAt = time.Now()
	r.s.st.users[u.ID] = row[models.User]{seq: r.s.nextSeq(), v: *u}
	return u, nil
}

func (r *UsersRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	defer r.s.lock(ctx)()

	u, ok := r.s.st.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	v := u.v
	return &v, nil
}

// GetForUpdate is GetByID; inside a transaction the store mutex already
// serialises writers.
func (r *UsersRepository) GetForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *UsersRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	defer r.s.lock(ctx)()

	for _, u := range r.s.st.users {
		if u.v.UserName == login {
			v := u.v
			return &v, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UsersRepository) Debit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	defer r.s.lock(ctx)()

	u, ok := r.s.st.users[id]
	if !ok || u.v.Balance.LessThan(amount) {
		return decimal.Zero, common.ErrorInsufficientFunds
	}
	u.v.Balance = u.v.Balance.Sub(amount)
	r.s.st.users[id] = u
	return u.v.Balance, nil
}

func (r *UsersRepository) Credit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	defer r.s.lock(ctx)()

	u, ok := r.s.st.users[id]
	if !ok {
		return decimal.Zero, common.ErrorNotFound
	}
	u.v.Balance = u.v.Balance.Add(amount)
	r.s.st.users[id] = u
	return u.v.Balance, nil
}

func (r *UsersRepository) SetStatus(ctx context.Context, id string, status models.UserStatus, expiresAt *time.Time) error {
	defer r.s.lock(ctx)()

	u, ok := r.s.st.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.v.Status = status
	u.v.AccountExpiresAt = expiresAt
	r.s.st.users[id] = u
	return nil
}
