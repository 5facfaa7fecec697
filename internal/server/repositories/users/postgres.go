// Package users provides the PostgreSQL-backed buyer account repository.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectUser = `SELECT id, username, email, password_hash, role, status, balance, account_expires_at, created_at FROM users`

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, email, password_hash, role, status)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, balance, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Email, user.PasswordHash, user.Role, string(user.Status)).Scan(&user.ID, &user.Balance, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("username %q: %w", user.UserName, common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !dbx.ValidID(id) {
		return nil, common.ErrorNotFound
	}
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

// GetForUpdate reads the user and locks the row until the transaction ends.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.User, error) {
	if !dbx.ValidID(id) {
		return nil, common.ErrorNotFound
	}
	return r.getOne(ctx, selectUser+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE username = $1`, userName)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	var status string
	var expires sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.UserName, &user.Email, &user.PasswordHash,
		&user.Role, &status, &user.Balance, &expires, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Status = models.UserStatus(status)
	if expires.Valid {
		t := expires.Time
		user.AccountExpiresAt = &t
	}

	return user, nil
}

func (r *PostgresRepository) Debit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	query :=
		`UPDATE users SET balance = balance - $2
		 WHERE id = $1 AND balance >= $2
		 RETURNING balance
		 `

	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, id, amount).Scan(&balance)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, common.ErrorInsufficientFunds
		}
		return decimal.Zero, fmt.Errorf("db error: %w", err)
	}

	return balance, nil
}

func (r *PostgresRepository) Credit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !dbx.ValidID(id) {
		return decimal.Zero, common.ErrorNotFound
	}
	query :=
		`UPDATE users SET balance = balance + $2
		 WHERE id = $1
		 RETURNING balance
		 `

	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, id, amount).Scan(&balance)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, common.ErrorNotFound
		}
		return decimal.Zero, fmt.Errorf("db error: %w", err)
	}

	return balance, nil
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status models.UserStatus, expiresAt *time.Time) error {
	if !dbx.ValidID(id) {
		return common.ErrorNotFound
	}
	query :=
		`UPDATE users SET status = $2, account_expires_at = $3
		 WHERE id = $1
		 `

	var expires sql.NullTime
	if expiresAt != nil {
		expires = sql.NullTime{Time: *expiresAt, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query, id, string(status), expires)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
