package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/cryptox"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/auth"
	"github.com/dmitrijs2005/gophmarket/internal/server/config"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService handles accounts:
//   - Register / Login / RefreshToken for buyers
//   - Approve / Suspend / Credit for administrators
type UserService struct {
	db                           dbx.DBTX
	tx                           dbx.Transactor
	repomanager                  repomanager.RepositoryManager
	log                          logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db dbx.DBTX, tx dbx.Transactor, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		tx:                           tx,
		repomanager:                  m,
		log:                          log.With("module", "users"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// Register creates a PENDING buyer account. An administrator has to approve
// it before the buyer can purchase.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", common.ErrorValidation)
	}

	user := &models.User{
		UserName:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: cryptox.HashPassword(password),
		Role:         common.RoleBuyer,
		Status:       models.UserStatusPending,
	}
	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, settleError(ctx, s.log, "register", err, "username", username)
	}
	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies the password and returns a new TokenPair. Unknown users and
// wrong passwords are both reported as common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, settleError(ctx, s.log, "login", err, "username", username)
	}
	if !cryptox.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}
	if user.Status == models.UserStatusSuspended {
		return nil, fmt.Errorf("account suspended: %w", common.ErrorForbidden)
	}

	pair, err := s.generateTokenPair(ctx, user, s.db)
	if err != nil {
		return nil, settleError(ctx, s.log, "login", err, "user_id", user.ID)
	}
	return pair, nil
}

// RefreshToken validates a refresh token, rotates it transactionally and
// returns a fresh TokenPair. Expired tokens yield common.ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	digest := cryptox.HashPassword(refreshToken)

	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, digest)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, settleError(ctx, s.log, "refresh token", err)
	}
	if !token.ExpiresAt.After(s.now()) {
		_ = s.repomanager.RefreshTokens(s.db).Delete(ctx, digest)
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, digest); err != nil {
			return err
		}
		user, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			return err
		}
		if user.Status == models.UserStatusSuspended {
			return fmt.Errorf("account suspended: %w", common.ErrorForbidden)
		}
		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	})
	if err != nil {
		return nil, settleError(ctx, s.log, "refresh token", err, "user_id", token.UserID)
	}
	return pair, nil
}

// Approve marks the account APPROVED. A nil expiresAt never expires.
func (s *UserService) Approve(ctx context.Context, userID string, expiresAt *time.Time) error {
	if err := s.repomanager.Users(s.db).SetStatus(ctx, userID, models.UserStatusApproved, expiresAt); err != nil {
		return settleError(ctx, s.log, "approve user", err, "user_id", userID)
	}
	s.log.Info(ctx, "user approved", "user_id", userID)
	return nil
}

// Suspend blocks the account and revokes all of its refresh tokens.
func (s *UserService) Suspend(ctx context.Context, userID string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).SetStatus(ctx, userID, models.UserStatusSuspended, nil); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, userID)
	})
	if err != nil {
		return settleError(ctx, s.log, "suspend user", err, "user_id", userID)
	}
	s.log.Info(ctx, "user suspended", "user_id", userID)
	return nil
}

// Credit tops up the balance and returns the new one.
func (s *UserService) Credit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive: %w", common.ErrorValidation)
	}
	balance, err := s.repomanager.Users(s.db).Credit(ctx, userID, amount)
	if err != nil {
		return decimal.Zero, settleError(ctx, s.log, "credit user", err, "user_id", userID)
	}
	s.log.Info(ctx, "balance credited", "user_id", userID, "amount", amount.StringFixed(2))
	return balance, nil
}

// Profile returns the account of userID.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, settleError(ctx, s.log, "profile", err, "user_id", userID)
	}
	return u, nil
}

// EnsureAdmin creates an approved administrator unless the username is
// already taken.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	repo := s.repomanager.Users(s.db)

	_, err := repo.GetUserByLogin(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	_, err = repo.Create(ctx, &models.User{
		UserName:     username,
		PasswordHash: cryptox.HashPassword(password),
		Role:         common.RoleAdmin,
		Status:       models.UserStatusApproved,
	})
	if err != nil && !errors.Is(err, common.ErrorAlreadyExists) {
		return err
	}
	s.log.Info(ctx, "administrator ensured", "username", username)
	return nil
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, db dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, err
	}
	expiresAt := s.now().Add(s.refreshTokenValidityDuration)
	if err := s.repomanager.RefreshTokens(db).Create(ctx, user.ID, cryptox.HashPassword(refresh), expiresAt); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
