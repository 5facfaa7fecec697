package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/cryptox"
	"github.com/dmitrijs2005/gophmarket/internal/server/auth"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	svc := e.accounts()

	u, err := svc.Register(ctx, " alice ", "alice@example.com", "pa55")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.UserName)
	assert.Equal(t, models.UserStatusPending, u.Status)
	assert.Equal(t, common.RoleBuyer, u.Role)
	assert.Equal(t, cryptox.HashPassword("pa55"), u.PasswordHash)

	_, err = svc.Register(ctx, "alice", "other@example.com", "x")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	_, err = svc.Register(ctx, "  ", "", "x")
	assert.ErrorIs(t, err, common.ErrorValidation)

	pair, err := svc.Login(ctx, "alice", "pa55")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := auth.ParseToken(pair.AccessToken, []byte(e.cfg.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, common.RoleBuyer, claims.Role)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = svc.Login(ctx, "bob", "pa55")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRefreshToken_Rotates(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	svc := e.accounts()

	_, err := svc.Register(ctx, "alice", "", "pw")
	require.NoError(t, err)
	first, err := svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	second, err := svc.RefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.RefreshToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized, "a used refresh token is gone")

	_, err = e.rm.RefreshTokens(nil).Find(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorNotFound, "only the digest is stored")
}

func TestRefreshToken_Expired(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	svc := e.accounts()

	_, err := svc.Register(ctx, "alice", "", "pw")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(e.cfg.RefreshTokenValidityDuration + time.Minute) }

	_, err = svc.RefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)

	_, err = svc.RefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized, "expired tokens are dropped")
}

func TestSuspend_BlocksLoginAndRevokesSessions(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	svc := e.accounts()

	u, err := svc.Register(ctx, "alice", "", "pw")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Suspend(ctx, u.ID))

	_, err = svc.Login(ctx, "alice", "pw")
	assert.ErrorIs(t, err, common.ErrorForbidden)
	_, err = svc.RefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	assert.ErrorIs(t, svc.Suspend(ctx, "missing"), common.ErrorNotFound)
}

func TestApproveAndCredit(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	svc := e.accounts()

	u, err := svc.Register(ctx, "alice", "", "pw")
	require.NoError(t, err)

	expires := time.Now().Add(30 * 24 * time.Hour)
	require.NoError(t, svc.Approve(ctx, u.ID, &expires))
	assert.ErrorIs(t, svc.Approve(ctx, "missing", nil), common.ErrorNotFound)

	_, err = svc.Credit(ctx, u.ID, decimal.Zero)
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = svc.Credit(ctx, u.ID, decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, common.ErrorValidation)

	balance, err := svc.Credit(ctx, u.ID, decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	assert.Equal(t, "12.50", balance.StringFixed(2))

	got, err := svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusApproved, got.Status)
	require.NotNil(t, got.AccountExpiresAt)
	assert.True(t, expires.Equal(*got.AccountExpiresAt))
}

func TestEnsureAdmin(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	svc := e.accounts()

	require.NoError(t, svc.EnsureAdmin(ctx, "root", "toor"))
	require.NoError(t, svc.EnsureAdmin(ctx, "root", "ignored"))

	pair, err := svc.Login(ctx, "root", "toor")
	require.NoError(t, err)
	claims, err := auth.ParseToken(pair.AccessToken, []byte(e.cfg.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, common.RoleAdmin, claims.Role)
}
