package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/cryptox"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/fieldmap"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/config"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	rm     repomanager.RepositoryManager
	tx     dbx.Transactor
	codec  *cryptox.Codec
	mapper *fieldmap.Mapper
	log    logging.Logger
	cfg    *config.Config
	users  atomic.Int64
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StorageBackend = config.StorageMemory

	codec, err := cfg.NewCodec()
	require.NoError(t, err)

	rm, tx := repomanager.NewInMemoryRepositoryManager()
	return &testEnv{
		rm:     rm,
		tx:     tx,
		codec:  codec,
		mapper: fieldmap.New(codec, nil),
		log:    discardLogger(),
		cfg:    cfg,
	}
}

func (e *testEnv) purchases() *PurchaseService {
	return NewPurchaseService(e.tx, e.rm, e.mapper, e.log)
}

func (e *testEnv) inventory(videos VideoLinks) *InventoryService {
	return NewInventoryService(nil, e.rm, e.mapper, videos, e.log)
}

func (e *testEnv) offers() *OfferService {
	return NewOfferService(nil, e.tx, e.rm, e.mapper, e.log)
}

func (e *testEnv) accounts() *UserService {
	return NewUserService(nil, e.tx, e.rm, e.cfg, e.log)
}

// buyer creates a user with the given balance and status. A non-nil
// expiresAt sets the account expiry.
func (e *testEnv) buyer(t *testing.T, balance int64, status models.UserStatus, expiresAt *time.Time) *models.User {
	t.Helper()
	ctx := context.Background()
	n := e.users.Add(1)

	u, err := e.rm.Users(nil).Create(ctx, &models.User{
		UserName: fmt.Sprintf("buyer%d", n),
		Email:    fmt.Sprintf("buyer%d@example.com", n),
		Role:     "BUYER",
		Status:   models.UserStatusPending,
	})
	require.NoError(t, err)
	require.NoError(t, e.rm.Users(nil).SetStatus(ctx, u.ID, status, expiresAt))
	if balance > 0 {
		_, err = e.rm.Users(nil).Credit(ctx, u.ID, decimal.NewFromInt(balance))
		require.NoError(t, err)
	}

	got, err := e.rm.Users(nil).GetByID(ctx, u.ID)
	require.NoError(t, err)
	return got
}

func (e *testEnv) balance(t *testing.T, userID string) decimal.Decimal {
	t.Helper()
	u, err := e.rm.Users(nil).GetByID(context.Background(), userID)
	require.NoError(t, err)
	return u.Balance
}

func (e *testEnv) card(t *testing.T, price int64, number string) *CardView {
	t.Helper()
	v, err := e.inventory(nil).CreateCard(context.Background(), NewCard{
		Title:   "Visa Classic",
		Price:   decimal.NewFromInt(price),
		Details: models.CardDetails{CardNumber: number, CVV: "123", Bank: "Chase", Country: "US", Expiry: "01/30"},
	})
	require.NoError(t, err)
	return v
}

func (e *testEnv) cardOffer(t *testing.T, price int64, rows int) *OfferView {
	t.Helper()
	ctx := context.Background()
	svc := e.offers()

	o, err := svc.CreateOffer(ctx, NewOffer{Title: "Bundle", Type: models.OfferTypeCard, Price: decimal.NewFromInt(price)})
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		_, o, err = svc.AddOfferCard(ctx, o.ID, models.CardDetails{CardNumber: fmt.Sprintf("400000000000000%d", i), CVV: "999"})
		require.NoError(t, err)
	}
	return o
}

type fakeVideos struct {
	uploads []string
	err     error
}

func (f *fakeVideos) PresignVideoUpload(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, key)
	return "https://upload.example/" + key, nil
}

func (f *fakeVideos) ResolveVideoLink(_ context.Context, link string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://signed.example/" + link, nil
}
