package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseCard_Success(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	card := e.card(t, 100, "4111111111111111")
	u := e.buyer(t, 150, models.UserStatusApproved, nil)

	res, err := e.purchases().PurchaseCard(ctx, u.ID, card.ID)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(50).Equal(res.Balance))
	assert.Equal(t, card.ID, res.Receipt.CardID)
	assert.Equal(t, "4111111111111111", res.Receipt.Card.CardNumber)
	assert.Equal(t, "123", res.Receipt.Card.CVV)
	assert.Equal(t, u.UserName, res.Receipt.BuyerName)
	assert.NotEmpty(t, res.Receipt.OrderID)

	stored, err := e.rm.Cards(nil).GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.False(t, stored.ForSale)
	assert.Equal(t, u.UserName, stored.SoldToUsername)
	assert.Equal(t, u.Email, stored.SoldToEmail)
	require.NotNil(t, stored.SoldAt)

	order, err := e.rm.Orders(nil).GetCardOrder(ctx, u.ID, res.Receipt.OrderID)
	require.NoError(t, err)
	assert.NotEqual(t, "4111111111111111", order.CardNumber, "receipts are stored encrypted")
	assert.Equal(t, "4111111111111111", e.codec.Decrypt(order.CardNumber))
	assert.NotEqual(t, stored.CardNumber, order.CardNumber, "the receipt gets its own envelope")
}

func TestPurchaseCard_ConcurrentBuyersOnlyOneWins(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	card := e.card(t, 100, "4111111111111111")

	const buyers = 10
	users := make([]*models.User, buyers)
	for i := range users {
		users[i] = e.buyer(t, 100, models.UserStatusApproved, nil)
	}

	svc := e.purchases()
	errs := make([]error, buyers)
	var wg sync.WaitGroup
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.PurchaseCard(ctx, users[i].ID, card.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for i, err := range errs {
		if err == nil {
			wins++
			assert.True(t, e.balance(t, users[i].ID).IsZero())
			continue
		}
		assert.ErrorIs(t, err, common.ErrorAlreadySold)
		assert.True(t, decimal.NewFromInt(100).Equal(e.balance(t, users[i].ID)), "loser must keep the balance")
	}
	assert.Equal(t, 1, wins)
}

func TestPurchase_InsufficientFundsLeavesStateUnchanged(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	card := e.card(t, 100, "4111111111111111")
	u := e.buyer(t, 50, models.UserStatusApproved, nil)

	_, err := e.purchases().PurchaseCard(ctx, u.ID, card.ID)
	require.ErrorIs(t, err, common.ErrorInsufficientFunds)
	assert.Contains(t, err.Error(), "required 100.00, available 50.00")

	assert.True(t, decimal.NewFromInt(50).Equal(e.balance(t, u.ID)))
	stored, err := e.rm.Cards(nil).GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, stored.ForSale)
	orders, err := e.rm.Orders(nil).ListCardOrders(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPurchase_PreconditionOrder(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	svc := e.purchases()
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	soldCard := e.card(t, 100, "4111111111111111")
	winner := e.buyer(t, 100, models.UserStatusApproved, nil)
	_, err := svc.PurchaseCard(ctx, winner.ID, soldCard.ID)
	require.NoError(t, err)

	freeCard := e.card(t, 100, "4222222222222222")
	inactive := e.cardOffer(t, 10, 1)
	_, err = e.offers().SetOfferActive(ctx, inactive.ID, false)
	require.NoError(t, err)

	pending := e.buyer(t, 1000, models.UserStatusPending, nil)
	expired := e.buyer(t, 0, models.UserStatusApproved, &past)
	notYetExpired := e.buyer(t, 1000, models.UserStatusApproved, &future)
	poor := e.buyer(t, 10, models.UserStatusApproved, nil)

	tests := []struct {
		name string
		run  func() error
		want error
		msg  string
	}{
		{"unknown user before unknown item", func() error {
			_, err := svc.PurchaseCard(ctx, "nobody", "nothing")
			return err
		}, common.ErrorNotFound, "user nobody"},
		{"unknown item", func() error {
			_, err := svc.PurchaseProxy(ctx, pending.ID, "nothing")
			return err
		}, common.ErrorNotFound, "proxy nothing"},
		{"inactive offer before approval", func() error {
			_, err := svc.PurchaseOffer(ctx, pending.ID, inactive.ID)
			return err
		}, common.ErrorInvalidState, ""},
		{"approval before availability", func() error {
			_, err := svc.PurchaseCard(ctx, pending.ID, soldCard.ID)
			return err
		}, common.ErrorForbidden, "not approved"},
		{"expiry before funds", func() error {
			_, err := svc.PurchaseCard(ctx, expired.ID, freeCard.ID)
			return err
		}, common.ErrorForbidden, "expired"},
		{"availability before funds", func() error {
			_, err := svc.PurchaseCard(ctx, poor.ID, soldCard.ID)
			return err
		}, common.ErrorAlreadySold, ""},
		{"funds", func() error {
			_, err := svc.PurchaseCard(ctx, poor.ID, freeCard.ID)
			return err
		}, common.ErrorInsufficientFunds, ""},
		{"future expiry is fine", func() error {
			_, err := svc.PurchaseCard(ctx, notYetExpired.ID, freeCard.ID)
			return err
		}, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestPurchaseProxy(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	p, err := e.inventory(nil).CreateProxy(ctx, NewProxy{
		Title:       "Residential US",
		Protocol:    "socks5",
		Location:    "US",
		Price:       decimal.NewFromInt(20),
		Credentials: models.ProxyCredentials{Host: "10.0.0.1", Port: "1080", Username: "u"},
	})
	require.NoError(t, err)
	u := e.buyer(t, 20, models.UserStatusApproved, nil)

	res, err := e.purchases().PurchaseProxy(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, res.Balance.IsZero())
	assert.Equal(t, models.ProxyCredentials{Host: "10.0.0.1", Port: "1080", Username: "u"}, res.Receipt.Credentials)
	assert.Equal(t, "socks5", res.Receipt.Protocol)

	_, err = e.purchases().PurchaseProxy(ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, common.ErrorAlreadySold)
}

func TestPurchaseOffer_UnlocksRowCountNotStoredCount(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	offer := e.cardOffer(t, 300, 3)

	stale, err := e.rm.Offers(nil).GetByID(ctx, offer.ID)
	require.NoError(t, err)
	stale.CardCount = 5
	require.NoError(t, e.rm.Offers(nil).Update(ctx, stale))

	u := e.buyer(t, 300, models.UserStatusApproved, nil)
	res, err := e.purchases().PurchaseOffer(ctx, u.ID, offer.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Receipt.Quantity)
	require.Len(t, res.Receipt.Cards, 3)
	assert.Equal(t, "4000000000000000", res.Receipt.Cards[0].CardNumber)
	assert.Equal(t, "999", res.Receipt.Cards[2].CVV)

	stored, err := e.rm.Orders(nil).GetOfferOrder(ctx, u.ID, res.Receipt.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "4000000000000001", stored.Cards[1].CardNumber, "offer receipts keep plaintext snapshots")
}

func TestPurchaseOffer_NoInventoryRollsBackDebit(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	offer := e.cardOffer(t, 100, 0)
	u := e.buyer(t, 100, models.UserStatusApproved, nil)

	_, err := e.purchases().PurchaseOffer(ctx, u.ID, offer.ID)
	require.ErrorIs(t, err, common.ErrorNoInventory)

	assert.True(t, decimal.NewFromInt(100).Equal(e.balance(t, u.ID)))
	orders, err := e.rm.Orders(nil).ListOfferOrders(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPurchaseOffer_ProxyQuantityAndRepeatSales(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	offer, err := e.offers().CreateOffer(ctx, NewOffer{Title: "50 proxies", Type: models.OfferTypeProxy, Price: decimal.NewFromInt(40), Units: 50})
	require.NoError(t, err)
	u := e.buyer(t, 100, models.UserStatusApproved, nil)

	first, err := e.purchases().PurchaseOffer(ctx, u.ID, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, first.Receipt.Quantity)
	assert.Equal(t, models.OfferTypeProxy, first.Receipt.Type)
	assert.Empty(t, first.Receipt.Cards)
	assert.NotNil(t, first.Receipt.Cards)

	second, err := e.purchases().PurchaseOffer(ctx, u.ID, offer.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(second.Balance))
}

// beforeSettle runs change once when the purchase starts, after the caller
// has already seen the listing it is buying from.
func beforeSettle(svc *PurchaseService, change func()) {
	var once sync.Once
	svc.now = func() time.Time {
		once.Do(change)
		return time.Now()
	}
}

func TestPurchaseOffer_AdminChangesBeforeSettle(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivated offer is not sold", func(t *testing.T) {
		e := newTestEnv(t)
		offer := e.cardOffer(t, 100, 2)
		u := e.buyer(t, 500, models.UserStatusApproved, nil)

		svc := e.purchases()
		beforeSettle(svc, func() {
			_, err := e.offers().SetOfferActive(ctx, offer.ID, false)
			require.NoError(t, err)
		})

		_, err := svc.PurchaseOffer(ctx, u.ID, offer.ID)
		require.ErrorIs(t, err, common.ErrorInvalidState)
		assert.True(t, decimal.NewFromInt(500).Equal(e.balance(t, u.ID)))

		orders, err := e.rm.Orders(nil).ListOfferOrders(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("repriced offer sells at the new price", func(t *testing.T) {
		e := newTestEnv(t)
		offer := e.cardOffer(t, 100, 2)
		u := e.buyer(t, 500, models.UserStatusApproved, nil)

		svc := e.purchases()
		beforeSettle(svc, func() {
			_, err := e.offers().UpdateOfferPrice(ctx, offer.ID, decimal.NewFromInt(300))
			require.NoError(t, err)
		})

		res, err := svc.PurchaseOffer(ctx, u.ID, offer.ID)
		require.NoError(t, err)
		assert.Equal(t, "300.00", res.Receipt.Price.StringFixed(2))
		assert.True(t, decimal.NewFromInt(200).Equal(res.Balance))
		assert.True(t, decimal.NewFromInt(200).Equal(e.balance(t, u.ID)))
	})
}

func TestPurchaseCard_BuyerChangesBeforeSettle(t *testing.T) {
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name   string
		change func(e *testEnv, userID string) error
	}{
		{"suspended", func(e *testEnv, userID string) error {
			return e.accounts().Suspend(ctx, userID)
		}},
		{"expired", func(e *testEnv, userID string) error {
			return e.rm.Users(nil).SetStatus(ctx, userID, models.UserStatusApproved, &past)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			card := e.card(t, 100, "4111111111111111")
			u := e.buyer(t, 500, models.UserStatusApproved, nil)

			svc := e.purchases()
			beforeSettle(svc, func() { require.NoError(t, tt.change(e, u.ID)) })

			_, err := svc.PurchaseCard(ctx, u.ID, card.ID)
			require.ErrorIs(t, err, common.ErrorForbidden)

			assert.True(t, decimal.NewFromInt(500).Equal(e.balance(t, u.ID)))
			stored, err := e.rm.Cards(nil).GetByID(ctx, card.ID)
			require.NoError(t, err)
			assert.True(t, stored.ForSale)
		})
	}
}

func TestPurchaseOffer_PostgresLocksRowsInsideTransaction(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	const (
		userID  = "0b5c7f3e-8d21-4c1a-9e6f-2a3b4c5d6e7f"
		offerID = "9d8e7f60-5a4b-4c3d-8e2f-1a0b9c8d7e6f"
	)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role", "status", "balance", "account_expires_at", "created_at"}).
			AddRow(userID, "bob", "bob@example.com", "hash", common.RoleBuyer, "APPROVED", "500", nil, now))
	mock.ExpectQuery(`(?s)FROM\s+offers\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE`).
		WithArgs(offerID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "offer_type", "price", "card_count", "avg_price_per_card", "is_active", "created_at", "updated_at"}).
			AddRow(offerID, "Gold pack", "", "CARD", "100", 2, "50", false, now, now))
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectRollback()

	e := newTestEnv(t)
	svc := NewPurchaseService(dbx.NewSQLTransactor(db, nil), repomanager.NewPostgresRepositoryManager(), e.mapper, e.log)

	_, err = svc.PurchaseOffer(context.Background(), userID, offerID)
	require.ErrorIs(t, err, common.ErrorInvalidState)

	_, err = svc.PurchaseCard(context.Background(), "abc", offerID)
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
