package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectCardOrder(t *testing.T) {
	e := newTestEnv(t)

	sealed, err := e.mapper.SealCard(models.CardDetails{CardNumber: "4111111111111111", Expiry: "01/30"})
	require.NoError(t, err)

	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	got := ProjectCardOrder(e.mapper, &models.Order{
		ID: "o-1", CardID: "c-1", Title: "Visa", Price: decimal.NewFromInt(5),
		Buyer:       models.Buyer{BuyerID: "u-1", BuyerName: "alice", BuyerEmail: "a@example.com"},
		CardDetails: sealed,
		CreatedAt:   at,
	})

	want := CardReceipt{
		OrderID: "o-1", CardID: "c-1", Title: "Visa", Price: decimal.NewFromInt(5),
		BuyerName: "alice", BuyerEmail: "a@example.com",
		Card:        models.CardDetails{CardNumber: "4111111111111111", Expiry: "01/30"},
		PurchasedAt: at,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("receipt mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectProxyOrder_LegacyPlaintext(t *testing.T) {
	e := newTestEnv(t)

	got := ProjectProxyOrder(e.mapper, &models.ProxyOrder{
		ID:               "o-1",
		ProxyCredentials: models.ProxyCredentials{Host: "10.0.0.1", Port: "8080"},
	})
	assert.Equal(t, models.ProxyCredentials{Host: "10.0.0.1", Port: "8080"}, got.Credentials)
}

func TestProjectOfferOrder_CopiesCards(t *testing.T) {
	cards := []models.CardDetails{{CardNumber: "1"}, {CardNumber: "2"}}
	o := &models.OfferOrder{ID: "o-1", Type: models.OfferTypeCard, Quantity: 2, Cards: cards}

	got := ProjectOfferOrder(o)
	assert.Equal(t, cards, got.Cards)

	got.Cards[0].CardNumber = "changed"
	assert.Equal(t, "1", o.Cards[0].CardNumber)

	empty := ProjectOfferOrder(&models.OfferOrder{Type: models.OfferTypeProxy})
	assert.NotNil(t, empty.Cards)
}

func TestSettleError(t *testing.T) {
	ctx := context.Background()
	log := discardLogger()

	assert.NoError(t, settleError(ctx, log, "op", nil))

	domain := fmt.Errorf("card c-1: %w", common.ErrorAlreadySold)
	assert.Same(t, domain, settleError(ctx, log, "op", domain))

	err := settleError(ctx, log, "op", errors.New("connection reset"))
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.Contains(t, err.Error(), "connection reset")
	assert.False(t, IsDomainError(errors.New("connection reset")))
	assert.True(t, IsDomainError(common.ErrorNoInventory))
}
