package cards

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/server/models"
)

// Filter narrows a card listing.
type Filter struct {
	ForSaleOnly bool
}

type Repository interface {
	Create(ctx context.Context, card *models.Card) (*models.Card, error)
	GetByID(ctx context.Context, id string) (*models.Card, error)
	List(ctx context.Context, f Filter, page models.Page) ([]*models.Card, int, error)
	// MarkSold flips for_sale from true to false in one conditional write.
	// It returns common.ErrorAlreadySold when the card was not for sale.
	MarkSold(ctx context.Context, id string, buyer models.Buyer, at time.Time) error
	UpdateDetails(ctx context.Context, id string, details models.CardDetails) error
}
