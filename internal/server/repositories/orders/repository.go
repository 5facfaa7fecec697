package orders

import (
	"context"

	"github.com/dmitrijs2005/gophmarket/internal/server/models"
)

// Repository stores purchase receipts. Reads are scoped to the buyer; an
// order owned by someone else is reported as common.ErrorNotFound.
type Repository interface {
	CreateCardOrder(ctx context.Context, o *models.Order) (*models.Order, error)
	CreateProxyOrder(ctx context.Context, o *models.ProxyOrder) (*models.ProxyOrder, error)
	CreateOfferOrder(ctx context.Context, o *models.OfferOrder) (*models.OfferOrder, error)

	ListCardOrders(ctx context.Context, buyerID string) ([]*models.Order, error)
	ListProxyOrders(ctx context.Context, buyerID string) ([]*models.ProxyOrder, error)
	ListOfferOrders(ctx context.Context, buyerID string) ([]*models.OfferOrder, error)

	GetCardOrder(ctx context.Context, buyerID, id string) (*models.Order, error)
	GetProxyOrder(ctx context.Context, buyerID, id string) (*models.ProxyOrder, error)
	GetOfferOrder(ctx context.Context, buyerID, id string) (*models.OfferOrder, error)
}
