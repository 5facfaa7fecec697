package proxies

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/server/models"
)

// Filter narrows a proxy listing.
type Filter struct {
	ForSaleOnly bool
}

type Repository interface {
	Create(ctx context.Context, p *models.Proxy) (*models.Proxy, error)
	GetByID(ctx context.Context, id string) (*models.Proxy, error)
	List(ctx context.Context, f Filter, page models.Page) ([]*models.Proxy, int, error)
	// MarkSold returns common.ErrorAlreadySold when the proxy was not for sale.
	MarkSold(ctx context.Context, id string, buyer models.Buyer, at time.Time) error
	UpdateCredentials(ctx context.Context, id string, creds models.ProxyCredentials) error
}
