package offercards

import (
	"context"

	"github.com/dmitrijs2005/gophmarket/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.OfferCard) (*models.OfferCard, error)
	// Delete removes the card only when it belongs to offerID.
	Delete(ctx context.Context, offerID, id string) error
	CountByOffer(ctx context.Context, offerID string) (int, error)
	// ListByOffer returns every card row of the offer, oldest first.
	ListByOffer(ctx context.Context, offerID string) ([]*models.OfferCard, error)
	UpdateDetails(ctx context.Context, id string, details models.CardDetails) error
	// ListAll walks every offer card row, for maintenance jobs.
	ListAll(ctx context.Context) ([]*models.OfferCard, error)
}
