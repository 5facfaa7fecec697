package offers

import (
	"context"

	"github.com/dmitrijs2005/gophmarket/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, o *models.Offer) (*models.Offer, error)
	GetByID(ctx context.Context, id string) (*models.Offer, error)
	// GetForUpdate reads the offer and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Offer, error)
	List(ctx context.Context, activeOnly bool, page models.Page) ([]*models.Offer, int, error)
	// Update writes the mutable columns and bumps updated_at.
	Update(ctx context.Context, o *models.Offer) error
}
