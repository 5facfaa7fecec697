package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/google/uuid"
)

type OffersRepository struct {
	s *Store
}

func NewOffersRepository(s *Store) *OffersRepository {
	return &OffersRepository{s: s}
}

func (r *OffersRepository) Create(ctx context.Context, o *models.Offer) (*models.Offer, error) {
	defer r.s.lock(ctx)()

	o.ID = uuid.NewString()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	r.s.st.offers[o.ID] = row[models.Offer]{seq: r.s.nextSeq(), v: *o}
	return o, nil
}

func (r *OffersRepository) GetByID(ctx context.Context, id string) (*models.Offer, error) {
	defer r.s.lock(ctx)()

	o, ok := r.s.st.offers[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	v := o.v
	return &v, nil
}

// GetForUpdate is GetByID; inside a transaction the store mutex already
// serialises writers.
func (r *OffersRepository) GetForUpdate(ctx context.Context, id string) (*models.Offer, error) {
	return r.GetByID(ctx, id)
}

func (r *OffersRepository) List(ctx context.Context, activeOnly bool, page models.Page) ([]*models.Offer, int, error) {
	defer r.s.lock(ctx)()

	all := r.s.st.offers.sorted(false, func(o models.Offer) bool { return !activeOnly || o.IsActive })
	return ptrs(paginate(all, page)), len(all), nil
}

func (r *OffersRepository) Update(ctx context.Context, o *models.Offer) error {
	defer r.s.lock(ctx)()

	cur, ok := r.s.st.offers[o.ID]
	if !ok {
		return common.ErrorNotFound
	}
	o.CreatedAt = cur.v.CreatedAt
	o.Type = cur.v.Type
	o.UpdatedAt = time.Now()
	cur.v = *o
	r.s.st.offers[o.ID] = cur
	return nil
}

type OfferCardsRepository struct {
	s *Store
}

func NewOfferCardsRepository(s *Store) *OfferCardsRepository {
	return &OfferCardsRepository{s: s}
}

func (r *OfferCardsRepository) Create(ctx context.Context, c *models.OfferCard) (*models.OfferCard, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.st.offers[c.OfferID]; !ok {
		return nil, common.ErrorNotFound
	}
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	r.s.st.offerCards[c.ID] = row[models.OfferCard]{seq: r.s.nextSeq(), v: *c}
	return c, nil
}

func (r *OfferCardsRepository) Delete(ctx context.Context, offerID, id string) error {
	defer r.s.lock(ctx)()

	c, ok := r.s.st.offerCards[id]
	if !ok || c.v.OfferID != offerID {
		return common.ErrorNotFound
	}
	delete(r.s.st.offerCards, id)
	return nil
}

func (r *OfferCardsRepository) CountByOffer(ctx context.Context, offerID string) (int, error) {
	defer r.s.lock(ctx)()

	n := 0
	for _, c := range r.s.st.offerCards {
		if c.v.OfferID == offerID {
			n++
		}
	}
	return n, nil
}

func (r *OfferCardsRepository) ListByOffer(ctx context.Context, offerID string) ([]*models.OfferCard, error) {
	defer r.s.lock(ctx)()

	return ptrs(r.s.st.offerCards.sorted(true, func(c models.OfferCard) bool { return c.OfferID == offerID })), nil
}

func (r *OfferCardsRepository) ListAll(ctx context.Context) ([]*models.OfferCard, error) {
	defer r.s.lock(ctx)()

	return ptrs(r.s.st.offerCards.sorted(true, nil)), nil
}

func (r *OfferCardsRepository) UpdateDetails(ctx context.Context, id string, details models.CardDetails) error {
	defer r.s.lock(ctx)()

	c, ok := r.s.st.offerCards[id]
	if !ok {
		return common.ErrorNotFound
	}
	c.v.CardDetails = details
	r.s.st.offerCards[id] = c
	return nil
}
