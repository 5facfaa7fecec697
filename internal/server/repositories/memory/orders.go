package memory

import (
	"context"
	"slices"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/google/uuid"
)

type OrdersRepository struct {
	s *Store
}

func NewOrdersRepository(s *Store) *OrdersRepository {
	return &OrdersRepository{s: s}
}

func (r *OrdersRepository) CreateCardOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	defer r.s.lock(ctx)()

	o.ID = uuid.NewString()
	o.CreatedAt = time.Now()
	r.s.st.cardOrders[o.ID] = row[models.Order]{seq: r.s.nextSeq(), v: *o}
	return o, nil
}

func (r *OrdersRepository) CreateProxyOrder(ctx context.Context, o *models.ProxyOrder) (*models.ProxyOrder, error) {
	defer r.s.lock(ctx)()

	o.ID = uuid.NewString()
	o.CreatedAt = time.Now()
	r.s.st.proxyOrders[o.ID] = row[models.ProxyOrder]{seq: r.s.nextSeq(), v: *o}
	return o, nil
}

func (r *OrdersRepository) CreateOfferOrder(ctx context.Context, o *models.OfferOrder) (*models.OfferOrder, error) {
	defer r.s.lock(ctx)()

	o.ID = uuid.NewString()
	o.CreatedAt = time.Now()
	stored := *o
	stored.Cards = slices.Clone(o.Cards)
	r.s.st.offerOrders[o.ID] = row[models.OfferOrder]{seq: r.s.nextSeq(), v: stored}
	return o, nil
}

func (r *OrdersRepository) ListCardOrders(ctx context.Context, buyerID string) ([]*models.Order, error) {
	defer r.s.lock(ctx)()
	return ptrs(r.s.st.cardOrders.sorted(false, func(o models.Order) bool { return o.BuyerID == buyerID })), nil
}

func (r *OrdersRepository) ListProxyOrders(ctx context.Context, buyerID string) ([]*models.ProxyOrder, error) {
	defer r.s.lock(ctx)()
	return ptrs(r.s.st.proxyOrders.sorted(false, func(o models.ProxyOrder) bool { return o.BuyerID == buyerID })), nil
}

func (r *OrdersRepository) ListOfferOrders(ctx context.Context, buyerID string) ([]*models.OfferOrder, error) {
	defer r.s.lock(ctx)()
	return ptrs(r.s.st.offerOrders.sorted(false, func(o models.OfferOrder) bool { return o.BuyerID == buyerID })), nil
}

func (r *OrdersRepository) GetCardOrder(ctx context.Context, buyerID, id string) (*models.Order, error) {
	defer r.s.lock(ctx)()
	return owned(r.s.st.cardOrders, id, func(o models.Order) bool { return o.BuyerID == buyerID })
}

func (r *OrdersRepository) GetProxyOrder(ctx context.Context, buyerID, id string) (*models.ProxyOrder, error) {
	defer r.s.lock(ctx)()
	return owned(r.s.st.proxyOrders, id, func(o models.ProxyOrder) bool { return o.BuyerID == buyerID })
}

func (r *OrdersRepository) GetOfferOrder(ctx context.Context, buyerID, id string) (*models.OfferOrder, error) {
	defer r.s.lock(ctx)()
	return owned(r.s.st.offerOrders, id, func(o models.OfferOrder) bool { return o.BuyerID == buyerID })
}

func owned[T any](t table[T], id string, mine func(T) bool) (*T, error) {
	r, ok := t[id]
	if !ok || !mine(r.v) {
		return nil, common.ErrorNotFound
	}
	v := r.v
	return &v, nil
}
