package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/cards"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/proxies"
	"github.com/google/uuid"
)

func paginate[T any](items []T, page models.Page) []T {
	page = page.Normalize()
	if page.Offset >= len(items) {
		return nil
	}
	end := page.Offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Offset:end]
}

func ptrs[T any](items []T) []*T {
	out := make([]*T, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}

func sold(buyer models.Buyer, at time.Time) models.Sale {
	t := at
	return models.Sale{ForSale: false, SoldToUsername: buyer.BuyerName, SoldToEmail: buyer.BuyerEmail, SoldAt: &t}
}

type CardsRepository struct {
	s *Store
}

func NewCardsRepository(s *Store) *CardsRepository {
	return &CardsRepository{s: s}
}

func (r *CardsRepository) Create(ctx context.Context, c *models.Card) (*models.Card, error) {
	defer r.s.lock(ctx)()

	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	r.s.st.cards[c.ID] = row[models.Card]{seq: r.s.nextSeq(), v: *c}
	return c, nil
}

func (r *CardsRepository) GetByID(ctx context.Context, id string) (*models.Card, error) {
	defer r.s.lock(ctx)()

	c, ok := r.s.st.cards[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	v := c.v
	return &v, nil
}

func (r *CardsRepository) List(ctx context.Context, f cards.Filter, page models.Page) ([]*models.Card, int, error) {
	defer r.s.lock(ctx)()

	all := r.s.st.cards.sorted(false, func(c models.Card) bool { return !f.ForSaleOnly || c.ForSale })
	return ptrs(paginate(all, page)), len(all), nil
}

func (r *CardsRepository) MarkSold(ctx context.Context, id string, buyer models.Buyer, at time.Time) error {
	defer r.s.lock(ctx)()

	c, ok := r.s.st.cards[id]
	if !ok || !c.v.ForSale {
		return common.ErrorAlreadySold
	}
	c.v.Sale = sold(buyer, at)
	r.s.st.cards[id] = c
	return nil
}

func (r *CardsRepository) UpdateDetails(ctx context.Context, id string, details models.CardDetails) error {
	defer r.s.lock(ctx)()

	c, ok := r.s.st.cards[id]
	if !ok {
		return common.ErrorNotFound
	}
	c.v.CardDetails = details
	r.s.st.cards[id] = c
	return nil
}

type ProxiesRepository struct {
	s *Store
}

func NewProxiesRepository(s *Store) *ProxiesRepository {
	return &ProxiesRepository{s: s}
}

func (r *ProxiesRepository) Create(ctx context.Context, p *models.Proxy) (*models.Proxy, error) {
	defer r.s.lock(ctx)()

	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	r.s.st.proxies[p.ID] = row[models.Proxy]{seq: r.s.nextSeq(), v: *p}
	return p, nil
}

func (r *ProxiesRepository) GetByID(ctx context.Context, id string) (*models.Proxy, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.st.proxies[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	v := p.v
	return &v, nil
}

func (r *ProxiesRepository) List(ctx context.Context, f proxies.Filter, page models.Page) ([]*models.Proxy, int, error) {
	defer r.s.lock(ctx)()

	all := r.s.st.proxies.sorted(false, func(p models.Proxy) bool { return !f.ForSaleOnly || p.ForSale })
	return ptrs(paginate(all, page)), len(all), nil
}

func (r *ProxiesRepository) MarkSold(ctx context.Context, id string, buyer models.Buyer, at time.Time) error {
	defer r.s.lock(ctx)()

	p, ok := r.s.st.proxies[id]
	if !ok || !p.v.ForSale {
		return common.ErrorAlreadySold
	}
	p.v.Sale = sold(buyer, at)
	r.s.st.proxies[id] = p
	return nil
}

func (r *ProxiesRepository) UpdateCredentials(ctx context.Context, id string, creds models.ProxyCredentials) error {
	defer r.s.lock(ctx)()

	p, ok := r.s.st.proxies[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.v.ProxyCredentials = creds
	r.s.st.proxies[id] = p
	return nil
}
