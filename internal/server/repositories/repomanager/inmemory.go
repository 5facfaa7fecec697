package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/cards"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/offercards"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/offers"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/orders"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/proxies"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/users"
)

// InMemoryRepositoryManager vends repositories over one memory.Store. The
// DBTX arguments are ignored; transactions are tracked by the store itself.
type InMemoryRepositoryManager struct {
	store *memory.Store
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return memory.NewUsersRepository(m.store)
}

func (m *InMemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return memory.NewRefreshTokensRepository(m.store)
}

func (m *InMemoryRepositoryManager) Cards(dbx.DBTX) cards.Repository {
	return memory.NewCardsRepository(m.store)
}

func (m *InMemoryRepositoryManager) Proxies(dbx.DBTX) proxies.Repository {
	return memory.NewProxiesRepository(m.store)
}

func (m *InMemoryRepositoryManager) Offers(dbx.DBTX) offers.Repository {
	return memory.NewOffersRepository(m.store)
}

func (m *InMemoryRepositoryManager) OfferCards(dbx.DBTX) offercards.Repository {
	return memory.NewOfferCardsRepository(m.store)
}

func (m *InMemoryRepositoryManager) Orders(dbx.DBTX) orders.Repository {
	return memory.NewOrdersRepository(m.store)
}

// NewInMemoryRepositoryManager returns the manager together with the
// transactor that must be used with it.
func NewInMemoryRepositoryManager() (RepositoryManager, dbx.Transactor) {
	s := memory.NewStore()
	return &InMemoryRepositoryManager{store: s}, s
}
