package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/cards"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/offercards"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/offers"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/orders"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/proxies"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, which is either the
// pool or the transaction handed out by a dbx.Transactor.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Cards(db dbx.DBTX) cards.Repository
	Proxies(db dbx.DBTX) proxies.Repository
	Offers(db dbx.DBTX) offers.Repository
	OfferCards(db dbx.DBTX) offercards.Repository
	Orders(db dbx.DBTX) orders.Repository
}
