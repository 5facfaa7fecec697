// Package orders persists purchase receipts for the three sellable kinds.
package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/columns"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var (
	selectCardOrder = `SELECT id, card_id, title, price, buyer_id, buyer_name, buyer_email, ` +
		columns.List(columns.CardDetails, "") + `, created_at FROM orders`
	selectProxyOrder = `SELECT id, proxy_id, title, protocol, location, price, buyer_id, buyer_name, buyer_email, ` +
		columns.List(columns.ProxyCredentials, "") + `, created_at FROM proxy_orders`
	selectOfferOrder = `SELECT id, offer_id, title, offer_type, price, quantity, buyer_id, buyer_name, buyer_email, cards, created_at FROM offer_orders`
)

const (
	byBuyer   = ` WHERE buyer_id = $1 ORDER BY created_at DESC, id`
	byIDBuyer = ` WHERE buyer_id = $1 AND id = $2`
)

func (r *PostgresRepository) CreateCardOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	n := len(columns.CardDetails)
	query := `INSERT INTO orders (card_id, title, price, buyer_id, buyer_name, buyer_email, ` + columns.List(columns.CardDetails, "") + `)
		VALUES ($1, $2, $3, $4, $5, $6, ` + columns.Placeholders(7, n) + `)
		RETURNING id, created_at`

	args := []any{o.CardID, o.Title, o.Price, o.BuyerID, o.BuyerName, o.BuyerEmail}
	args = append(args, columns.CardDetailArgs(o.CardDetails)...)

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&o.ID, &o.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) CreateProxyOrder(ctx context.Context, o *models.ProxyOrder) (*models.ProxyOrder, error) {
	query := `INSERT INTO proxy_orders (proxy_id, title, protocol, location, price, buyer_id, buyer_name, buyer_email, ` +
		columns.List(columns.ProxyCredentials, "") + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, ` + columns.Placeholders(9, len(columns.ProxyCredentials)) + `)
		RETURNING id, created_at`

	args := []any{o.ProxyID, o.Title, o.Protocol, o.Location, o.Price, o.BuyerID, o.BuyerName, o.BuyerEmail}
	args = append(args, columns.ProxyArgs(o.ProxyCredentials)...)

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&o.ID, &o.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) CreateOfferOrder(ctx context.Context, o *models.OfferOrder) (*models.OfferOrder, error) {
	cards := o.Cards
	if cards == nil {
		cards = []models.CardDetails{}
	}
	payload, err := json.Marshal(cards)
	if err != nil {
		return nil, fmt.Errorf("marshal cards: %w", err)
	}

	query := `
		INSERT INTO offer_orders (offer_id, title, offer_type, price, quantity, buyer_id, buyer_name, buyer_email, cards)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err = r.db.QueryRowContext(ctx, query, o.OfferID, o.Title, string(o.Type), o.Price, o.Quantity, o.BuyerID, o.BuyerName, o.BuyerEmail, payload).
		Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) ListCardOrders(ctx context.Context, buyerID string) ([]*models.Order, error) {
	return list(ctx, r.db, selectCardOrder+byBuyer, scanCardOrder, buyerID)
}

func (r *PostgresRepository) ListProxyOrders(ctx context.Context, buyerID string) ([]*models.ProxyOrder, error) {
	return list(ctx, r.db, selectProxyOrder+byBuyer, scanProxyOrder, buyerID)
}

func (r *PostgresRepository) ListOfferOrders(ctx context.Context, buyerID string) ([]*models.OfferOrder, error) {
	return list(ctx, r.db, selectOfferOrder+byBuyer, scanOfferOrder, buyerID)
}

func (r *PostgresRepository) GetCardOrder(ctx context.Context, buyerID, id string) (*models.Order, error) {
	if !dbx.ValidID(id) || !dbx.ValidID(buyerID) {
		return nil, common.ErrorNotFound
	}
	return get(r.db.QueryRowContext(ctx, selectCardOrder+byIDBuyer, buyerID, id), scanCardOrder)
}

func (r *PostgresRepository) GetProxyOrder(ctx context.Context, buyerID, id string) (*models.ProxyOrder, error) {
	if !dbx.ValidID(id) || !dbx.ValidID(buyerID) {
		return nil, common.ErrorNotFound
	}
	return get(r.db.QueryRowContext(ctx, selectProxyOrder+byIDBuyer, buyerID, id), scanProxyOrder)
}

func (r *PostgresRepository) GetOfferOrder(ctx context.Context, buyerID, id string) (*models.OfferOrder, error) {
	if !dbx.ValidID(id) || !dbx.ValidID(buyerID) {
		return nil, common.ErrorNotFound
	}
	return get(r.db.QueryRowContext(ctx, selectOfferOrder+byIDBuyer, buyerID, id), scanOfferOrder)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func get[T any](row *sql.Row, scan func(rowScanner) (*T, error)) (*T, error) {
	v, err := scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func list[T any](ctx context.Context, db dbx.DBTX, query string, scan func(rowScanner) (*T, error), args ...any) ([]*T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}
	defer rows.Close()

	var result []*T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanCardOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{}
	details := columns.NewCardDetailScan()

	dest := []any{&o.ID, &o.CardID, &o.Title, &o.Price, &o.BuyerID, &o.BuyerName, &o.BuyerEmail}
	dest = append(dest, details.Dest()...)
	dest = append(dest, &o.CreatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	o.CardDetails = details.CardDetails()
	return o, nil
}

func scanProxyOrder(row rowScanner) (*models.ProxyOrder, error) {
	o := &models.ProxyOrder{}
	creds := columns.NewProxyScan()

	dest := []any{&o.ID, &o.ProxyID, &o.Title, &o.Protocol, &o.Location, &o.Price, &o.BuyerID, &o.BuyerName, &o.BuyerEmail}
	dest = append(dest, creds.Dest()...)
	dest = append(dest, &o.CreatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	o.ProxyCredentials = creds.ProxyCredentials()
	return o, nil
}

func scanOfferOrder(row rowScanner) (*models.OfferOrder, error) {
	o := &models.OfferOrder{}
	var typ string
	var cards []byte

	if err := row.Scan(&o.ID, &o.OfferID, &o.Title, &typ, &o.Price, &o.Quantity, &o.BuyerID, &o.BuyerName, &o.BuyerEmail, &cards, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Type = models.OfferType(typ)
	if len(cards) > 0 {
		if err := json.Unmarshal(cards, &o.Cards); err != nil {
			return nil, fmt.Errorf("unmarshal cards: %w", err)
		}
	}
	return o, nil
}
