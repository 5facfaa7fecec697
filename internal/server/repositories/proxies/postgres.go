package proxies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

var selectProxy = `SELECT id, title, protocol, location, price, ` + columns.List(columns.ProxyCredentials, "") +
	`, for_sale, sold_to_username, sold_to_email, sold_at, created_at FROM proxies`

func (r *PostgresRepository) Create(ctx context.Context, p *models.Proxy) (*models.Proxy, error) {
	query := `INSERT INTO proxies (title, protocol, location, price, ` + columns.List(columns.ProxyCredentials, "") + `, for_sale)
		VALUES ($1, $2, $3, $4, ` + columns.Placeholders(5, len(columns.ProxyCredentials)) + `, $9)
		RETURNING id, created_at`

	args := []any{p.Title, p.Protocol, p.Location, p.Price}
	args = append(args, columns.ProxyArgs(p.ProxyCredentials)...)
	args = append(args, p.ForSale)

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Proxy, error) {
	if !dbx.ValidID(id) {
		return nil, common.ErrorNotFound
	}
	p, err := scanProxy(r.db.QueryRowContext(ctx, selectProxy+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context, f Filter, page models.Page) ([]*models.Proxy, int, error) {
	page = page.Normalize()

	where := ``
	if f.ForSaleOnly {
		where = ` WHERE for_sale`
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM proxies`+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, selectProxy+where+` ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to select proxies: %w", err)
	}
	defer rows.Close()

	var result []*models.Proxy
	for rows.Next() {
		p, err := scanProxy(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PostgresRepository) MarkSold(ctx context.Context, id string, buyer models.Buyer, at time.Time) error {
	query := `
		UPDATE proxies SET for_sale = FALSE, sold_to_username = $2, sold_to_email = $3, sold_at = $4
		WHERE id = $1 AND for_sale
	`
	res, err := r.db.ExecContext(ctx, query, id, buyer.BuyerName, buyer.BuyerEmail, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorAlreadySold
	}
	return nil
}

func (r *PostgresRepository) UpdateCredentials(ctx context.Context, id string, creds models.ProxyCredentials) error {
	query := `UPDATE proxies SET ` + columns.Assignments(columns.ProxyCredentials, 2) + ` WHERE id = $1`

	args := append([]any{id}, columns.ProxyArgs(creds)...)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProxy(row rowScanner) (*models.Proxy, error) {
	p := &models.Proxy{}
	creds := columns.NewProxyScan()
	var soldTo, soldEmail sql.NullString
	var soldAt sql.NullTime

	dest := []any{&p.ID, &p.Title, &p.Protocol, &p.Location, &p.Price}
	dest = append(dest, creds.Dest()...)
	dest = append(dest, &p.ForSale, &soldTo, &soldEmail, &soldAt, &p.CreatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	p.ProxyCredentials = creds.ProxyCredentials()
	p.SoldToUsername = soldTo.String
	p.SoldToEmail = soldEmail.String
	if soldAt.Valid {
		t := soldAt.Time
		p.SoldAt = &t
	}
	return p, nil
}
