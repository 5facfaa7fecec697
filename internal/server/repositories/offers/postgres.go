package offers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectOffer = `
	SELECT id, title, description, offer_type, price, card_count, avg_price_per_card, is_active, created_at, updated_at
	FROM offers`

func (r *PostgresRepository) Create(ctx context.Context, o *models.Offer) (*models.Offer, error) {
	query := `
		INSERT INTO offers (title, description, offer_type, price, card_count, avg_price_per_card, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, o.Title, o.Description, string(o.Type), o.Price, o.CardCount, o.AvgPricePerCard, o.IsActive).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Offer, error) {
	return r.get(ctx, selectOffer+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Offer, error) {
	return r.get(ctx, selectOffer+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*models.Offer, error) {
	if !dbx.ValidID(id) {
		return nil, common.ErrorNotFound
	}
	o, err := scanOffer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) List(ctx context.Context, activeOnly bool, page models.Page) ([]*models.Offer, int, error) {
	page = page.Normalize()

	where := ``
	if activeOnly {
		where = ` WHERE is_active`
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM offers`+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, selectOffer+where+` ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to select offers: %w", err)
	}
	defer rows.Close()

	var result []*models.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PostgresRepository) Update(ctx context.Context, o *models.Offer) error {
	query := `
		UPDATE offers
		SET title = $2, description = $3, price = $4, card_count = $5, avg_price_per_card = $6, is_active = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, o.ID, o.Title, o.Description, o.Price, o.CardCount, o.AvgPricePerCard, o.IsActive).
		Scan(&o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffer(row rowScanner) (*models.Offer, error) {
	o := &models.Offer{}
	var typ string
	if err := row.Scan(&o.ID, &o.Title, &o.Description, &typ, &o.Price, &o.CardCount, &o.AvgPricePerCard, &o.IsActive, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Type = models.OfferType(typ)
	return o, nil
}
