package offercards

import (
	"context"
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

var selectOfferCard = `SELECT id, offer_id, ` + columns.List(columns.CardDetails, "") + `, created_at FROM offer_cards`

func (r *PostgresRepository) Create(ctx context.Context, c *models.OfferCard) (*models.OfferCard, error) {
	n := len(columns.CardDetails)
	query := `INSERT INTO offer_cards (offer_id, ` + columns.List(columns.CardDetails, "") + `)
		VALUES ($1, ` + columns.Placeholders(2, n) + `)
		RETURNING id, created_at`

	args := append([]any{c.OfferID}, columns.CardDetailArgs(c.CardDetails)...)
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, offerID, id string) error {
	if !dbx.ValidID(id) {
		return common.ErrorNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM offer_cards WHERE id = $1 AND offer_id = $2`, id, offerID)
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

func (r *PostgresRepository) CountByOffer(ctx context.Context, offerID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM offer_cards WHERE offer_id = $1`, offerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListByOffer(ctx context.Context, offerID string) ([]*models.OfferCard, error) {
	return r.list(ctx, selectOfferCard+` WHERE offer_id = $1 ORDER BY created_at, id`, offerID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.OfferCard, error) {
	return r.list(ctx, selectOfferCard+` ORDER BY created_at, id`)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.OfferCard, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select offer cards: %w", err)
	}
	defer rows.Close()

	var result []*models.OfferCard
	for rows.Next() {
		c := &models.OfferCard{}
		details := columns.NewCardDetailScan()

		dest := append([]any{&c.ID, &c.OfferID}, details.Dest()...)
		dest = append(dest, &c.CreatedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		c.CardDetails = details.CardDetails()
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) UpdateDetails(ctx context.Context, id string, details models.CardDetails) error {
	query := `UPDATE offer_cards SET ` + columns.Assignments(columns.CardDetails, 2) + ` WHERE id = $1`

	args := append([]any{id}, columns.CardDetailArgs(details)...)
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
