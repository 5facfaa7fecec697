// Package cards provides the PostgreSQL-backed card inventory repository.
// Card payload columns are stored as written; callers seal and open them
// with the field mapper.
package cards

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

// PostgresRepository implements card storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var selectCard = `SELECT id, title, price, ` + columns.List(columns.CardDetails, "") +
	`, for_sale, sold_to_username, sold_to_email, sold_at, created_at FROM cards`

// Create inserts a card and fills its ID and CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, card *models.Card) (*models.Card, error) {
	n := len(columns.CardDetails)
	query := `INSERT INTO cards (title, price, ` + columns.List(columns.CardDetails, "") + `, for_sale)
		VALUES ($1, $2, ` + columns.Placeholders(3, n) + fmt.Sprintf(`, $%d)`, 3+n) + `
		RETURNING id, created_at`

	args := []any{card.Title, card.Price}
	args = append(args, columns.CardDetailArgs(card.CardDetails)...)
	args = append(args, card.ForSale)

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&card.ID, &card.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return card, nil
}

// GetByID returns the card or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Card, error) {
	if !dbx.ValidID(id) {
		return nil, common.ErrorNotFound
	}
	card, err := scanCard(r.db.QueryRowContext(ctx, selectCard+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return card, nil
}

// List returns one page of cards, newest first, and the total match count.
func (r *PostgresRepository) List(ctx context.Context, f Filter, page models.Page) ([]*models.Card, int, error) {
	page = page.Normalize()

	where := ``
	if f.ForSaleOnly {
		where = ` WHERE for_sale`
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM cards`+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, selectCard+where+` ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to select cards: %w", err)
	}
	defer rows.Close()

	var result []*models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, card)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

// MarkSold implements Repository.
func (r *PostgresRepository) MarkSold(ctx context.Context, id string, buyer models.Buyer, at time.Time) error {
	query := `
		UPDATE cards SET for_sale = FALSE, sold_to_username = $2, sold_to_email = $3, sold_at = $4
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
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorAlreadySold
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// UpdateDetails rewrites the payload columns of a card.
func (r *PostgresRepository) UpdateDetails(ctx context.Context, id string, details models.CardDetails) error {
	query := `UPDATE cards SET ` + columns.Assignments(columns.CardDetails, 2) + ` WHERE id = $1`

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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*models.Card, error) {
	card := &models.Card{}
	details := columns.NewCardDetailScan()
	var soldTo, soldEmail sql.NullString
	var soldAt sql.NullTime

	dest := []any{&card.ID, &card.Title, &card.Price}
	dest = append(dest, details.Dest()...)
	dest = append(dest, &card.ForSale, &soldTo, &soldEmail, &soldAt, &card.CreatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	card.CardDetails = details.CardDetails()
	card.SoldToUsername = soldTo.String
	card.SoldToEmail = soldEmail.String
	if soldAt.Valid {
		t := soldAt.Time
		card.SoldAt = &t
	}
	return card, nil
}
