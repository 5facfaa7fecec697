package offercards

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/columns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func offerCardRows() *sqlmock.Rows {
	cols := append([]string{"id", "offer_id"}, columns.CardDetails...)
	return sqlmock.NewRows(append(cols, "created_at"))
}

func offerCardRow(id, offerID, bank string) []driver.Value {
	row := []driver.Value{id, offerID}
	for _, c := range columns.CardDetails {
		if c == "bank" {
			row = append(row, bank)
			continue
		}
		row = append(row, nil)
	}
	return append(row, time.Now())
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+offer_cards\s*\(offer_id,\s*card_number,.*VALUES\s*\(\$1,\s*\$2,.*\$21\)\s*RETURNING\s+id,\s*created_at$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("oc-1", time.Now()))

	got, err := repo.Create(context.Background(), &models.OfferCard{OfferID: "o-1", CardDetails: models.CardDetails{Bank: "enc"}})
	require.NoError(t, err)
	assert.Equal(t, "oc-1", got.ID)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `^DELETE FROM offer_cards WHERE id = \$1 AND offer_id = \$2$`
	mock.ExpectExec(q).WithArgs("0b5c7f3e-8d21-4c1a-9e6f-2a3b4c5d6e7f", "o-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("0b5c7f3e-8d21-4c1a-9e6f-2a3b4c5d6e7f", "o-2").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "o-1", "0b5c7f3e-8d21-4c1a-9e6f-2a3b4c5d6e7f"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "o-2", "0b5c7f3e-8d21-4c1a-9e6f-2a3b4c5d6e7f"), common.ErrorNotFound)

	assert.ErrorIs(t, repo.Delete(context.Background(), "o-1", "row-7"), common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByOffer(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^SELECT count\(\*\) FROM offer_cards WHERE offer_id = \$1$`).
		WithArgs("o-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`count`).WithArgs("o-2").WillReturnError(errors.New("boom"))

	n, err := repo.CountByOffer(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = repo.CountByOffer(context.Background(), "o-2")
	assert.ErrorContains(t, err, "boom")
}

func TestListByOffer(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM\s+offer_cards\s+WHERE\s+offer_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at,\s*id$`).
		WithArgs("o-1").
		WillReturnRows(offerCardRows().
			AddRow(offerCardRow("oc-1", "o-1", "Chase")...).
			AddRow(offerCardRow("oc-2", "o-1", "Citi")...))

	got, err := repo.ListByOffer(context.Background(), "o-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Chase", got[0].Bank)
	assert.Equal(t, "", got[0].CVV)
	assert.Equal(t, "o-1", got[1].OfferID)
}

func TestUpdateDetails_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^UPDATE\s+offer_cards\s+SET\s+card_number\s*=\s*\$2`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateDetails(context.Background(), "ghost", models.CardDetails{})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
