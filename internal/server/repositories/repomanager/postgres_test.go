package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/cards"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/offercards"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/offers"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/orders"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/proxies"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	var _ RepositoryManager = NewPostgresRepositoryManager()
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &PostgresRepositoryManager{}

	assert.IsType(t, &users.PostgresRepository{}, m.Users(db))
	assert.IsType(t, &refreshtokens.PostgresRepository{}, m.RefreshTokens(db))
	assert.IsType(t, &cards.PostgresRepository{}, m.Cards(db))
	assert.IsType(t, &proxies.PostgresRepository{}, m.Proxies(db))
	assert.IsType(t, &offers.PostgresRepository{}, m.Offers(db))
	assert.IsType(t, &offercards.PostgresRepository{}, m.OfferCards(db))
	assert.IsType(t, &orders.PostgresRepository{}, m.Orders(db))
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestOpenPostgres(t *testing.T) {
	db, mock := newDB(t)

	orig := sqlOpen
	defer func() { sqlOpen = orig }()

	var gotDriver string
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		gotDriver = driver
		return db, nil
	}

	mock.ExpectPing()
	got, err := OpenPostgres(context.Background(), "postgres://localhost/market")
	require.NoError(t, err)
	assert.Same(t, db, got)
	assert.Equal(t, "pgx", gotDriver)

	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()
	_, err = OpenPostgres(context.Background(), "postgres://localhost/market")
	assert.ErrorContains(t, err, "ping postgres: refused")
}
