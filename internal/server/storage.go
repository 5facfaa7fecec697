package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophmarket/internal/cryptox"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/fieldmap"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/config"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/repomanager"
)

// Storage is an opened backend. DB is nil for the in-memory backend.
type Storage struct {
	DB *sql.DB
	RM repomanager.RepositoryManager
	Tx dbx.Transactor
}

// DBTX returns the handle repositories run on outside a transaction.
func (s *Storage) DBTX() dbx.DBTX {
	if s.DB == nil {
		return nil
	}
	return s.DB
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// seam for tests
var openPostgres = repomanager.OpenPostgres

// OpenStorage opens the configured backend. Postgres migrations are applied
// before it is returned.
func OpenStorage(ctx context.Context, c *config.Config) (*Storage, error) {
	switch c.StorageBackend {
	case config.StorageMemory:
		rm, tx := repomanager.NewInMemoryRepositoryManager()
		return &Storage{RM: rm, Tx: tx}, nil

	case config.StoragePostgres:
		db, err := openPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		return &Storage{DB: db, RM: rm, Tx: dbx.NewSQLTransactor(db, nil)}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

// NewLogger returns the JSON stdout logger. An unknown level falls back to
// info; Config.Validate reports it.
func NewLogger(level string) logging.Logger {
	l, _ := logging.ParseLevel(level)
	return logging.NewJSONLogger(os.Stdout, l)
}

// NewMapper builds the field mapper for the configured key. Values that look
// like envelopes but do not open are logged without their content.
func NewMapper(c *config.Config, logger logging.Logger) (*fieldmap.Mapper, error) {
	codec, err := c.NewCodec()
	if err != nil {
		return nil, fmt.Errorf("codec init error: %w", err)
	}
	log := logger.With("module", "fieldmap")
	return fieldmap.New(codec, func(record, field string, res cryptox.Result) {
		log.Warn(context.Background(), "stored value does not decrypt",
			"record", record, "field", field, "outcome", res.Outcome.String(), "error", res.Err)
	}), nil
}
