// Package server initializes and runs the marketplace server. It opens the
// configured storage backend, wires the services and serves them over gRPC
// until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/config"
	"github.com/dmitrijs2005/gophmarket/internal/server/services"

	gs "github.com/dmitrijs2005/gophmarket/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	storage  *Storage
	services gs.Services
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := NewLogger(c.LogLevel)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	mapper, err := NewMapper(c, logger)
	if err != nil {
		return nil, err
	}

	st, err := OpenStorage(ctx, c)
	if err != nil {
		return nil, err
	}
	db := st.DBTX()

	var videos services.VideoLinks
	if c.S3Bucket != "" && c.S3BaseEndpoint != "" {
		videos = services.NewMediaService(c)
	}

	accounts := services.NewUserService(db, st.Tx, st.RM, c, logger)
	if c.AdminUserName != "" {
		if err := accounts.EnsureAdmin(ctx, c.AdminUserName, c.AdminPassword); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("admin init error: %w", err)
		}
	}

	svc := gs.Services{
		Accounts:  accounts,
		Inventory: services.NewInventoryService(db, st.RM, mapper, videos, logger),
		Offers:    services.NewOfferService(db, st.Tx, st.RM, mapper, logger),
		Purchases: services.NewPurchaseService(st.Tx, st.RM, mapper, logger),
		Orders:    services.NewOrderService(db, st.RM, mapper, videos, logger),
	}

	logger.Info(ctx, "storage ready", "backend", c.StorageBackend, "media", videos != nil)

	return &App{config: c, logger: logger, storage: st, services: svc}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.services, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.storage.Close(); err != nil {
		app.logger.Error(ctx, "closing storage", "error", err)
	}
}
