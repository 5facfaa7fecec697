package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/services"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

type Accounts interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Approve(ctx context.Context, userID string, expiresAt *time.Time) error
	Suspend(ctx context.Context, userID string) error
	Credit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
}

type Inventory interface {
	CreateCard(ctx context.Context, in services.NewCard) (*services.CardView, error)
	CreateProxy(ctx context.Context, in services.NewProxy) (*services.ProxyView, error)
	ListCards(ctx context.Context, page models.Page) (*services.Listing[services.CardPreview], error)
	AdminListCards(ctx context.Context, page models.Page) (*services.Listing[services.CardView], error)
	ListProxies(ctx context.Context, page models.Page) (*services.Listing[services.ProxyPreview], error)
	AdminListProxies(ctx context.Context, page models.Page) (*services.Listing[services.ProxyView], error)
	RequestCardVideoUpload(ctx context.Context, cardID string) (string, error)
}

type Offers interface {
	CreateOffer(ctx context.Context, in services.NewOffer) (*services.OfferView, error)
	SetOfferActive(ctx context.Context, offerID string, active bool) (*services.OfferView, error)
	UpdateOfferPrice(ctx context.Context, offerID string, price decimal.Decimal) (*services.OfferView, error)
	AddOfferCard(ctx context.Context, offerID string, details models.CardDetails) (*services.OfferCardView, *services.OfferView, error)
	RemoveOfferCard(ctx context.Context, offerID, cardID string) (*services.OfferView, error)
	ListOffers(ctx context.Context, page models.Page) (*services.Listing[services.OfferView], error)
	AdminListOffers(ctx context.Context, page models.Page) (*services.Listing[services.OfferView], error)
	ListOfferCards(ctx context.Context, offerID string) ([]services.OfferCardView, error)
}

type Purchases interface {
	PurchaseCard(ctx context.Context, userID, cardID string) (*services.PurchaseResult[services.CardReceipt], error)
	PurchaseProxy(ctx context.Context, userID, proxyID string) (*services.PurchaseResult[services.ProxyReceipt], error)
	PurchaseOffer(ctx context.Context, userID, offerID string) (*services.PurchaseResult[services.OfferReceipt], error)
}

type Orders interface {
	ListOrders(ctx context.Context, userID string) (*services.OrderHistory, error)
	GetOrder(ctx context.Context, userID string, kind services.OrderKind, orderID string) (any, error)
}

// Services groups the backends the transport dispatches to.
type Services struct {
	Accounts  Accounts
	Inventory Inventory
	Offers    Offers
	Purchases Purchases
	Orders    Orders
}

type GRPCServer struct {
	address   string
	svc       Services
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, svc Services, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		svc:       svc,
		jwtSecret: []byte(secretKey),
	}
}

// newServer builds a grpc.Server with the interceptor chain and the market
// service registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoverInterceptor, s.accessTokenInterceptor))
	srv.RegisterService(&marketServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
