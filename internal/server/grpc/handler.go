package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/services"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ MarketServiceServer = (*GRPCServer)(nil)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID               string            `json:"id"`
	Username         string            `json:"username"`
	Email            string            `json:"email,omitempty"`
	Role             string            `json:"role"`
	Status           models.UserStatus `json:"status"`
	Balance          decimal.Decimal   `json:"balance"`
	AccountExpiresAt *time.Time        `json:"accountExpiresAt,omitempty"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:               u.ID,
		Username:         u.UserName,
		Email:            u.Email,
		Role:             u.Role,
		Status:           u.Status,
		Balance:          u.Balance,
		AccountExpiresAt: u.AccountExpiresAt,
	}
}

type pageRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

func (p pageRequest) page() models.Page {
	return models.Page{Offset: p.Offset, Limit: p.Limit}
}

type idRequest struct {
	ID string `json:"id"`
}

type purchaseResponse[R any] struct {
	Balance decimal.Decimal `json:"balance"`
	Receipt R               `json:"receipt"`
}

func purchased[R any](r *services.PurchaseResult[R]) purchaseResponse[R] {
	return purchaseResponse[R]{Balance: r.Balance, Receipt: r.Receipt}
}

type orderRequest struct {
	Kind    services.OrderKind `json:"kind"`
	OrderID string             `json:"orderId"`
}

type cardRequest struct {
	Title   string             `json:"title"`
	Price   decimal.Decimal    `json:"price"`
	Details models.CardDetails `json:"details"`
}

type proxyRequest struct {
	Title       string                  `json:"title"`
	Protocol    string                  `json:"protocol"`
	Location    string                  `json:"location"`
	Price       decimal.Decimal         `json:"price"`
	Credentials models.ProxyCredentials `json:"credentials"`
}

type offerRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Type        models.OfferType `json:"type"`
	Price       decimal.Decimal  `json:"price"`
	Units       int              `json:"units"`
}

type offerActiveRequest struct {
	OfferID string `json:"offerId"`
	Active  bool   `json:"active"`
}

type offerPriceRequest struct {
	OfferID string          `json:"offerId"`
	Price   decimal.Decimal `json:"price"`
}

type offerCardRequest struct {
	OfferID string             `json:"offerId"`
	CardID  string             `json:"cardId"`
	Details models.CardDetails `json:"details"`
}

type offerCardResponse struct {
	Card  *services.OfferCardView `json:"card"`
	Offer *services.OfferView     `json:"offer"`
}

type offerCardsResponse struct {
	Items []services.OfferCardView `json:"items"`
}

type approveRequest struct {
	UserID    string     `json:"userId"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type creditRequest struct {
	UserID string          `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
}

type balanceResponse struct {
	UserID  string          `json:"userId"`
	Balance decimal.Decimal `json:"balance"`
}

type uploadResponse struct {
	UploadURL string `json:"uploadUrl"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// handle decodes the request into Req, runs fn and encodes its result.
func handle[Req, Resp any](s *GRPCServer, ctx context.Context, op string, in *structpb.Struct, fn func(context.Context, Req) (Resp, error)) (*structpb.Struct, error) {
	var req Req
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	resp, err := fn(ctx, req)
	if err != nil {
		return nil, s.toStatus(ctx, op, err)
	}
	return encode(resp)
}

func (s *GRPCServer) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "register", in, func(ctx context.Context, r registerRequest) (userResponse, error) {
		s.logger.Info(ctx, "Registration request", "username", r.Username)
		u, err := s.svc.Accounts.Register(ctx, r.Username, r.Email, r.Password)
		if err != nil {
			return userResponse{}, err
		}
		return newUserResponse(u), nil
	})
}

func (s *GRPCServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "login", in, func(ctx context.Context, r registerRequest) (tokenResponse, error) {
		tokens, err := s.svc.Accounts.Login(ctx, r.Username, r.Password)
		if err != nil {
			return tokenResponse{}, err
		}
		return tokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
	})
}

func (s *GRPCServer) RefreshToken(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "refresh token", in, func(ctx context.Context, r refreshRequest) (tokenResponse, error) {
		tokens, err := s.svc.Accounts.RefreshToken(ctx, r.RefreshToken)
		if err != nil {
			return tokenResponse{}, err
		}
		return tokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
	})
}

func (s *GRPCServer) Profile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "profile", in, func(ctx context.Context, _ struct{}) (userResponse, error) {
		u, err := s.svc.Accounts.Profile(ctx, userIDFrom(ctx))
		if err != nil {
			return userResponse{}, err
		}
		return newUserResponse(u), nil
	})
}

func (s *GRPCServer) ListCards(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "list cards", in, func(ctx context.Context, r pageRequest) (*services.Listing[services.CardPreview], error) {
		return s.svc.Inventory.ListCards(ctx, r.page())
	})
}

func (s *GRPCServer) ListProxies(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "list proxies", in, func(ctx context.Context, r pageRequest) (*services.Listing[services.ProxyPreview], error) {
		return s.svc.Inventory.ListProxies(ctx, r.page())
	})
}

func (s *GRPCServer) ListOffers(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "list offers", in, func(ctx context.Context, r pageRequest) (*services.Listing[services.OfferView], error) {
		return s.svc.Offers.ListOffers(ctx, r.page())
	})
}

func (s *GRPCServer) PurchaseCard(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "purchase card", in, func(ctx context.Context, r idRequest) (purchaseResponse[services.CardReceipt], error) {
		res, err := s.svc.Purchases.PurchaseCard(ctx, userIDFrom(ctx), r.ID)
		if err != nil {
			return purchaseResponse[services.CardReceipt]{}, err
		}
		return purchased(res), nil
	})
}

func (s *GRPCServer) PurchaseProxy(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "purchase proxy", in, func(ctx context.Context, r idRequest) (purchaseResponse[services.ProxyReceipt], error) {
		res, err := s.svc.Purchases.PurchaseProxy(ctx, userIDFrom(ctx), r.ID)
		if err != nil {
			return purchaseResponse[services.ProxyReceipt]{}, err
		}
		return purchased(res), nil
	})
}

func (s *GRPCServer) PurchaseOffer(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "purchase offer", in, func(ctx context.Context, r idRequest) (purchaseResponse[services.OfferReceipt], error) {
		res, err := s.svc.Purchases.PurchaseOffer(ctx, userIDFrom(ctx), r.ID)
		if err != nil {
			return purchaseResponse[services.OfferReceipt]{}, err
		}
		return purchased(res), nil
	})
}

func (s *GRPCServer) ListOrders(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "list orders", in, func(ctx context.Context, _ struct{}) (*services.OrderHistory, error) {
		return s.svc.Orders.ListOrders(ctx, userIDFrom(ctx))
	})
}

func (s *GRPCServer) GetOrder(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "get order", in, func(ctx context.Context, r orderRequest) (any, error) {
		return s.svc.Orders.GetOrder(ctx, userIDFrom(ctx), r.Kind, r.OrderID)
	})
}

func (s *GRPCServer) CreateCard(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "create card", in, func(ctx context.Context, r cardRequest) (*services.CardView, error) {
		return s.svc.Inventory.CreateCard(ctx, services.NewCard{Title: r.Title, Price: r.Price, Details: r.Details})
	})
}

func (s *GRPCServer) CreateProxy(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "create proxy", in, func(ctx context.Context, r proxyRequest) (*services.ProxyView, error) {
		return s.svc.Inventory.CreateProxy(ctx, services.NewProxy{
			Title:       r.Title,
			Protocol:    r.Protocol,
			Location:    r.Location,
			Price:       r.Price,
			Credentials: r.Credentials,
		})
	})
}

func (s *GRPCServer) RequestCardVideoUpload(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "video upload", in, func(ctx context.Context, r idRequest) (uploadResponse, error) {
		url, err := s.svc.Inventory.RequestCardVideoUpload(ctx, r.ID)
		return uploadResponse{UploadURL: url}, err
	})
}

func (s *GRPCServer) AdminListCards(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "admin list cards", in, func(ctx context.Context, r pageRequest) (*services.Listing[services.CardView], error) {
		return s.svc.Inventory.AdminListCards(ctx, r.page())
	})
}

func (s *GRPCServer) AdminListProxies(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "admin list proxies", in, func(ctx context.Context, r pageRequest) (*services.Listing[services.ProxyView], error) {
		return s.svc.Inventory.AdminListProxies(ctx, r.page())
	})
}

func (s *GRPCServer) CreateOffer(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "create offer", in, func(ctx context.Context, r offerRequest) (*services.OfferView, error) {
		return s.svc.Offers.CreateOffer(ctx, services.NewOffer{
			Title:       r.Title,
			Description: r.Description,
			Type:        r.Type,
			Price:       r.Price,
			Units:       r.Units,
		})
	})
}

func (s *GRPCServer) SetOfferActive(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "set offer active", in, func(ctx context.Context, r offerActiveRequest) (*services.OfferView, error) {
		return s.svc.Offers.SetOfferActive(ctx, r.OfferID, r.Active)
	})
}

func (s *GRPCServer) UpdateOfferPrice(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "update offer price", in, func(ctx context.Context, r offerPriceRequest) (*services.OfferView, error) {
		return s.svc.Offers.UpdateOfferPrice(ctx, r.OfferID, r.Price)
	})
}

func (s *GRPCServer) AddOfferCard(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "add offer card", in, func(ctx context.Context, r offerCardRequest) (offerCardResponse, error) {
		card, offer, err := s.svc.Offers.AddOfferCard(ctx, r.OfferID, r.Details)
		return offerCardResponse{Card: card, Offer: offer}, err
	})
}

func (s *GRPCServer) RemoveOfferCard(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "remove offer card", in, func(ctx context.Context, r offerCardRequest) (*services.OfferView, error) {
		return s.svc.Offers.RemoveOfferCard(ctx, r.OfferID, r.CardID)
	})
}

func (s *GRPCServer) AdminListOffers(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "admin list offers", in, func(ctx context.Context, r pageRequest) (*services.Listing[services.OfferView], error) {
		return s.svc.Offers.AdminListOffers(ctx, r.page())
	})
}

func (s *GRPCServer) ListOfferCards(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "list offer cards", in, func(ctx context.Context, r idRequest) (offerCardsResponse, error) {
		items, err := s.svc.Offers.ListOfferCards(ctx, r.ID)
		return offerCardsResponse{Items: items}, err
	})
}

func (s *GRPCServer) ApproveUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "approve user", in, func(ctx context.Context, r approveRequest) (okResponse, error) {
		if err := s.svc.Accounts.Approve(ctx, r.UserID, r.ExpiresAt); err != nil {
			return okResponse{}, err
		}
		return okResponse{OK: true}, nil
	})
}

func (s *GRPCServer) SuspendUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "suspend user", in, func(ctx context.Context, r idRequest) (okResponse, error) {
		if err := s.svc.Accounts.Suspend(ctx, r.ID); err != nil {
			return okResponse{}, err
		}
		return okResponse{OK: true}, nil
	})
}

func (s *GRPCServer) CreditUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(s, ctx, "credit user", in, func(ctx context.Context, r creditRequest) (balanceResponse, error) {
		balance, err := s.svc.Accounts.Credit(ctx, r.UserID, r.Amount)
		return balanceResponse{UserID: r.UserID, Balance: balance}, err
	})
}
