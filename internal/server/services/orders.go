package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/fieldmap"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/repomanager"
)

// OrderKind selects one of the three receipt tables.
type OrderKind string

const (
	OrderKindCard  OrderKind = "card"
	OrderKindProxy OrderKind = "proxy"
	OrderKindOffer OrderKind = "offer"
)

// OrderHistory holds every receipt of a buyer, newest first per kind.
type OrderHistory struct {
	Cards   []CardReceipt  `json:"cards"`
	Proxies []ProxyReceipt `json:"proxies"`
	Offers  []OfferReceipt `json:"offers"`
}

// OrderService reads purchase receipts back for their buyer.
type OrderService struct {
	db     dbx.DBTX
	rm     repomanager.RepositoryManager
	mapper *fieldmap.Mapper
	videos VideoLinks
	log    logging.Logger
}

func NewOrderService(db dbx.DBTX, rm repomanager.RepositoryManager, mapper *fieldmap.Mapper, videos VideoLinks, log logging.Logger) *OrderService {
	return &OrderService{db: db, rm: rm, mapper: mapper, videos: videos, log: log.With("module", "orders")}
}

func (s *OrderService) ListOrders(ctx context.Context, userID string) (*OrderHistory, error) {
	repo := s.rm.Orders(s.db)

	cardOrders, err := repo.ListCardOrders(ctx, userID)
	if err != nil {
		return nil, settleError(ctx, s.log, "list orders", err, "user_id", userID)
	}
	proxyOrders, err := repo.ListProxyOrders(ctx, userID)
	if err != nil {
		return nil, settleError(ctx, s.log, "list orders", err, "user_id", userID)
	}
	offerOrders, err := repo.ListOfferOrders(ctx, userID)
	if err != nil {
		return nil, settleError(ctx, s.log, "list orders", err, "user_id", userID)
	}

	h := &OrderHistory{
		Cards:   make([]CardReceipt, len(cardOrders)),
		Proxies: make([]ProxyReceipt, len(proxyOrders)),
		Offers:  make([]OfferReceipt, len(offerOrders)),
	}
	for i, o := range cardOrders {
		h.Cards[i] = s.cardReceipt(ctx, ProjectCardOrder(s.mapper, o))
	}
	for i, o := range proxyOrders {
		h.Proxies[i] = ProjectProxyOrder(s.mapper, o)
	}
	for i, o := range offerOrders {
		h.Offers[i] = ProjectOfferOrder(o)
	}
	return h, nil
}

// GetOrder returns one receipt of the buyer: a CardReceipt, ProxyReceipt or
// OfferReceipt depending on kind.
func (s *OrderService) GetOrder(ctx context.Context, userID string, kind OrderKind, orderID string) (any, error) {
	repo := s.rm.Orders(s.db)

	var (
		receipt any
		err     error
	)
	switch kind {
	case OrderKindCard:
		o, e := repo.GetCardOrder(ctx, userID, orderID)
		if err = e; err == nil {
			receipt = s.cardReceipt(ctx, ProjectCardOrder(s.mapper, o))
		}
	case OrderKindProxy:
		o, e := repo.GetProxyOrder(ctx, userID, orderID)
		if err = e; err == nil {
			receipt = ProjectProxyOrder(s.mapper, o)
		}
	case OrderKindOffer:
		o, e := repo.GetOfferOrder(ctx, userID, orderID)
		if err = e; err == nil {
			receipt = ProjectOfferOrder(o)
		}
	default:
		return nil, fmt.Errorf("unknown order kind %q: %w", kind, common.ErrorValidation)
	}
	if err != nil {
		return nil, settleError(ctx, s.log, "get order", err, "user_id", userID, "order_id", orderID)
	}
	return receipt, nil
}

func (s *OrderService) cardReceipt(ctx context.Context, r CardReceipt) CardReceipt {
	r.Card.VideoLink = resolveVideo(ctx, s.videos, s.log, r.Card.VideoLink)
	return r
}
