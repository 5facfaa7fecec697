package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/fieldmap"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// PurchaseResult is returned by every purchase: the buyer balance after the
// debit and the plaintext receipt.
type PurchaseResult[R any] struct {
	Balance decimal.Decimal
	Receipt R
}

// lot is what the precondition checks need to know about a sellable item.
type lot struct {
	ID         string
	Title      string
	Price      decimal.Decimal
	Active     bool
	SingleSale bool
	ForSale    bool
}

// kind plugs one sellable kind into the purchase workflow. Both hooks run
// inside the purchase transaction: load before the precondition checks,
// settle after the debit.
type kind[R any] struct {
	name   string
	id     string
	load   func(ctx context.Context, tx dbx.DBTX) (lot, error)
	settle func(ctx context.Context, tx dbx.DBTX, buyer models.Buyer, at time.Time) (R, error)
}

// PurchaseService sells cards, proxies and offers to approved buyers.
type PurchaseService struct {
	tx     dbx.Transactor
	rm     repomanager.RepositoryManager
	mapper *fieldmap.Mapper
	log    logging.Logger
	now    func() time.Time
}

func NewPurchaseService(tx dbx.Transactor, rm repomanager.RepositoryManager, mapper *fieldmap.Mapper, log logging.Logger) *PurchaseService {
	return &PurchaseService{
		tx:     tx,
		rm:     rm,
		mapper: mapper,
		log:    log.With("module", "purchase"),
		now:    time.Now,
	}
}

// PurchaseCard buys a single card.
func (s *PurchaseService) PurchaseCard(ctx context.Context, userID, cardID string) (*PurchaseResult[CardReceipt], error) {
	var card *models.Card

	return purchase(ctx, s, userID, kind[CardReceipt]{
		name: "card",
		id:   cardID,
		load: func(ctx context.Context, tx dbx.DBTX) (lot, error) {
			var err error
			if card, err = s.rm.Cards(tx).GetByID(ctx, cardID); err != nil {
				return lot{}, err
			}
			return lot{ID: card.ID, Title: card.Title, Price: card.Price, Active: true, SingleSale: true, ForSale: card.ForSale}, nil
		},
		settle: func(ctx context.Context, tx dbx.DBTX, buyer models.Buyer, at time.Time) (CardReceipt, error) {
			if err := s.rm.Cards(tx).MarkSold(ctx, card.ID, buyer, at); err != nil {
				return CardReceipt{}, err
			}
			details, err := s.mapper.SealCard(s.mapper.OpenCard(card.CardDetails))
			if err != nil {
				return CardReceipt{}, err
			}
			order, err := s.rm.Orders(tx).CreateCardOrder(ctx, &models.Order{
				CardID:      card.ID,
				Title:       card.Title,
				Price:       card.Price,
				Buyer:       buyer,
				CardDetails: details,
			})
			if err != nil {
				return CardReceipt{}, err
			}
			return ProjectCardOrder(s.mapper, order), nil
		},
	})
}

// PurchaseProxy buys a single proxy.
func (s *PurchaseService) PurchaseProxy(ctx context.Context, userID, proxyID string) (*PurchaseResult[ProxyReceipt], error) {
	var proxy *models.Proxy

	return purchase(ctx, s, userID, kind[ProxyReceipt]{
		name: "proxy",
		id:   proxyID,
		load: func(ctx context.Context, tx dbx.DBTX) (lot, error) {
			var err error
			if proxy, err = s.rm.Proxies(tx).GetByID(ctx, proxyID); err != nil {
				return lot{}, err
			}
			return lot{ID: proxy.ID, Title: proxy.Title, Price: proxy.Price, Active: true, SingleSale: true, ForSale: proxy.ForSale}, nil
		},
		settle: func(ctx context.Context, tx dbx.DBTX, buyer models.Buyer, at time.Time) (ProxyReceipt, error) {
			if err := s.rm.Proxies(tx).MarkSold(ctx, proxy.ID, buyer, at); err != nil {
				return ProxyReceipt{}, err
			}
			creds, err := s.mapper.SealProxy(s.mapper.OpenProxy(proxy.ProxyCredentials))
			if err != nil {
				return ProxyReceipt{}, err
			}
			order, err := s.rm.Orders(tx).CreateProxyOrder(ctx, &models.ProxyOrder{
				ProxyID:          proxy.ID,
				Title:            proxy.Title,
				Protocol:         proxy.Protocol,
				Location:         proxy.Location,
				Price:            proxy.Price,
				Buyer:            buyer,
				ProxyCredentials: creds,
			})
			if err != nil {
				return ProxyReceipt{}, err
			}
			return ProjectProxyOrder(s.mapper, order), nil
		},
	})
}

// PurchaseOffer buys an offer bundle. A CARD offer unlocks every card row it
// holds at purchase time, whatever its stored card count says; a PROXY offer
// unlocks its declared number of units.
func (s *PurchaseService) PurchaseOffer(ctx context.Context, userID, offerID string) (*PurchaseResult[OfferReceipt], error) {
	var offer *models.Offer

	return purchase(ctx, s, userID, kind[OfferReceipt]{
		name: "offer",
		id:   offerID,
		load: func(ctx context.Context, tx dbx.DBTX) (lot, error) {
			var err error
			if offer, err = s.rm.Offers(tx).GetForUpdate(ctx, offerID); err != nil {
				return lot{}, err
			}
			return lot{ID: offer.ID, Title: offer.Title, Price: offer.Price, Active: offer.IsActive}, nil
		},
		settle: func(ctx context.Context, tx dbx.DBTX, buyer models.Buyer, at time.Time) (OfferReceipt, error) {
			order := &models.OfferOrder{
				OfferID: offer.ID,
				Title:   offer.Title,
				Type:    offer.Type,
				Price:   offer.Price,
				Buyer:   buyer,
			}

			switch offer.Type {
			case models.OfferTypeCard:
				rows, err := s.rm.OfferCards(tx).ListByOffer(ctx, offer.ID)
				if err != nil {
					return OfferReceipt{}, err
				}
				if len(rows) == 0 {
					return OfferReceipt{}, fmt.Errorf("offer %s has no cards: %w", offer.ID, common.ErrorNoInventory)
				}
				order.Cards = make([]models.CardDetails, len(rows))
				for i, r := range rows {
					order.Cards[i] = s.mapper.OpenCard(r.CardDetails)
				}
				order.Quantity = len(rows)
			case models.OfferTypeProxy:
				order.Quantity = offer.CardCount
			default:
				return OfferReceipt{}, fmt.Errorf("unknown offer type %q", offer.Type)
			}

			created, err := s.rm.Orders(tx).CreateOfferOrder(ctx, order)
			if err != nil {
				return OfferReceipt{}, err
			}
			return ProjectOfferOrder(created), nil
		},
	})
}

func purchase[R any](ctx context.Context, s *PurchaseService, userID string, k kind[R]) (*PurchaseResult[R], error) {
	res, err := runPurchase(ctx, s, userID, k)
	if err != nil {
		return nil, settleError(ctx, s.log, "purchase "+k.name, err, "user_id", userID, "item_id", k.id)
	}
	s.log.Info(ctx, "purchase completed", "kind", k.name, "user_id", userID, "item_id", k.id)
	return res, nil
}

// runPurchase checks the preconditions and settles in one transaction. The
// buyer and offer rows are locked while the checks run, so an admin change
// to either cannot slip between the check and the debit.
func runPurchase[R any](ctx context.Context, s *PurchaseService, userID string, k kind[R]) (*PurchaseResult[R], error) {
	now := s.now()
	res := &PurchaseResult[R]{}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.rm.Users(tx).GetForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("user %s: %w", userID, common.ErrorNotFound)
			}
			return err
		}

		item, err := k.load(ctx, tx)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%s %s: %w", k.name, k.id, common.ErrorNotFound)
			}
			return err
		}

		if err := checkPreconditions(k.name, user, item, now); err != nil {
			return err
		}

		balance, err := s.rm.Users(tx).Debit(ctx, user.ID, item.Price)
		if err != nil {
			return err
		}
		buyer := models.Buyer{BuyerID: user.ID, BuyerName: user.UserName, BuyerEmail: user.Email}
		receipt, err := k.settle(ctx, tx, buyer, now)
		if err != nil {
			return err
		}
		res.Balance = balance
		res.Receipt = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// checkPreconditions applies the purchase rules in order; the first failing
// rule decides the error.
func checkPreconditions(name string, user *models.User, item lot, now time.Time) error {
	switch {
	case !item.Active:
		return fmt.Errorf("%s %s is not active: %w", name, item.ID, common.ErrorInvalidState)
	case user.Status != models.UserStatusApproved:
		return fmt.Errorf("account is not approved: %w", common.ErrorForbidden)
	case user.Expired(now):
		return fmt.Errorf("account expired: %w", common.ErrorForbidden)
	case item.SingleSale && !item.ForSale:
		return fmt.Errorf("%s %s: %w", name, item.ID, common.ErrorAlreadySold)
	case user.Balance.LessThan(item.Price):
		return fmt.Errorf("required %s, available %s: %w",
			item.Price.StringFixed(2), user.Balance.StringFixed(2), common.ErrorInsufficientFunds)
	}
	return nil
}
