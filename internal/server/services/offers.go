package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/fieldmap"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

type OfferView struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	Type            models.OfferType `json:"type"`
	Price           decimal.Decimal  `json:"price"`
	CardCount       int              `json:"cardCount"`
	AvgPricePerCard decimal.Decimal  `json:"avgPricePerCard"`
	IsActive        bool             `json:"isActive"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

type OfferCardView struct {
	ID        string             `json:"id"`
	OfferID   string             `json:"offerId"`
	Details   models.CardDetails `json:"details"`
	CreatedAt time.Time          `json:"createdAt"`
}

// NewOffer is the administrator input for an offer. Units is the number of
// proxy units of a PROXY offer and is ignored for CARD offers, whose count
// follows their card rows.
type NewOffer struct {
	Title       string
	Description string
	Type        models.OfferType
	Price       decimal.Decimal
	Units       int
}

// OfferService maintains offer bundles and their card rows.
type OfferService struct {
	db     dbx.DBTX
	tx     dbx.Transactor
	rm     repomanager.RepositoryManager
	mapper *fieldmap.Mapper
	log    logging.Logger
}

func NewOfferService(db dbx.DBTX, tx dbx.Transactor, rm repomanager.RepositoryManager, mapper *fieldmap.Mapper, log logging.Logger) *OfferService {
	return &OfferService{db: db, tx: tx, rm: rm, mapper: mapper, log: log.With("module", "offers")}
}

func (s *OfferService) CreateOffer(ctx context.Context, in NewOffer) (*OfferView, error) {
	if err := validateListing(in.Title, in.Price); err != nil {
		return nil, err
	}

	offer := &models.Offer{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Type:        in.Type,
		Price:       in.Price,
		IsActive:    true,
	}
	switch in.Type {
	case models.OfferTypeCard:
	case models.OfferTypeProxy:
		if in.Units <= 0 {
			return nil, fmt.Errorf("proxy offer needs a positive unit count: %w", common.ErrorValidation)
		}
		offer.CardCount = in.Units
	default:
		return nil, fmt.Errorf("unknown offer type %q: %w", in.Type, common.ErrorValidation)
	}
	offer.RecomputeAverage()

	created, err := s.rm.Offers(s.db).Create(ctx, offer)
	if err != nil {
		return nil, settleError(ctx, s.log, "create offer", err)
	}
	s.log.Info(ctx, "offer created", "offer_id", created.ID, "type", string(created.Type))

	v := offerView(created)
	return &v, nil
}

// SetOfferActive opens or closes the offer for purchases.
func (s *OfferService) SetOfferActive(ctx context.Context, offerID string, active bool) (*OfferView, error) {
	return s.modify(ctx, "set offer active", offerID, func(o *models.Offer) error {
		o.IsActive = active
		return nil
	})
}

// UpdateOfferPrice changes the price and the derived per-card average.
func (s *OfferService) UpdateOfferPrice(ctx context.Context, offerID string, price decimal.Decimal) (*OfferView, error) {
	if price.IsNegative() {
		return nil, fmt.Errorf("price must not be negative: %w", common.ErrorValidation)
	}
	return s.modify(ctx, "update offer price", offerID, func(o *models.Offer) error {
		o.Price = price
		o.RecomputeAverage()
		return nil
	})
}

// AddOfferCard appends a card row to a CARD offer. The offer row stays
// locked from the capacity check until the new count is written, so
// concurrent adds cannot push the offer past models.MaxOfferCards.
func (s *OfferService) AddOfferCard(ctx context.Context, offerID string, details models.CardDetails) (*OfferCardView, *OfferView, error) {
	var card *models.OfferCard
	var offer *models.Offer

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if offer, err = s.rm.Offers(tx).GetForUpdate(ctx, offerID); err != nil {
			return err
		}
		if offer.Type != models.OfferTypeCard {
			return fmt.Errorf("offer %s holds proxies: %w", offerID, common.ErrorInvalidState)
		}

		cardsRepo := s.rm.OfferCards(tx)
		n, err := cardsRepo.CountByOffer(ctx, offerID)
		if err != nil {
			return err
		}
		if n >= models.MaxOfferCards {
			return fmt.Errorf("offer %s already holds %d cards: %w", offerID, n, common.ErrorCapacityExceeded)
		}

		sealed, err := s.mapper.SealCard(details)
		if err != nil {
			return err
		}
		if card, err = cardsRepo.Create(ctx, &models.OfferCard{OfferID: offerID, CardDetails: sealed}); err != nil {
			return err
		}
		return s.recount(ctx, tx, offer)
	})
	if err != nil {
		return nil, nil, settleError(ctx, s.log, "add offer card", err, "offer_id", offerID)
	}
	s.log.Info(ctx, "offer card added", "offer_id", offerID, "card_count", offer.CardCount)

	cv := s.offerCardView(card)
	ov := offerView(offer)
	return &cv, &ov, nil
}

// RemoveOfferCard deletes one card row of the offer.
func (s *OfferService) RemoveOfferCard(ctx context.Context, offerID, cardID string) (*OfferView, error) {
	var offer *models.Offer

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if offer, err = s.rm.Offers(tx).GetForUpdate(ctx, offerID); err != nil {
			return err
		}
		if err := s.rm.OfferCards(tx).Delete(ctx, offerID, cardID); err != nil {
			return err
		}
		return s.recount(ctx, tx, offer)
	})
	if err != nil {
		return nil, settleError(ctx, s.log, "remove offer card", err, "offer_id", offerID, "card_id", cardID)
	}
	s.log.Info(ctx, "offer card removed", "offer_id", offerID, "card_count", offer.CardCount)

	v := offerView(offer)
	return &v, nil
}

// ListOffers returns active offers, newest first.
func (s *OfferService) ListOffers(ctx context.Context, page models.Page) (*Listing[OfferView], error) {
	return s.list(ctx, true, page)
}

// AdminListOffers returns every offer.
func (s *OfferService) AdminListOffers(ctx context.Context, page models.Page) (*Listing[OfferView], error) {
	return s.list(ctx, false, page)
}

// ListOfferCards returns the decrypted card rows of an offer, oldest first.
func (s *OfferService) ListOfferCards(ctx context.Context, offerID string) ([]OfferCardView, error) {
	if _, err := s.rm.Offers(s.db).GetByID(ctx, offerID); err != nil {
		return nil, settleError(ctx, s.log, "list offer cards", err, "offer_id", offerID)
	}
	rows, err := s.rm.OfferCards(s.db).ListByOffer(ctx, offerID)
	if err != nil {
		return nil, settleError(ctx, s.log, "list offer cards", err, "offer_id", offerID)
	}
	out := make([]OfferCardView, len(rows))
	for i, r := range rows {
		out[i] = s.offerCardView(r)
	}
	return out, nil
}

func (s *OfferService) list(ctx context.Context, activeOnly bool, page models.Page) (*Listing[OfferView], error) {
	items, total, err := s.rm.Offers(s.db).List(ctx, activeOnly, page)
	if err != nil {
		return nil, settleError(ctx, s.log, "list offers", err)
	}
	out := &Listing[OfferView]{Items: make([]OfferView, len(items)), Total: total}
	for i, o := range items {
		out.Items[i] = offerView(o)
	}
	return out, nil
}

func (s *OfferService) modify(ctx context.Context, op, offerID string, fn func(*models.Offer) error) (*OfferView, error) {
	var offer *models.Offer

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.rm.Offers(tx)
		var err error
		if offer, err = repo.GetForUpdate(ctx, offerID); err != nil {
			return err
		}
		if err := fn(offer); err != nil {
			return err
		}
		return repo.Update(ctx, offer)
	})
	if err != nil {
		return nil, settleError(ctx, s.log, op, err, "offer_id", offerID)
	}

	v := offerView(offer)
	return &v, nil
}

// recount sets the card count of a CARD offer from its live rows.
func (s *OfferService) recount(ctx context.Context, tx dbx.DBTX, offer *models.Offer) error {
	n, err := s.rm.OfferCards(tx).CountByOffer(ctx, offer.ID)
	if err != nil {
		return err
	}
	offer.CardCount = n
	offer.RecomputeAverage()
	return s.rm.Offers(tx).Update(ctx, offer)
}

func offerView(o *models.Offer) OfferView {
	return OfferView{
		ID:              o.ID,
		Title:           o.Title,
		Description:     o.Description,
		Type:            o.Type,
		Price:           o.Price,
		CardCount:       o.CardCount,
		AvgPricePerCard: o.AvgPricePerCard,
		IsActive:        o.IsActive,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (s *OfferService) offerCardView(c *models.OfferCard) OfferCardView {
	return OfferCardView{
		ID:        c.ID,
		OfferID:   c.OfferID,
		Details:   s.mapper.OpenCard(c.CardDetails),
		CreatedAt: c.CreatedAt,
	}
}
