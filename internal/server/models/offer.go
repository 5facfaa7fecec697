package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferType selects what an offer bundle unlocks.
type OfferType string

const (
	OfferTypeCard  OfferType = "CARD"
	OfferTypeProxy OfferType = "PROXY"
)

// MaxOfferCards is the number of card rows an offer may hold.
const MaxOfferCards = 8

// Offer is a bundle sold as one unit. For CARD offers CardCount mirrors the
// number of OfferCard rows; for PROXY offers it is the number of proxy units.
type Offer struct {
	ID              string
	Title           string
	Description     string
	Type            OfferType
	Price           decimal.Decimal
	CardCount       int
	AvgPricePerCard decimal.Decimal
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RecomputeAverage sets AvgPricePerCard to Price/CardCount rounded to two
// decimals, or zero when the offer is empty.
func (o *Offer) RecomputeAverage() {
	if o.CardCount <= 0 {
		o.AvgPricePerCard = decimal.Zero
		return
	}
	o.AvgPricePerCard = o.Price.DivRound(decimal.NewFromInt(int64(o.CardCount)), 2)
}

// OfferCard is one card row backing a CARD offer.
type OfferCard struct {
	ID      string
	OfferID string
	CardDetails
	CreatedAt time.Time
}
