package services

import (
	"slices"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/fieldmap"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/shopspring/decimal"
)

// CardReceipt is the buyer view of a single card purchase.
type CardReceipt struct {
	OrderID     string             `json:"orderId"`
	CardID      string             `json:"cardId"`
	Title       string             `json:"title"`
	Price       decimal.Decimal    `json:"price"`
	BuyerName   string             `json:"buyerName"`
	BuyerEmail  string             `json:"buyerEmail"`
	Card        models.CardDetails `json:"card"`
	PurchasedAt time.Time          `json:"purchasedAt"`
}

// ProxyReceipt is the buyer view of a single proxy purchase.
type ProxyReceipt struct {
	OrderID     string                  `json:"orderId"`
	ProxyID     string                  `json:"proxyId"`
	Title       string                  `json:"title"`
	Protocol    string                  `json:"protocol"`
	Location    string                  `json:"location"`
	Price       decimal.Decimal         `json:"price"`
	BuyerName   string                  `json:"buyerName"`
	BuyerEmail  string                  `json:"buyerEmail"`
	Credentials models.ProxyCredentials `json:"credentials"`
	PurchasedAt time.Time               `json:"purchasedAt"`
}

// OfferReceipt is the buyer view of an offer purchase. Quantity is the
// number of unlocked cards for CARD offers and of proxy units for PROXY ones.
type OfferReceipt struct {
	OrderID     string               `json:"orderId"`
	OfferID     string               `json:"offerId"`
	Title       string               `json:"title"`
	Type        models.OfferType     `json:"type"`
	Price       decimal.Decimal      `json:"price"`
	Quantity    int                  `json:"quantity"`
	BuyerName   string               `json:"buyerName"`
	BuyerEmail  string               `json:"buyerEmail"`
	Cards       []models.CardDetails `json:"cards"`
	PurchasedAt time.Time            `json:"purchasedAt"`
}

func ProjectCardOrder(m *fieldmap.Mapper, o *models.Order) CardReceipt {
	return CardReceipt{
		OrderID:     o.ID,
		CardID:      o.CardID,
		Title:       o.Title,
		Price:       o.Price,
		BuyerName:   o.BuyerName,
		BuyerEmail:  o.BuyerEmail,
		Card:        m.OpenCard(o.CardDetails),
		PurchasedAt: o.CreatedAt,
	}
}

func ProjectProxyOrder(m *fieldmap.Mapper, o *models.ProxyOrder) ProxyReceipt {
	return ProxyReceipt{
		OrderID:     o.ID,
		ProxyID:     o.ProxyID,
		Title:       o.Title,
		Protocol:    o.Protocol,
		Location:    o.Location,
		Price:       o.Price,
		BuyerName:   o.BuyerName,
		BuyerEmail:  o.BuyerEmail,
		Credentials: m.OpenProxy(o.ProxyCredentials),
		PurchasedAt: o.CreatedAt,
	}
}

// ProjectOfferOrder copies the embedded cards as stored; they are plaintext
// snapshots and are not passed through the codec.
func ProjectOfferOrder(o *models.OfferOrder) OfferReceipt {
	cards := slices.Clone(o.Cards)
	if cards == nil {
		cards = []models.CardDetails{}
	}
	return OfferReceipt{
		OrderID:     o.ID,
		OfferID:     o.OfferID,
		Title:       o.Title,
		Type:        o.Type,
		Price:       o.Price,
		Quantity:    o.Quantity,
		BuyerName:   o.BuyerName,
		BuyerEmail:  o.BuyerEmail,
		Cards:       cards,
		PurchasedAt: o.CreatedAt,
	}
}
