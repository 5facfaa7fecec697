package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Buyer is the identity snapshot stamped on a receipt.
type Buyer struct {
	BuyerID    string
	BuyerName  string
	BuyerEmail string
}

// Order is the receipt of a single card purchase. Its CardDetails are stored
// in envelope form.
type Order struct {
	ID     string
	CardID string
	Title  string
	Price  decimal.Decimal
	Buyer
	CardDetails
	CreatedAt time.Time
}

// ProxyOrder is the receipt of a single proxy purchase. Its credentials are
// stored in envelope form.
type ProxyOrder struct {
	ID       string
	ProxyID  string
	Title    string
	Protocol string
	Location string
	Price    decimal.Decimal
	Buyer
	ProxyCredentials
	CreatedAt time.Time
}

// OfferOrder is the receipt of an offer purchase. Cards holds plaintext
// snapshots taken at purchase time.
type OfferOrder struct {
	ID       string
	OfferID  string
	Title    string
	Type     OfferType
	Price    decimal.Decimal
	Quantity int
	Buyer
	Cards     []CardDetails
	CreatedAt time.Time
}
