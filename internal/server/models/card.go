// Package models defines server-side data models persisted in the database.
//
// Sensitive string fields are held in envelope form while a model travels
// between the repositories and the field mapper; services decrypt them only
// when building a view or a receipt.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardDetails is the card payload shared by cards, offer cards and card
// orders. Every field except Expiry, UserAgent and VideoLink is sensitive.
type CardDetails struct {
	CardNumber string `json:"cardNumber,omitempty"`
	CVV        string `json:"cvv,omitempty"`
	HolderName string `json:"holderName,omitempty"`
	Address    string `json:"address,omitempty"`
	SSN        string `json:"ssn,omitempty"`
	DOB        string `json:"dob,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Password   string `json:"password,omitempty"`
	IP         string `json:"ip,omitempty"`
	Proxy      string `json:"proxy,omitempty"`
	Bank       string `json:"bank,omitempty"`
	Type       string `json:"type,omitempty"`
	Zip        string `json:"zip,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`

	Expiry    string `json:"expiry,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	VideoLink string `json:"videoLink,omitempty"`
}

// Sale holds the one-way availability state of a single-sale item.
type Sale struct {
	ForSale        bool
	SoldToUsername string
	SoldToEmail    string
	SoldAt         *time.Time
}

type Card struct {
	ID    string
	Title string
	Price decimal.Decimal
	CardDetails
	Sale
	CreatedAt time.Time
}
