package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProxyCredentials are the sensitive part of a proxy. All four fields are
// always present in views, empty when unset.
type ProxyCredentials struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Proxy struct {
	ID       string
	Title    string
	Protocol string
	Location string
	Price    decimal.Decimal
	ProxyCredentials
	Sale
	CreatedAt time.Time
}
