// Package common contains shared constants and sentinel errors used across
// GophMarket components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// Roles carried in access token claims.
const (
	RoleBuyer = "BUYER"
	RoleAdmin = "ADMIN"
)
