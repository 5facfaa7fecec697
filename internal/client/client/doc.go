// Package client is a thin gRPC client for the gophmarket MarketService,
// used by the administrator tools.
//
// GRPCClient injects the access token into every call and, when the server
// answers with an expired-token error, refreshes the token pair once and
// retries. Status codes are mapped to the sentinel errors ErrUnauthorized
// and ErrUnavailable, which callers match with errors.Is.
package client
