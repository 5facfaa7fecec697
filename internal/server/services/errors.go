// Package services contains server-side business logic: account management,
// inventory administration, the purchase protocol and receipt projection.
// Services receive the repository manager, the pool handle and a
// dbx.Transactor, so the same code runs over PostgreSQL and the memory store.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
)

var domainErrors = []error{
	common.ErrorNotFound,
	common.ErrorUnauthorized,
	common.ErrorValidation,
	common.ErrorForbidden,
	common.ErrorInvalidState,
	common.ErrorAlreadySold,
	common.ErrorInsufficientFunds,
	common.ErrorNoInventory,
	common.ErrorCapacityExceeded,
	common.ErrorAlreadyExists,
}

// IsDomainError reports whether err is an expected business rejection
// rather than a storage or primitive failure.
func IsDomainError(err error) bool {
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return true
		}
	}
	return false
}

// settleError logs err and returns what the caller should see: domain
// errors unchanged, anything else wrapped in common.ErrorInternal with the
// underlying message.
func settleError(ctx context.Context, log logging.Logger, op string, err error, args ...any) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		log.Info(ctx, op+" rejected", append(args, "reason", err.Error())...)
		return err
	}
	log.Error(ctx, op+" failed", append(args, "error", err)...)
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}
