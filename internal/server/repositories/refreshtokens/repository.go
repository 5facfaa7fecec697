// Package refreshtokens stores the long-lived half of a login session. Only
// a digest of each token is persisted, so a leaked table cannot be replayed.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/server/models"
)

type Repository interface {
	// Create stores the digest of a refresh token issued to userID.
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// Find returns the session for a token digest or common.ErrorNotFound.
	Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Delete removes one session. Deleting an absent digest is not an error.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteByUser revokes every session of a user.
	DeleteByUser(ctx context.Context, userID string) error
}
