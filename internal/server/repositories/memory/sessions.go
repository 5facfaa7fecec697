package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
)

type RefreshTokensRepository struct {
	s *Store
}

func NewRefreshTokensRepository(s *Store) *RefreshTokensRepository {
	return &RefreshTokensRepository{s: s}
}

func (r *RefreshTokensRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	defer r.s.lock(ctx)()

	r.s.st.sessions[tokenHash] = row[models.RefreshToken]{
		seq: r.s.nextSeq(),
		v:   models.RefreshToken{TokenHash: tokenHash, UserID: userID, ExpiresAt: expiresAt},
	}
	return nil
}

func (r *RefreshTokensRepository) Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.st.sessions[tokenHash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	v := t.v
	return &v, nil
}

func (r *RefreshTokensRepository) Delete(ctx context.Context, tokenHash string) error {
	defer r.s.lock(ctx)()

	delete(r.s.st.sessions, tokenHash)
	return nil
}

func (r *RefreshTokensRepository) DeleteByUser(ctx context.Context, userID string) error {
	defer r.s.lock(ctx)()

	for k, t := range r.s.st.sessions {
		if t.v.UserID == userID {
			delete(r.s.st.sessions, k)
		}
	}
	return nil
}
