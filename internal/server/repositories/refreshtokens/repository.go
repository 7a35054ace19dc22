// Package refreshtokens provides a PostgreSQL-backed repository for managing
// refresh tokens used in the authentication flow. Revoking every token of a
// user forces re-authentication, which is how updated custom claims reach
// the client.
package refreshtokens

import (
	"context"
	"time"

	"recordkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, token string, validity time.Duration) error
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}
