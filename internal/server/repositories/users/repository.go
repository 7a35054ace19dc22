// Package users provides persistence for authenticated accounts, including
// the custom-claims column the role synchronizer maintains.
package users

import (
	"context"

	"recordkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetClaims(ctx context.Context, userID string) (models.CustomClaims, error)
	SetClaims(ctx context.Context, userID string, claims models.CustomClaims) error
}
