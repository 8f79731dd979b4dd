// Package users persists account records. It owns email uniqueness and the
// per-account session epoch (jwt_version).
package users

import (
	"context"

	"github.com/temten/aexpo/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	UpdateAvatar(ctx context.Context, id int64, ref models.AssetRef) error
	BumpTokenVersion(ctx context.Context, id int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}
