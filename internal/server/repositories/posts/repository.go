// Package posts persists user-authored content items and their single
// media reference.
package posts

import (
	"context"

	"github.com/temten/aexpo/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	Count(ctx context.Context) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) (*models.Post, error)
	UpdateMedia(ctx context.Context, id int64, ref models.AssetRef) error
	Delete(ctx context.Context, id int64) error
}
