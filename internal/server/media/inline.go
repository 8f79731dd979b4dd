package media

import (
	"context"

	"github.com/temten/aexpo/internal/server/models"
)

// InlineStore keeps asset bytes in the reference itself; the repository
// persists them in the owning row. Deleting is a no-op because writing the
// replacement reference overwrites the previous blob in the same statement.
type InlineStore struct{}

func NewInlineStore() *InlineStore {
	return &InlineStore{}
}

func (s *InlineStore) Put(ctx context.Context, data []byte, mimeType string, category Category) (models.AssetRef, error) {
	return models.AssetRef{
		Kind:     models.AssetInline,
		MimeType: mimeType,
		Data:     data,
	}, nil
}

func (s *InlineStore) Delete(ctx context.Context, ref models.AssetRef) error {
	return nil
}
