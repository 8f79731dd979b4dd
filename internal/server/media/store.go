package media

import (
	"context"

	"github.com/temten/aexpo/internal/server/models"
)

// Store is one asset storage backend. Exactly one implementation is active
// per deployment, selected from configuration at startup.
type Store interface {
	// Put persists the processed bytes and returns the tagged reference
	// that later retrieves or deletes them.
	Put(ctx context.Context, data []byte, mimeType string, category Category) (models.AssetRef, error)

	// Delete removes the stored object behind ref. Callers treat failures
	// as non-fatal; see Manager.Replace and Manager.Release.
	Delete(ctx context.Context, ref models.AssetRef) error
}
