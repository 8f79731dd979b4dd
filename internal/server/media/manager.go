package media

import (
	"context"

	"github.com/temten/aexpo/internal/common"
	"github.com/temten/aexpo/internal/logging"
	"github.com/temten/aexpo/internal/server/models"
)

// Manager runs the accept -> transform -> store pipeline over the active
// backend and owns the replace/release discipline that keeps at most one
// live asset per slot.
type Manager struct {
	store  Store
	logger logging.Logger
}

func NewManager(store Store, logger logging.Logger) *Manager {
	return &Manager{store: store, logger: logger.With("module", "media")}
}

// Accept validates a raw upload. See the package-level Accept.
func (m *Manager) Accept(data []byte, declaredMimeType string) (*ValidatedAsset, error) {
	return Accept(data, declaredMimeType)
}

// Transform normalizes a validated asset. See the package-level Transform.
func (m *Manager) Transform(asset *ValidatedAsset, category Category) (*ProcessedAsset, error) {
	return Transform(asset, category)
}

// Store persists a processed asset through the active backend.
func (m *Manager) Store(ctx context.Context, asset *ProcessedAsset, category Category) (models.AssetRef, error) {
	return m.store.Put(ctx, asset.Data, asset.MimeType, category)
}

// Replace stores the new asset and then deletes the previous one if the
// slot was occupied. Cleanup failure never fails the operation: the new
// asset must win even when the backend cannot remove the old object, at
// the cost of an orphaned blob. The failure is logged and swallowed here
// so the contract is visible in one place.
func (m *Manager) Replace(ctx context.Context, old models.AssetRef, asset *ProcessedAsset, category Category) (models.AssetRef, error) {
	ref, err := m.store.Put(ctx, asset.Data, asset.MimeType, category)
	if err != nil {
		return models.AssetRef{}, err
	}

	if !old.IsZero() {
		if err := m.store.Delete(ctx, old); err != nil {
			m.logger.Warn(ctx, "failed to delete replaced asset", "url", old.URL, "error", err.Error())
		}
	}

	return ref, nil
}

// Release deletes a stored asset when its owning record goes away. Same
// best-effort policy as Replace.
func (m *Manager) Release(ctx context.Context, ref models.AssetRef) {
	if ref.IsZero() {
		return
	}
	if err := m.store.Delete(ctx, ref); err != nil {
		m.logger.Warn(ctx, "failed to release asset", "url", ref.URL, "error", err.Error())
	}
}

// Resolved is the retrievable form of a stored asset: raw bytes for the
// inline backend, a URL for the external ones. Callers must handle both.
type Resolved struct {
	Data     []byte
	MimeType string
	URL      string
}

// Resolve turns a live reference into its retrievable form. An empty slot
// resolves to ErrorNotFound.
func (m *Manager) Resolve(ref models.AssetRef) (*Resolved, error) {
	switch ref.Kind {
	case models.AssetInline:
		return &Resolved{Data: ref.Data, MimeType: ref.MimeType}, nil
	case models.AssetURL, models.AssetPath:
		return &Resolved{URL: ref.URL, MimeType: ref.MimeType}, nil
	default:
		return nil, common.ErrorNotFound
	}
}
