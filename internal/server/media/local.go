package media

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/temten/aexpo/internal/server/models"
)

// ServedPathPrefix is the URL prefix under which the local backend's files
// are exposed by the HTTP layer.
const ServedPathPrefix = "/media"

// LocalStore persists assets on the local filesystem and addresses them by
// the path they are served under.
type LocalStore struct {
	baseDir string
}

// NewLocalStore ensures the base directory exists; failure to create it is
// a startup error, not something to discover on the first upload.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("local media directory is not configured")
	}
	if err := os.MkdirAll(baseDir, 0o770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", baseDir, err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

func (s *LocalStore) Put(ctx context.Context, data []byte, mimeType string, category Category) (models.AssetRef, error) {
	dir := filepath.Join(s.baseDir, string(category))
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return models.AssetRef{}, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	name := uuid.New().String() + ExtensionForMimeType(mimeType)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o660); err != nil {
		return models.AssetRef{}, fmt.Errorf("write asset: %w", err)
	}

	return models.AssetRef{
		Kind:     models.AssetPath,
		MimeType: mimeType,
		URL:      path.Join(ServedPathPrefix, string(category), name),
	}, nil
}

func (s *LocalStore) Delete(ctx context.Context, ref models.AssetRef) error {
	rel, ok := strings.CutPrefix(ref.URL, ServedPathPrefix+"/")
	if !ok || strings.Contains(rel, "..") {
		return fmt.Errorf("invalid media path: %s", ref.URL)
	}

	if err := os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(rel))); err != nil {
		return fmt.Errorf("remove asset: %w", err)
	}
	return nil
}
