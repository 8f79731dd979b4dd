package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/temten/aexpo/internal/common"
	"github.com/temten/aexpo/internal/logging"
	"github.com/temten/aexpo/internal/server/models"
)

type fakeStore struct {
	putCalls    int
	putErr      error
	deleted     []models.AssetRef
	deleteErr   error
	lastPutData []byte
}

func (f *fakeStore) Put(ctx context.Context, data []byte, mimeType string, category Category) (models.AssetRef, error) {
	if f.putErr != nil {
		return models.AssetRef{}, f.putErr
	}
	f.putCalls++
	f.lastPutData = data
	return models.AssetRef{Kind: models.AssetURL, MimeType: mimeType, URL: "http://cdn/" + string(category) + "/new"}, nil
}

func (f *fakeStore) Delete(ctx context.Context, ref models.AssetRef) error {
	f.deleted = append(f.deleted, ref)
	return f.deleteErr
}

func newTestManager(store Store) *Manager {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewManager(store, logger)
}

func TestReplace_DeletesPreviousAsset(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	m := newTestManager(store)

	old := models.AssetRef{Kind: models.AssetURL, URL: "http://cdn/avatars/old"}
	ref, err := m.Replace(context.Background(), old, &ProcessedAsset{Data: []byte("x"), MimeType: "image/jpeg"}, CategoryAvatar)
	if err != nil {
		t.Fatalf("Replace error: %v", err)
	}
	if ref.URL != "http://cdn/avatars/new" {
		t.Fatalf("unexpected new ref: %+v", ref)
	}
	if len(store.deleted) != 1 || store.deleted[0].URL != old.URL {
		t.Fatalf("expected old asset deletion request, got %+v", store.deleted)
	}
}

func TestReplace_EmptySlotSkipsDelete(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	m := newTestManager(store)

	_, err := m.Replace(context.Background(), models.AssetRef{}, &ProcessedAsset{Data: []byte("x"), MimeType: "image/jpeg"}, CategoryAvatar)
	if err != nil {
		t.Fatalf("Replace error: %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("expected no delete calls, got %+v", store.deleted)
	}
}

func TestReplace_DeleteFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	store := &fakeStore{deleteErr: errors.New("backend down")}
	m := newTestManager(store)

	old := models.AssetRef{Kind: models.AssetURL, URL: "http://cdn/avatars/old"}
	ref, err := m.Replace(context.Background(), old, &ProcessedAsset{Data: []byte("x"), MimeType: "image/jpeg"}, CategoryAvatar)
	if err != nil {
		t.Fatalf("expected replace to succeed despite cleanup failure, got %v", err)
	}
	if ref.IsZero() {
		t.Fatalf("expected live new ref")
	}
	if len(store.deleted) != 1 {
		t.Fatalf("expected deletion to be attempted")
	}
}

func TestReplace_PutFailureReturnsError(t *testing.T) {
	t.Parallel()

	store := &fakeStore{putErr: errors.New("no space")}
	m := newTestManager(store)

	_, err := m.Replace(context.Background(), models.AssetRef{}, &ProcessedAsset{Data: []byte("x"), MimeType: "image/jpeg"}, CategoryAvatar)
	if err == nil {
		t.Fatalf("expected error when store fails")
	}
	if len(store.deleted) != 0 {
		t.Fatalf("nothing should be deleted when the new store fails")
	}
}

func TestRelease_BestEffort(t *testing.T) {
	t.Parallel()

	store := &fakeStore{deleteErr: errors.New("backend down")}
	m := newTestManager(store)

	ref := models.AssetRef{Kind: models.AssetURL, URL: "http://cdn/posts/a"}
	m.Release(context.Background(), ref) // must not panic or propagate
	if len(store.deleted) != 1 {
		t.Fatalf("expected deletion to be attempted")
	}

	m.Release(context.Background(), models.AssetRef{})
	if len(store.deleted) != 1 {
		t.Fatalf("empty slot must not trigger a delete")
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	m := newTestManager(&fakeStore{})

	inline, err := m.Resolve(models.AssetRef{Kind: models.AssetInline, MimeType: "image/jpeg", Data: []byte("img")})
	if err != nil {
		t.Fatalf("Resolve inline error: %v", err)
	}
	if string(inline.Data) != "img" || inline.URL != "" {
		t.Fatalf("unexpected inline resolution: %+v", inline)
	}

	external, err := m.Resolve(models.AssetRef{Kind: models.AssetURL, MimeType: "video/mp4", URL: "http://cdn/x"})
	if err != nil {
		t.Fatalf("Resolve url error: %v", err)
	}
	if external.URL != "http://cdn/x" || external.Data != nil {
		t.Fatalf("unexpected url resolution: %+v", external)
	}

	if _, err := m.Resolve(models.AssetRef{}); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound for empty slot, got %v", err)
	}
}
