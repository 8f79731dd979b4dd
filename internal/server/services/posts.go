package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/temten/aexpo/internal/common"
	"github.com/temten/aexpo/internal/dbx"
	"github.com/temten/aexpo/internal/server/config"
	"github.com/temten/aexpo/internal/server/media"
	"github.com/temten/aexpo/internal/server/models"
	"github.com/temten/aexpo/internal/server/repositories/repomanager"
)

const (
	maxHashtags      = 10
	DefaultPageLimit = 20
	MaxPageLimit     = 50
)

// Hashtags start with # and contain only letters, digits and underscores.
var hashtagPattern = regexp.MustCompile(`^#[\pL\pN_]+$`)

// CreatePostParams carries the fields of a new post.
type CreatePostParams struct {
	Text     string
	Hashtags []string
	Privacy  models.PostPrivacy
}

// UpdatePostParams carries a partial post mutation. Nil fields are left
// unchanged.
type UpdatePostParams struct {
	Text     *string
	Hashtags *[]string
	Privacy  *models.PostPrivacy
}

// PostPage is one page of the global feed, newest first.
type PostPage struct {
	Posts      []*models.Post
	Total      int64
	Page       int
	TotalPages int
}

// PostService implements the posts feature. Media attachments reuse the
// same asset pipeline as avatars, scoped to the post's media slot.
type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	media       *media.Manager
	baseURL     string
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, mm *media.Manager, cfg *config.Config) *PostService {
	return &PostService{db: db, repomanager: m, media: mm, baseURL: cfg.BaseURL}
}

func validateHashtags(tags []string) error {
	if len(tags) > maxHashtags {
		return fmt.Errorf("%w: at most %d hashtags", common.ErrorValidation, maxHashtags)
	}
	for _, tag := range tags {
		if !hashtagPattern.MatchString(tag) {
			return fmt.Errorf("%w: malformed hashtag %q", common.ErrorValidation, tag)
		}
	}
	return nil
}

// Create validates a new post and runs the full media pipeline before
// touching the database, then inserts the row once with the media reference
// in place. A rejected or failed upload persists nothing; a failed insert
// releases the just-stored asset.
func (s *PostService) Create(ctx context.Context, userID int64, params CreatePostParams, upload *Upload) (*models.Post, error) {
	if params.Text == "" {
		return nil, fmt.Errorf("%w: post text must not be empty", common.ErrorValidation)
	}
	if err := validateHashtags(params.Hashtags); err != nil {
		return nil, err
	}

	privacy := params.Privacy
	if privacy == "" {
		privacy = models.PrivacyPublic
	}
	if !privacy.Valid() {
		return nil, fmt.Errorf("%w: unknown privacy %q", common.ErrorValidation, privacy)
	}

	var ref models.AssetRef
	if upload != nil {
		validated, err := s.media.Accept(upload.Data, upload.MimeType)
		if err != nil {
			return nil, err
		}
		processed, err := s.media.Transform(validated, media.CategoryPost)
		if err != nil {
			return nil, fmt.Errorf("error processing media: %w", err)
		}
		if ref, err = s.media.Store(ctx, processed, media.CategoryPost); err != nil {
			return nil, fmt.Errorf("error storing media: %w", err)
		}
	}

	post := &models.Post{
		UserID:   userID,
		Text:     params.Text,
		Hashtags: params.Hashtags,
		Privacy:  privacy,
		Media:    ref,
	}

	post, err := s.repomanager.Posts(s.db).Create(ctx, post)
	if err != nil {
		s.media.Release(ctx, ref)
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	return post, nil
}

// Get returns one post by id.
func (s *PostService) Get(ctx context.Context, id int64) (*models.Post, error) {
	return s.repomanager.Posts(s.db).GetByID(ctx, id)
}

// List returns one page of the feed, newest first. The page size defaults
// to DefaultPageLimit and is hard-capped at MaxPageLimit.
func (s *PostService) List(ctx context.Context, page, limit int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	repo := s.repomanager.Posts(s.db)

	items, err := repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &PostPage{Posts: items, Total: total, Page: page, TotalPages: totalPages}, nil
}

// ListByUser returns all posts of one account, newest first.
func (s *PostService) ListByUser(ctx context.Context, userID int64) ([]*models.Post, error) {
	return s.repomanager.Posts(s.db).ListByUser(ctx, userID)
}

// Update applies a partial mutation to an owned post. An attached upload is
// validated, transformed and stored before any row write, then the field and
// media changes commit in one transaction; the previous asset is released
// only after the commit. A rejected upload therefore persists nothing, and a
// failed commit releases the new asset instead of the old one.
func (s *PostService) Update(ctx context.Context, postID, userID int64, params UpdatePostParams, upload *Upload) (*models.Post, error) {
	repo := s.repomanager.Posts(s.db)

	post, err := repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, common.ErrorForbidden
	}

	if params.Text != nil {
		if *params.Text == "" {
			return nil, fmt.Errorf("%w: post text must not be empty", common.ErrorValidation)
		}
		post.Text = *params.Text
	}
	if params.Hashtags != nil {
		if err := validateHashtags(*params.Hashtags); err != nil {
			return nil, err
		}
		post.Hashtags = *params.Hashtags
	}
	if params.Privacy != nil {
		if !params.Privacy.Valid() {
			return nil, fmt.Errorf("%w: unknown privacy %q", common.ErrorValidation, *params.Privacy)
		}
		post.Privacy = *params.Privacy
	}

	if upload == nil {
		if post, err = repo.Update(ctx, post); err != nil {
			return nil, err
		}
		return post, nil
	}

	validated, err := s.media.Accept(upload.Data, upload.MimeType)
	if err != nil {
		return nil, err
	}
	processed, err := s.media.Transform(validated, media.CategoryPost)
	if err != nil {
		return nil, fmt.Errorf("error processing media: %w", err)
	}
	ref, err := s.media.Store(ctx, processed, media.CategoryPost)
	if err != nil {
		return nil, fmt.Errorf("error storing media: %w", err)
	}

	oldRef := post.Media
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Posts(tx)
		if _, err := repoTx.Update(ctx, post); err != nil {
			return err
		}
		return repoTx.UpdateMedia(ctx, post.ID, ref)
	}); err != nil {
		s.media.Release(ctx, ref)
		return nil, err
	}

	s.media.Release(ctx, oldRef)
	post.Media = ref

	return post, nil
}

// GetMedia resolves a post's attached media: bytes for the inline backend,
// a URL otherwise.
func (s *PostService) GetMedia(ctx context.Context, postID int64) (*media.Resolved, error) {
	post, err := s.repomanager.Posts(s.db).GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.media.Resolve(post.Media)
}

// MediaURL builds the externally visible media link for post responses: the
// stored URL for external backends, the media endpoint for the inline
// backend, empty when the slot is empty.
func (s *PostService) MediaURL(post *models.Post) string {
	switch post.Media.Kind {
	case models.AssetInline:
		return fmt.Sprintf("%s/api/v1/posts/%d/media", s.baseURL, post.ID)
	case models.AssetURL, models.AssetPath:
		return post.Media.URL
	default:
		return ""
	}
}

// Remove deletes an owned post, releasing its media asset first.
func (s *PostService) Remove(ctx context.Context, postID, userID int64) error {
	repo := s.repomanager.Posts(s.db)

	post, err := repo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return common.ErrorForbidden
	}

	s.media.Release(ctx, post.Media)

	if err := repo.Delete(ctx, postID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return err
	}
	return nil
}
