// Package services contains server-side business logic. This file implements
// AccountService, which handles registration, login, session validation,
// profile updates (including password rotation with epoch-based token
// revocation) and the avatar asset slot.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/temten/aexpo/internal/common"
	"github.com/temten/aexpo/internal/dbx"
	"github.com/temten/aexpo/internal/server/auth"
	"github.com/temten/aexpo/internal/server/config"
	"github.com/temten/aexpo/internal/server/media"
	"github.com/temten/aexpo/internal/server/models"
	"github.com/temten/aexpo/internal/server/repositories/repomanager"
)

// Upload is a raw client upload: bytes plus the client-declared mime type.
// The declared type is untrusted until media.Accept has verified it.
type Upload struct {
	Data     []byte
	MimeType string
}

// UpdateProfileParams carries the partial profile mutation. Nil fields are
// left unchanged. A non-nil Password requires CurrentPassword to verify
// against the stored digest.
type UpdateProfileParams struct {
	CurrentPassword string
	Password        *string
	FirstName       *string
	LastName        *string
}

// UploadStats reports the effect of avatar normalization back to the client.
type UploadStats struct {
	Size             int
	OriginalSize     int
	CompressionRatio float64
}

// AccountService provides account-related operations over the credential
// store, the password hasher, the token issuer and the media manager.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	media       *media.Manager
	issuer      *auth.TokenIssuer
	baseURL     string
}

// NewAccountService constructs an AccountService using repositories,
// the media manager, the token issuer and server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, mm *media.Manager, issuer *auth.TokenIssuer, cfg *config.Config) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		media:       mm,
		issuer:      issuer,
		baseURL:     cfg.BaseURL,
	}
}

// Register creates a new account. The email pre-check gives a friendly
// conflict answer; the race window it leaves is closed by the unique
// constraint, which the repository also maps to ErrorConflict.
func (s *AccountService) Register(ctx context.Context, email, password, firstName, lastName string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil, common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorInternal
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
	}

	user, err = repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and, on success, issues a token carrying the
// account's current session epoch.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", common.ErrorUnauthorized
	}

	token, err := s.issuer.Issue(user.ID, user.Email, user.JWTVersion)
	if err != nil {
		return "", common.ErrorInternal
	}

	return token, nil
}

// ValidateSession gates every authenticated operation: it verifies the
// token's signature and expiry, re-reads the account, and compares the
// embedded session epoch against the current one. A token issued before the
// last password change fails here even though it is correctly signed and
// unexpired; this is the sole revocation mechanism. Only the minimal
// principal is handed downstream.
func (s *AccountService) ValidateSession(ctx context.Context, tokenString string) (*models.Principal, error) {
	claims, err := s.issuer.Verify(tokenString)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if claims.TokenVersion != user.JWTVersion {
		return nil, common.ErrorUnauthorized
	}

	return &models.Principal{ID: user.ID, Email: user.Email}, nil
}

// GetProfile returns the full account record for the authenticated user.
func (s *AccountService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// UpdateProfile applies a partial profile mutation. Password rotation
// requires the current password, bumps the session epoch and re-issues a
// token in the same response; without the fresh token the caller who just
// changed their own password would immediately lock themselves out. The
// returned token is empty when no rotation happened.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, params UpdateProfileParams) (*models.User, string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	rotating := params.Password != nil && *params.Password != ""
	if rotating {
		if !auth.CheckPassword(params.CurrentPassword, user.PasswordHash) {
			return nil, "", common.ErrorUnauthorized
		}
		hash, err := auth.HashPassword(*params.Password)
		if err != nil {
			return nil, "", fmt.Errorf("error hashing password: %w", err)
		}
		user.PasswordHash = hash
	}

	if params.FirstName != nil && *params.FirstName != "" {
		user.FirstName = *params.FirstName
	}
	if params.LastName != nil && *params.LastName != "" {
		user.LastName = *params.LastName
	}

	var token string
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Users(tx)
		if _, err := repoTx.Update(ctx, user); err != nil {
			return err
		}
		if rotating {
			version, err := repoTx.BumpTokenVersion(ctx, userID)
			if err != nil {
				return err
			}
			user.JWTVersion = version
			token, err = s.issuer.Issue(user.ID, user.Email, version)
			if err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// UpdateAvatar runs the accept -> transform -> replace pipeline against the
// account's avatar slot and persists the resulting reference.
func (s *AccountService) UpdateAvatar(ctx context.Context, userID int64, upload Upload) (*UploadStats, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	validated, err := s.media.Accept(upload.Data, upload.MimeType)
	if err != nil {
		return nil, err
	}

	processed, err := s.media.Transform(validated, media.CategoryAvatar)
	if err != nil {
		return nil, fmt.Errorf("error processing avatar: %w", err)
	}

	ref, err := s.media.Replace(ctx, user.Avatar, processed, media.CategoryAvatar)
	if err != nil {
		return nil, fmt.Errorf("error storing avatar: %w", err)
	}

	if err := repo.UpdateAvatar(ctx, userID, ref); err != nil {
		return nil, err
	}

	original := len(upload.Data)
	stats := &UploadStats{Size: len(processed.Data), OriginalSize: original}
	if original > 0 {
		stats.CompressionRatio = float64(original-len(processed.Data)) / float64(original) * 100
	}
	return stats, nil
}

// GetAvatar resolves the account's current avatar: bytes for the inline
// backend, a URL otherwise.
func (s *AccountService) GetAvatar(ctx context.Context, userID int64) (*media.Resolved, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.media.Resolve(user.Avatar)
}

// AvatarURL builds the externally visible avatar link for profile
// responses: the stored URL for external backends, the avatar endpoint for
// the inline backend, empty when the slot is empty.
func (s *AccountService) AvatarURL(user *models.User) string {
	switch user.Avatar.Kind {
	case models.AssetInline:
		return fmt.Sprintf("%s/api/v1/upload/avatar/%d", s.baseURL, user.ID)
	case models.AssetURL, models.AssetPath:
		return user.Avatar.URL
	default:
		return ""
	}
}

// DeleteAccount removes the account, its posts and every stored media
// asset down the ownership chain. Post rows go away with the account row
// via the cascading foreign key; their stored blobs are released first,
// best-effort.
func (s *AccountService) DeleteAccount(ctx context.Context, userID int64) error {
	userRepo := s.repomanager.Users(s.db)

	user, err := userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	userPosts, err := s.repomanager.Posts(s.db).ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, post := range userPosts {
		s.media.Release(ctx, post.Media)
	}
	s.media.Release(ctx, user.Avatar)

	return userRepo.Delete(ctx, userID)
}
