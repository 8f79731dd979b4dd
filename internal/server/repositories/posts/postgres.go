package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/temten/aexpo/internal/common"
	"github.com/temten/aexpo/internal/dbx"
	"github.com/temten/aexpo/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const postColumns = `id, user_id, text, hashtags, privacy,
	media_kind, media_mime_type, media_data, media_url, created_at, updated_at`

// Hashtags are stored as one comma-joined text column. Tag syntax forbids
// commas, so the join is unambiguous.
func joinHashtags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitHashtags(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	post := &models.Post{}
	var hashtags, privacy, mediaKind string
	err := row.Scan(&post.ID, &post.UserID, &post.Text, &hashtags, &privacy,
		&mediaKind, &post.Media.MimeType, &post.Media.Data, &post.Media.URL,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	post.Hashtags = splitHashtags(hashtags)
	post.Privacy = models.PostPrivacy(privacy)
	post.Media.Kind = models.AssetKind(mediaKind)
	return post, nil
}

// Create inserts the full row, media reference included, in one statement.
func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {

	query :=
		`INSERT INTO posts (user_id, text, hashtags, privacy, media_kind, media_mime_type, media_data, media_url)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		post.UserID, post.Text, joinHashtags(post.Hashtags), string(post.Privacy),
		string(post.Media.Kind), post.Media.MimeType, post.Media.Data, post.Media.URL).
		Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		 WHERE id = $1
		 `

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

// List returns posts newest first.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2
		 `

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM posts`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

func collectPosts(rows *sql.Rows) ([]*models.Post, error) {
	var result []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Update persists text, hashtags and privacy and refreshes updated_at.
// Media columns are written separately via UpdateMedia.
func (r *PostgresRepository) Update(ctx context.Context, post *models.Post) (*models.Post, error) {
	query :=
		`UPDATE posts SET text = $2, hashtags = $3, privacy = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		post.ID, post.Text, joinHashtags(post.Hashtags), string(post.Privacy)).
		Scan(&post.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

// UpdateMedia replaces the tagged media reference in one statement.
func (r *PostgresRepository) UpdateMedia(ctx context.Context, id int64, ref models.AssetRef) error {
	query :=
		`UPDATE posts SET media_kind = $2, media_mime_type = $3, media_data = $4, media_url = $5, updated_at = now()
		 WHERE id = $1
		 `

	result, err := r.db.ExecContext(ctx, query,
		id, string(ref.Kind), ref.MimeType, ref.Data, ref.URL)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}
