package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

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

const userColumns = `id, email, password_hash, first_name, last_name, jwt_version,
	avatar_kind, avatar_mime_type, avatar_data, avatar_url, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var avatarKind string
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName,
		&user.LastName, &user.JWTVersion, &avatarKind, &user.Avatar.MimeType,
		&user.Avatar.Data, &user.Avatar.URL, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.Avatar.Kind = models.AssetKind(avatarKind)
	return user, nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (email already taken).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, password_hash, first_name, last_name)
         VALUES ($1, $2, $3, $4)
		 RETURNING id, jwt_version, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName).
		Scan(&user.ID, &user.JWTVersion, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE email = $1
		 `

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// Update persists the mutable profile and credential fields and refreshes
// updated_at. Avatar columns are written separately via UpdateAvatar.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`UPDATE users SET password_hash = $2, first_name = $3, last_name = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.PasswordHash, user.FirstName, user.LastName).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// UpdateAvatar replaces the tagged avatar reference in one statement, so the
// row never carries two live representations.
func (r *PostgresRepository) UpdateAvatar(ctx context.Context, id int64, ref models.AssetRef) error {
	query :=
		`UPDATE users SET avatar_kind = $2, avatar_mime_type = $3, avatar_data = $4, avatar_url = $5, updated_at = now()
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

// BumpTokenVersion atomically increments the session epoch, invalidating
// every token issued under the previous value.
func (r *PostgresRepository) BumpTokenVersion(ctx context.Context, id int64) (int64, error) {
	query :=
		`UPDATE users SET jwt_version = jwt_version + 1, updated_at = now()
		 WHERE id = $1
		 RETURNING jwt_version
		 `

	var version int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&version)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return version, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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
