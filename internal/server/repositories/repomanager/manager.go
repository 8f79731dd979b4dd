package repomanager

import (
	"context"
	"database/sql"

	"github.com/temten/aexpo/internal/dbx"
	"github.com/temten/aexpo/internal/server/repositories/posts"
	"github.com/temten/aexpo/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX and
// exposes a schema migration hook. Services pass either the pooled *sql.DB
// or a transaction handle, so a mutation and its sibling reads can share
// one transaction.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
