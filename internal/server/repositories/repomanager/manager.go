package repomanager

import (
	"context"
	"database/sql"

	"recordkeeper/internal/dbx"
	"recordkeeper/internal/docstore"
	"recordkeeper/internal/server/repositories/refreshtokens"
	"recordkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Documents(db dbx.DBTX) docstore.Store
}
