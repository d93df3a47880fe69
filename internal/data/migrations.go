package data

import (
	"context"
	"database/sql"

	"github.com/tallyworks/backoffice-api/internal/migrate"
)

// RunMigrations brings the schema up to date from the embedded
// migration files.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}
