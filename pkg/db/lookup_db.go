package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageByName/pkg/models"
)

const (
	CREATE_LOOKUP_TABLE = `CREATE TABLE IF NOT EXISTS image_lookups(
		id SERIAL PRIMARY KEY,
		kind VARCHAR(32) NOT NULL,
		theme VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		resolved_path TEXT NOT NULL,
		found BOOLEAN NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`

	// general lookups never fail at resolve time, so only themed misses are listed
	LIST_THEMED_MISSES = `SELECT * FROM image_lookups
		WHERE found = FALSE AND kind <> 'general'
		ORDER BY created_at DESC LIMIT $1`
)

type LookupDatabase interface {
	RecordLookup(ctx context.Context, lookup *models.Lookup) (int, error)
	ListMisses(ctx context.Context, limit int) ([]models.Lookup, error)
}

type LookupDatabaseImpl struct {
	db *sqlx.DB
}

func NewLookupDatabase(autoCreate bool, db *sqlx.DB) (*LookupDatabaseImpl, error) {
	if autoCreate {
		if _, err := db.Exec(CREATE_LOOKUP_TABLE); err != nil {
			return nil, err
		}
	}
	return &LookupDatabaseImpl{db: db}, nil
}

func (r *LookupDatabaseImpl) RecordLookup(ctx context.Context, lookup *models.Lookup) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx, "INSERT INTO image_lookups(kind, theme, name, resolved_path, found) VALUES($1, $2, $3, $4, $5) RETURNING id",
		lookup.Kind, lookup.Theme, lookup.Name, lookup.ResolvedPath, lookup.Found).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *LookupDatabaseImpl) ListMisses(ctx context.Context, limit int) ([]models.Lookup, error) {
	lookups := []models.Lookup{}
	err := r.db.SelectContext(ctx, &lookups, LIST_THEMED_MISSES, limit)
	if err != nil {
		return nil, err
	}
	return lookups, nil
}

// NopLookupDatabase is used when the journal is disabled.
type NopLookupDatabase struct{}

func (NopLookupDatabase) RecordLookup(context.Context, *models.Lookup) (int, error) { return 0, nil }

func (NopLookupDatabase) ListMisses(context.Context, int) ([]models.Lookup, error) {
	return nil, ErrJournalDisabled
}
