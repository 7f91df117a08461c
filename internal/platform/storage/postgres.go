package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/storage/gen/postgres/public/table"
	"github.com/rs/zerolog"

	pgmodels "github.com/ewebtechsuk/aktonz2-sub001/internal/platform/storage/gen/postgres/public/model"
	pg "github.com/go-jet/jet/v2/postgres"
)

//go:embed schema.sql
var schema string

// Postgres persists listing overrides, one row per listing.
type Postgres struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgres returns new Postgres.
func NewPostgres(db *sql.DB, logger zerolog.Logger) Postgres {
	return Postgres{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates overrides table if it doesn't exist.
func (p Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("can't create overrides schema: %w", err)
	}
	return nil
}

// Load returns every stored override. Rows that can't be decoded are logged and skipped.
func (p Postgres) Load(ctx context.Context) (map[string]models.Override, error) {
	var rows []pgmodels.ListingOverrides
	err := pg.SELECT(table.ListingOverrides.AllColumns).
		FROM(table.ListingOverrides).
		QueryContext(ctx, p.db, &rows)
	if err != nil {
		return nil, fmt.Errorf("can't select overrides: %w", err)
	}

	overrides := make(map[string]models.Override, len(rows))
	for _, row := range rows {
		override, err := fromDBOverride(row)
		if err != nil {
			p.logger.Error().Err(err).Str("id", row.ID).Msg("skipping malformed override row")
			continue
		}
		overrides[row.ID] = override
	}

	return overrides, nil
}

// Store writes override of id from snapshot, or deletes its row when snapshot has none.
func (p Postgres) Store(ctx context.Context, snapshot map[string]models.Override, id string) error {
	override, ok := snapshot[id]
	if !ok {
		_, err := table.ListingOverrides.DELETE().
			WHERE(table.ListingOverrides.ID.EQ(pg.String(id))).
			ExecContext(ctx, p.db)
		if err != nil {
			return fmt.Errorf("can't delete override: %w", err)
		}
		return nil
	}

	row, err := ToDBOverride(id, override)
	if err != nil {
		return err
	}

	_, err = table.ListingOverrides.INSERT(table.ListingOverrides.AllColumns).
		MODEL(row).
		ON_CONFLICT(table.ListingOverrides.ID).
		DO_UPDATE(pg.SET(
			table.ListingOverrides.Patch.SET(table.ListingOverrides.EXCLUDED.Patch),
			table.ListingOverrides.UpdatedAt.SET(table.ListingOverrides.EXCLUDED.UpdatedAt),
		)).
		ExecContext(ctx, p.db)
	if err != nil {
		return fmt.Errorf("can't upsert override: %w", err)
	}

	return nil
}

// Import replaces all stored overrides with overrides in one transaction.
func (p Postgres) Import(ctx context.Context, overrides map[string]models.Override) error {
	return runInTransaction(ctx, p.db, func(tx *sql.Tx) error {
		_, err := table.ListingOverrides.DELETE().
			WHERE(table.ListingOverrides.ID.IS_NOT_NULL()).
			ExecContext(ctx, tx)
		if err != nil {
			return fmt.Errorf("can't delete overrides: %w", err)
		}

		if len(overrides) == 0 {
			return nil
		}

		rows := make([]pgmodels.ListingOverrides, 0, len(overrides))
		for id, override := range overrides {
			row, err := ToDBOverride(id, override)
			if err != nil {
				return err
			}
			rows = append(rows, *row)
		}

		_, err = table.ListingOverrides.INSERT(table.ListingOverrides.AllColumns).
			MODELS(rows).
			ExecContext(ctx, tx)
		if err != nil {
			return fmt.Errorf("can't insert overrides: %w", err)
		}

		return nil
	})
}

func runInTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	var (
		tx  *sql.Tx
		err error
	)

	if tx, err = db.BeginTx(ctx, nil); err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("can't rollback transaction: %w (rollback reason: %w)", rbErr, err)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit transaction: %w", err)
	}

	return nil
}
