package storagetesting

import (
	"database/sql"
	"os"
	"testing"

	pgmodels "github.com/ewebtechsuk/aktonz2-sub001/internal/platform/storage/gen/postgres/public/model"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/storage/gen/postgres/public/table"
	pg "github.com/go-jet/jet/v2/postgres"
	"github.com/go-jet/jet/v2/qrm"

	_ "github.com/lib/pq"
)

// Open opens connection to DB. It skips the test when DATABASE_URL is not set.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("please provide database URL via DATABASE_URL environment variable")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("can't open connection to %q: %s", dbURL, err)
	}

	return db
}

// InsertOverrides is a helper test function to insert override rows.
func InsertOverrides(t *testing.T, exc qrm.Executable, rows ...pgmodels.ListingOverrides) {
	t.Helper()

	if len(rows) == 0 {
		return
	}

	_, err := table.ListingOverrides.INSERT(table.ListingOverrides.AllColumns).MODELS(rows).Exec(exc)
	if err != nil {
		t.Fatal("can't insert overrides", err)
	}
}

// GetOverrides is a helper test function to get all override rows.
func GetOverrides(t *testing.T, q qrm.Queryable) []pgmodels.ListingOverrides {
	t.Helper()

	var rows []pgmodels.ListingOverrides
	err := pg.SELECT(table.ListingOverrides.AllColumns).
		FROM(table.ListingOverrides).
		ORDER_BY(table.ListingOverrides.ID.ASC()).
		Query(q, &rows)
	if err != nil {
		t.Fatal("can't get overrides", err)
	}

	return rows
}

// CleanupData is a helper test function to delete all data from DB.
func CleanupData(t *testing.T, exc qrm.Executable) {
	t.Helper()

	_, err := table.ListingOverrides.DELETE().WHERE(table.ListingOverrides.ID.IS_NOT_NULL()).Exec(exc)
	if err != nil {
		t.Fatal("can't delete overrides data", err)
	}
}
