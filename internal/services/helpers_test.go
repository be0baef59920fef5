package services_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"sellerhub/internal/repos"
	"sellerhub/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// filedb gives each test its own on-disk database so several connections can
// race for real.
func filedb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, filepath.Join(t.TempDir(), "sellerhub.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func catalog(db *sqlx.DB) *services.CatalogService {
	return services.NewCatalogService(db, repos.NewCategoryRepo(db), repos.NewProductRepo(db))
}

func count(t *testing.T, db *sqlx.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.Get(&n, query, args...); err != nil {
		t.Fatal(err)
	}
	return n
}

func imageCount(t *testing.T, db *sqlx.DB, productID string) int {
	t.Helper()
	n, err := repos.NewProductRepo(db).CountImages(context.Background(), productID)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func bankRows(t *testing.T, db *sqlx.DB, userID string) int {
	t.Helper()
	n, err := repos.NewBankRepo(db).CountByUser(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	return n
}
