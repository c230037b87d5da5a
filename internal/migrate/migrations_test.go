package migrate_test

import (
	"testing"

	"gridpm/internal/db"
	"gridpm/internal/migrate"
)

func TestMigrateReachesLatest(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	if v, err := migrate.Current(conn); err != nil || v != 0 {
		t.Fatalf("fresh database: version=%d err=%v", v, err)
	}
	latest, err := migrate.Latest()
	if err != nil || latest < 1 {
		t.Fatalf("latest: version=%d err=%v", latest, err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if v, err := migrate.Current(conn); err != nil || v != latest {
		t.Fatalf("after migrate: version=%d want %d err=%v", v, latest, err)
	}
}
