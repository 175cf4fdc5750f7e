package storage

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationFiles_Paired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}

	if len(ups) == 0 {
		t.Fatal("no migrations embedded")
	}
	for v := range ups {
		if !downs[v] {
			t.Errorf("migration %s has no down file", v)
		}
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	applied, err := RunMigrations(testDatabaseURL)
	if err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	if applied {
		t.Error("migrations were already applied by TestMain, expected no change")
	}

	version, dirty, err := SchemaVersion(testDatabaseURL)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if dirty || version != 2 {
		t.Errorf("schema version: got %d (dirty=%v), want 2", version, dirty)
	}
}
