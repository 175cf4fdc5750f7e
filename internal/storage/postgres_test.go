package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ryanbastic/go-pagegrid/internal/content"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	testPool        *pgxpool.Pool
	testDatabaseURL string
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16",
		postgres.WithDatabase("pagegrid"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		panic(fmt.Sprintf("start postgres container: %v", err))
	}

	testDatabaseURL, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(fmt.Sprintf("get connection string: %v", err))
	}

	if _, err := RunMigrations(testDatabaseURL); err != nil {
		panic(fmt.Sprintf("run migrations: %v", err))
	}

	testPool, err = pgxpool.New(ctx, testDatabaseURL)
	if err != nil {
		panic(fmt.Sprintf("create pool: %v", err))
	}

	code := m.Run()

	testPool.Close()
	_ = testcontainers.TerminateContainer(ctr)

	os.Exit(code)
}

// freshStore empties the page tables and returns a store over them.
func freshStore(t *testing.T) PageStore {
	t.Helper()
	if _, err := testPool.Exec(context.Background(), `TRUNCATE pages, page_revisions`); err != nil {
		t.Fatalf("truncate pages: %v", err)
	}
	return NewPostgresStore(testPool, 5*time.Second)
}

func TestPostgresStore(t *testing.T) {
	runStoreContract(t, freshStore)
}

func TestPostgresStore_LegacyContentIsReturnedVerbatim(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	legacy := `[{"type": "heading1", "content": "Old page"}]`
	_, err := testPool.Exec(ctx, `
		INSERT INTO pages (id, slug, title, content) VALUES (gen_random_uuid(), 'legacy', 'Legacy', $1::jsonb)
	`, legacy)
	if err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	p, err := store.GetPageBySlug(ctx, "legacy")
	if err != nil {
		t.Fatalf("GetPageBySlug: %v", err)
	}
	tree, shape := p.Tree()
	if shape != content.ShapeLegacy {
		t.Errorf("shape: got %q", shape)
	}
	if tree.BlockCount() != 1 {
		t.Errorf("blocks: got %d", tree.BlockCount())
	}
}

func TestPostgresStore_QueryTimeout(t *testing.T) {
	store := NewPostgresStore(testPool, time.Nanosecond)
	time.Sleep(time.Millisecond)

	if _, err := store.ListPages(context.Background(), ListOptions{}); err == nil {
		t.Error("expected timeout error")
	}
}
