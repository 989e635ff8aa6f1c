package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const templateDB = "float_test"

// One container serves every test in the binary. Migrations run once into
// templateDB through the image's init scripts; each test then gets its own
// database cloned from it. The container reaper removes it when the test
// process exits.
var (
	containerOnce sync.Once
	container     *postgres.PostgresContainer
	containerErr  error
	cloneMu       sync.Mutex
)

func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	containerOnce.Do(func() { container, containerErr = startPostgres(ctx) })
	if containerErr != nil {
		t.Fatalf("start postgres container: %v", containerErr)
	}

	admin := openDB(t, ctx, "postgres")
	name := "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	// CREATE DATABASE ... TEMPLATE fails if another session is using the
	// template, so clones are taken one at a time.
	cloneMu.Lock()
	_, err := admin.ExecContext(ctx, fmt.Sprintf(`CREATE DATABASE %s TEMPLATE %s`, name, templateDB))
	cloneMu.Unlock()
	if err != nil {
		t.Fatalf("clone %s: %v", templateDB, err)
	}

	db := openDB(t, ctx, name)
	t.Cleanup(func() {
		db.Close()
		if _, err := admin.ExecContext(ctx, fmt.Sprintf(`DROP DATABASE IF EXISTS %s WITH (FORCE)`, name)); err != nil {
			t.Logf("drop %s: %v", name, err)
		}
		admin.Close()
	})
	return db
}

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, error) {
	scripts, err := migrationScripts()
	if err != nil {
		return nil, err
	}
	return postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase(templateDB),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(scripts...),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
}

func openDB(t *testing.T, ctx context.Context, name string) *sql.DB {
	t.Helper()
	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	connStr = strings.Replace(connStr, "/"+templateDB+"?", "/"+name+"?", 1)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping %s: %v", name, err)
	}
	return db
}

// migrationScripts lists migrations/*.up.sql in apply order, located
// relative to this source file so it works from any package directory.
func migrationScripts() ([]string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return nil, fmt.Errorf("locate testutil source")
	}
	dir := filepath.Join(filepath.Dir(file), "..", "..", "migrations")

	scripts, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	if len(scripts) == 0 {
		return nil, fmt.Errorf("no migrations found in %s", dir)
	}
	sort.Strings(scripts)
	return scripts, nil
}
