package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/config-grid-service/internal/model"
	"github.com/maxviazov/config-grid-service/internal/repository"
	"github.com/maxviazov/config-grid-service/internal/repository/contract"
)

var (
	pool   *pgxpool.Pool
	dsn    string
	skippy bool
)

func TestMain(m *testing.M) {
	if os.Getenv("CONTRACT_TESTS") != "1" {
		// allow skipping contract tests unless explicitly enabled
		skippy = true
		os.Exit(m.Run())
	}

	dsn = buildDSNFromEnv()
	if dsn == "" {
		fmt.Println("[contract] DATABASE_URL or APP_POSTGRES_* env not set; skipping")
		skippy = true
		os.Exit(m.Run())
	}

	ctx := context.Background()
	if err := Migrate(ctx, dsn, "up"); err != nil {
		fmt.Println("[contract] migrate up error:", err)
		os.Exit(1)
	}

	var err error
	pool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Println("[contract] pgxpool new error:", err)
		os.Exit(1)
	}

	code := m.Run()
	pool.Close()
	os.Exit(code)
}

func skipIfNeeded(t *testing.T) {
	if skippy {
		t.Skip("contract tests skipped; set CONTRACT_TESTS=1 and provide DB env")
	}
}

func buildDSNFromEnv() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	user := firstNonEmpty(os.Getenv("APP_POSTGRES_USER"), os.Getenv("POSTGRES_USER"), os.Getenv("DB_USER"))
	pass := firstNonEmpty(os.Getenv("APP_POSTGRES_PASSWORD"), os.Getenv("POSTGRES_PASSWORD"), os.Getenv("DB_PASSWORD"))
	host := firstNonEmpty(os.Getenv("APP_POSTGRES_HOST"), os.Getenv("POSTGRES_HOST"), "localhost")
	port := firstNonEmpty(os.Getenv("APP_POSTGRES_PORT"), os.Getenv("POSTGRES_PORT"), "5432")
	db := firstNonEmpty(os.Getenv("APP_POSTGRES_DB"), os.Getenv("POSTGRES_DB"), os.Getenv("DB_NAME"))
	ssl := firstNonEmpty(os.Getenv("APP_POSTGRES_SSLMODE"), os.Getenv("POSTGRES_SSLMODE"), "disable")
	if user == "" || pass == "" || db == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncateHosts(t *testing.T) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), "TRUNCATE TABLE hosts RESTART IDENTITY"); err != nil {
		t.Fatalf("truncate failed: %v", err)
	}
}

func seedHosts(t *testing.T, rows []model.Record) {
	t.Helper()
	const insert = `INSERT INTO hosts (id, name, alias, address, poller, activated, check_interval)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, r := range rows {
		if _, err := pool.Exec(context.Background(), insert,
			r["id"], r["name"], r["alias"], r["address"], r["poller"], r["activated"], r["check_interval"]); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
}

// Factories used by contract suites

func makeRecordRepo(t *testing.T, rows []model.Record) (repository.RecordAccessor, repository.TxManager, func()) {
	skipIfNeeded(t)
	truncateHosts(t)
	seedHosts(t, rows)
	return NewRecordRepository(pool, contract.HostSchema()), NewTxManager(pool), func() { truncateHosts(t) }
}

func makePinger(t *testing.T) (repository.Pinger, func()) {
	skipIfNeeded(t)
	return NewPinger(pool), func() {}
}

// Wire the contract suites to Postgres factories

func TestRecordRepository_PostgresContract(t *testing.T) {
	contract.RunRecordAccessorContract(t, makeRecordRepo)
}

func TestPinger_PostgresContract(t *testing.T) {
	contract.RunPingerContract(t, makePinger)
}
