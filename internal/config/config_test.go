package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/maxviazov/config-grid-service/internal/config"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

const resourcesYAML = `
resources:
  - name: host
    table: hosts
    primary_key: id
    default_sort: name
    columns:
      - { name: id, type: int, sortable: true }
      - { name: name, sortable: true, filterable: true, searchable: true }
    seed:
      - { id: 1, name: web-01 }
`

func TestConfigLoad_FromYAMLAndEnv(t *testing.T) {
	// Minimal YAML; secrets will come from ENV
	yaml := `
app:
  name: config-grid-service
  version: 0.1.0
  env: test
  port: 18080

logger:
  level: info
  format: json

postgres:
  host: 127.0.0.1
  port: 5432
  sslmode: disable
  max_conns: 5
` + resourcesYAML
	path := writeTempConfig(t, yaml)

	// Provide required secrets via ENV using the canonical APP_* names
	t.Setenv("APP_POSTGRES_USER", "testuser")
	t.Setenv("APP_POSTGRES_PASSWORD", "testpass")
	t.Setenv("APP_POSTGRES_DB", "testdb")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Port != 18080 {
		t.Fatalf("expected app.port 18080, got %d", cfg.App.Port)
	}
	if cfg.Postgres.User != "testuser" || cfg.Postgres.Password != "testpass" || cfg.Postgres.DBName != "testdb" {
		t.Fatalf("env overrides not applied: got user=%q pass=%q db=%q", cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	}
	if !cfg.Postgres.Enabled || cfg.Postgres.MaxConns != 5 {
		t.Fatalf("postgres defaults/yaml not applied: %+v", cfg.Postgres)
	}
	if cfg.Grid.DefaultPageSize != 10 || cfg.Grid.MaxPageSize != 100 || cfg.Grid.ExportMaxRows != 10000 {
		t.Fatalf("grid defaults not applied: %+v", cfg.Grid)
	}
	if len(cfg.Resources) != 1 || cfg.Resources[0].Name != "host" || len(cfg.Resources[0].Columns) != 2 {
		t.Fatalf("resources not loaded: %+v", cfg.Resources)
	}
	if len(cfg.Resources[0].Seed) != 1 || cfg.Resources[0].Seed[0]["name"] != "web-01" {
		t.Fatalf("seed rows not loaded: %+v", cfg.Resources[0].Seed)
	}
}

func TestConfigLoad_MissingRequiredEnvFails(t *testing.T) {
	yaml := `
postgres:
  host: 127.0.0.1
` + resourcesYAML
	path := writeTempConfig(t, yaml)

	t.Setenv("APP_POSTGRES_USER", "")
	t.Setenv("APP_POSTGRES_PASSWORD", "")
	t.Setenv("APP_POSTGRES_DB", "")
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("POSTGRES_DB", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_NAME", "")

	if _, err := config.Load(path); err == nil {
		t.Fatalf("expected validation error when postgres secrets are missing")
	}
}

func TestConfigLoad_MemoryModeNeedsNoSecrets(t *testing.T) {
	yaml := `
postgres:
  enabled: false
` + resourcesYAML
	path := writeTempConfig(t, yaml)
	t.Setenv("APP_POSTGRES_USER", "")
	t.Setenv("APP_POSTGRES_PASSWORD", "")
	t.Setenv("APP_POSTGRES_DB", "")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Postgres.Enabled {
		t.Fatalf("expected postgres disabled")
	}
}

func TestConfigLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "no resources", yaml: "postgres:\n  enabled: false\n"},
		{
			name: "default page above max",
			yaml: "postgres:\n  enabled: false\ngrid:\n  default_page_size: 500\n  max_page_size: 100\n" + resourcesYAML,
		},
		{
			name: "bad column type",
			yaml: `
postgres:
  enabled: false
resources:
  - name: host
    table: hosts
    primary_key: id
    default_sort: id
    columns:
      - { name: id, type: float }
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := config.Load(writeTempConfig(t, tt.yaml)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestConfigLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
