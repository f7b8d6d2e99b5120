package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/maxviazov/config-grid-service/internal/config"
	"github.com/maxviazov/config-grid-service/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const memoryConfig = `
postgres:
  enabled: false
resources:
  - name: host
    table: hosts
    primary_key: id
    default_sort: name
    columns:
      - { name: id, type: int, sortable: true }
      - { name: name, sortable: true, filterable: true }
    seed:
      - { id: 1, name: web-01 }
      - { id: 2, name: db-01 }
  - name: command
    table: commands
    primary_key: id
    default_sort: id
    columns:
      - { name: id, type: int, sortable: true }
`

func loadConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestBuildBackend_MemoryMode(t *testing.T) {
	cfg := loadConfig(t, memoryConfig)

	be, err := buildBackend(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(be.close)

	assert.Equal(t, []string{"command", "host"}, be.registry.Names())
	require.NoError(t, be.pinger.Ping(context.Background()))

	d, ok := be.registry.Lookup("host")
	require.True(t, ok)
	assert.Equal(t, cfg.Grid.DefaultPageSize, d.DefaultLimit)
	n, err := d.Accessor.Count(context.Background(), "host", model.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBuildBackend_InvalidResource(t *testing.T) {
	cfg := loadConfig(t, memoryConfig)
	cfg.Resources[0].DefaultSort = "missing"

	_, err := buildBackend(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestPingers_JoinsFailures(t *testing.T) {
	down := errors.New("down")
	assert.NoError(t, pingers{stubPinger{}, stubPinger{}}.Ping(context.Background()))
	assert.ErrorIs(t, pingers{stubPinger{}, stubPinger{err: down}}.Ping(context.Background()), down)
}

func TestMigrateCmd_RejectsUnknownDirection(t *testing.T) {
	cmd := newMigrateCmd()
	cmd.SetArgs([]string{"sideways"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	assert.Error(t, cmd.Execute())
}
