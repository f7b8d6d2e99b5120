package config

import (
	"github.com/maxviazov/config-grid-service/internal/logger"
)

type Config struct {
	App       AppConfig           `mapstructure:"app"`
	HTTP      HTTPConfig          `mapstructure:"http"`
	Logger    logger.LoggerConfig `mapstructure:"logger" validate:"-"`
	Postgres  PostgresConfig      `mapstructure:"postgres"`
	Grid      GridConfig          `mapstructure:"grid"`
	Resources []ResourceConfig    `mapstructure:"resources" validate:"min=1,dive"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
}

// HTTPConfig holds server timeouts (seconds) and the edge middleware knobs.
type HTTPConfig struct {
	ReadTimeout        int      `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout       int      `mapstructure:"write_timeout" validate:"min=0"`
	ShutdownTimeout    int      `mapstructure:"shutdown_timeout" validate:"min=0"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	// RateLimitPerMinute applies per client IP to grid endpoints; 0 disables it.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" validate:"min=0"`
	RateLimitBurst     int `mapstructure:"rate_limit_burst" validate:"min=0"`
}

type PostgresConfig struct {
	// Enabled=false serves resources from an in-memory store seeded from config.
	Enabled           bool   `mapstructure:"enabled"`
	AutoMigrate       bool   `mapstructure:"auto_migrate"`
	Host              string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port              int    `mapstructure:"port" validate:"required_if=Enabled true"`
	User              string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password          string `mapstructure:"password" validate:"required_if=Enabled true"`
	DBName            string `mapstructure:"dbname" validate:"required_if=Enabled true"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns" validate:"min=0"`
	MinConns          int32  `mapstructure:"min_conns" validate:"min=0"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
}

// GridConfig bounds what a single grid request may ask for.
type GridConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size" validate:"min=1,ltefield=MaxPageSize"`
	MaxPageSize     int `mapstructure:"max_page_size" validate:"min=1"`
	ExportMaxRows   int `mapstructure:"export_max_rows" validate:"min=1"`
}

// ResourceConfig declares one listable resource: its storage, columns and list page assets.
type ResourceConfig struct {
	Name             string           `mapstructure:"name" validate:"required"`
	Title            string           `mapstructure:"title"`
	Table            string           `mapstructure:"table" validate:"required"`
	PrimaryKey       string           `mapstructure:"primary_key" validate:"required"`
	DefaultSort      string           `mapstructure:"default_sort" validate:"required"`
	DefaultDirection string           `mapstructure:"default_direction" validate:"omitempty,oneof=asc desc"`
	DefaultLimit     int              `mapstructure:"default_limit" validate:"min=0"`
	Template         string           `mapstructure:"template"`
	CSS              []string         `mapstructure:"css"`
	JS               []string         `mapstructure:"js"`
	Columns          []ColumnConfig   `mapstructure:"columns" validate:"min=1,dive"`
	Seed             []map[string]any `mapstructure:"seed"`
}

type ColumnConfig struct {
	Name       string `mapstructure:"name" validate:"required"`
	Type       string `mapstructure:"type" validate:"omitempty,oneof=text int bool time"`
	Sortable   bool   `mapstructure:"sortable"`
	Filterable bool   `mapstructure:"filterable"`
	Searchable bool   `mapstructure:"searchable"`
}
