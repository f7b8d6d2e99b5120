package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads the YAML config at path, applies APP_* environment overrides
// and validates the result. Database secrets are expected from the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	setDefaults(v)

	// Secrets are usually absent from the file, so AutomaticEnv alone would not
	// surface them during Unmarshal. Legacy names are accepted as fallbacks.
	binds := map[string][]string{
		"postgres.user":     {"APP_POSTGRES_USER", "POSTGRES_USER", "DB_USER"},
		"postgres.password": {"APP_POSTGRES_PASSWORD", "POSTGRES_PASSWORD", "DB_PASSWORD"},
		"postgres.dbname":   {"APP_POSTGRES_DB", "POSTGRES_DB", "DB_NAME"},
	}
	for key, envs := range binds {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var config Config
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "config-grid-service")
	v.SetDefault("app.version", "0.0.1")
	v.SetDefault("app.port", 8080)

	v.SetDefault("http.read_timeout", 15)
	v.SetDefault("http.write_timeout", 30)
	v.SetDefault("http.shutdown_timeout", 30)

	v.SetDefault("postgres.enabled", true)
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)

	v.SetDefault("grid.default_page_size", 10)
	v.SetDefault("grid.max_page_size", 100)
	v.SetDefault("grid.export_max_rows", 10000)
}
