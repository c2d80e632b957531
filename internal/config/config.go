package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config aggregates the server's runtime settings.
type Config struct {
	Addr        string
	StoreDriver string
	SQLitePath  string
	CORSOrigins []string
}

// Load reads configuration from GAZE_* environment variables with an optional
// config.yaml on top of the built-in defaults. Environment wins over file.
func Load() (*Config, error) {
	return load(".")
}

func load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.sqlite_path", "gazetrack.db")
	v.SetDefault("cors.origins", []string{"*"})

	v.SetEnvPrefix("GAZE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Addr:        v.GetString("addr"),
		StoreDriver: v.GetString("store.driver"),
		SQLitePath:  v.GetString("store.sqlite_path"),
		CORSOrigins: v.GetStringSlice("cors.origins"),
	}
	if !strings.Contains(cfg.Addr, ":") {
		cfg.Addr = ":" + cfg.Addr
	}
	switch cfg.StoreDriver {
	case DriverMemory, DriverSQLite:
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	return cfg, nil
}
