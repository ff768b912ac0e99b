/*
Package config loads runtime settings for the server and CLI.

PURPOSE:
  One place that resolves, in increasing priority:
  1. Built-in defaults
  2. A YAML config file (explicit path, ./overtime.yaml or
     $HOME/.config/overtime/config.yaml)
  3. A .env file in the working directory
  4. OVERTIME_* environment variables (server.port -> OVERTIME_SERVER_PORT)

  Command-line flags are applied by the caller after Load.

KEYS:
  server.port             HTTP port (default "8080")
  server.allowed_origins  CORS origins (default ["*"])
  server.form_ttl         Idle lifetime of an API form session (default 30m)
  database.path           SQLite file (default "./data/overtime.db")
  logging.level           debug | info | warn | error
  logging.format          text | json
  engine.rate_table       Active rate table id (default "ranked-v3")
  engine.rate_table_file  Optional JSON/YAML document loaded at startup
  engine.locale           BCP 47 tag for number formatting (default "en")
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

const EnvPrefix = "OVERTIME"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Engine   EngineConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	FormTTL        time.Duration
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type EngineConfig struct {
	RateTable     string
	RateTableFile string
	Locale        string
}

// Defaults registers the built-in values on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.form_ttl", 30*time.Minute)
	v.SetDefault("database.path", "./data/overtime.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("engine.rate_table", "ranked-v3")
	v.SetDefault("engine.rate_table_file", "")
	v.SetDefault("engine.locale", "en")
}

// NewViper returns a viper instance with defaults and env binding but no
// config file. Callers bind their flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	Defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration using a fresh viper instance.
// An empty path searches the default locations; a missing file is not an error.
func Load(path string) (*Config, error) {
	return LoadWith(NewViper(), path)
}

// LoadWith reads the config file and .env into v and decodes the result.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("overtime")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "overtime"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("server.port"),
			AllowedOrigins: v.GetStringSlice("server.allowed_origins"),
			FormTTL:        v.GetDuration("server.form_ttl"),
		},
		Database: DatabaseConfig{
			Path: v.GetString("database.path"),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString("logging.level")),
			Format: strings.ToLower(v.GetString("logging.format")),
		},
		Engine: EngineConfig{
			RateTable:     v.GetString("engine.rate_table"),
			RateTableFile: v.GetString("engine.rate_table_file"),
			Locale:        v.GetString("engine.locale"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Server.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Server.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.Server.FormTTL < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid form ttl %v: must be at least 1 minute", c.Server.FormTTL))
	}

	if c.Database.Path == "" {
		problems = append(problems, "database path cannot be empty")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.Logging.Level))
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", c.Logging.Format))
	}

	if c.Engine.RateTable == "" && c.Engine.RateTableFile == "" {
		problems = append(problems, "engine.rate_table or engine.rate_table_file is required")
	}

	if c.Engine.Locale != "" {
		if _, err := language.Parse(c.Engine.Locale); err != nil {
			problems = append(problems, fmt.Sprintf("invalid locale '%s': %v", c.Engine.Locale, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// EnsureDataDir creates the directory holding the database file.
func (c *Config) EnsureDataDir() error {
	if c.Database.Path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(c.Database.Path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create database directory '%s': %w", dir, err)
	}
	return nil
}
