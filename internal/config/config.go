package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. HELPDESK_API_URL
	EnvPrefix = "HELPDESK"

	// DirName is the per-user configuration directory under $HOME
	DirName = ".helpdesk"
)

// Session backends
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Output formats
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// Config holds all configuration for the CLI
type Config struct {
	APIURL         string        `mapstructure:"api_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Environment    string        `mapstructure:"environment"`
	LogLevel       string        `mapstructure:"log_level"`
	Output         string        `mapstructure:"output"`
	PageSize       int           `mapstructure:"page_size"`
	Verbose        bool          `mapstructure:"verbose"`

	Auth    AuthConfig    `mapstructure:"auth"`
	Session SessionConfig `mapstructure:"session"`
}

// AuthConfig holds role resolution settings
type AuthConfig struct {
	// LegacyUsernameRoles derives staff roles from reserved usernames when
	// the server issues no role claim
	LegacyUsernameRoles bool `mapstructure:"legacy_username_roles"`
}

// SessionConfig holds session persistence settings
type SessionConfig struct {
	Backend string      `mapstructure:"backend"`
	File    string      `mapstructure:"file"`
	Profile string      `mapstructure:"profile"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Dir returns the per-user configuration directory
func Dir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error finding home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// SessionFile returns the path the file session backend writes to
func (c *Config) SessionFile() (string, error) {
	if c.Session.File != "" {
		return c.Session.File, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "http://localhost:8000/api")
	v.SetDefault("request_timeout", "15s")
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "warn")
	v.SetDefault("output", OutputTable)
	v.SetDefault("page_size", 10)
	v.SetDefault("verbose", false)
	v.SetDefault("auth.legacy_username_roles", true)
	v.SetDefault("session.backend", BackendFile)
	v.SetDefault("session.file", "")
	v.SetDefault("session.profile", "default")
	v.SetDefault("session.redis.addr", "localhost:6379")
	v.SetDefault("session.redis.password", "")
	v.SetDefault("session.redis.db", 0)
}

// LoadDotEnv loads .env files into the environment. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading %s: %w", f, err)
		}
	}
	return nil
}

// Load loads configuration from file, environment and defaults into v. An
// explicit file must exist; the default one is optional.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	SetDefaults(v)

	// Environment variable bindings
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch c.Session.Backend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("invalid session.backend %q (want file, redis or memory)", c.Session.Backend)
	}
	switch c.Output {
	case OutputTable, OutputJSON:
	default:
		return fmt.Errorf("invalid output %q (want table or json)", c.Output)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("invalid request_timeout %s", c.RequestTimeout)
	}
	if c.PageSize < 1 {
		c.PageSize = 10
	}
	return nil
}
