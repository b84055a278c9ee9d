package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Backends supported for persisting students.
const (
	BackendFile    = "file"
	BackendSQLite  = "sqlite"
	BackendMongoDB = "mongodb"
)

// Config holds all srms configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Admin   AdminConfig   `yaml:"admin"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend    string `yaml:"backend"`     // file, sqlite or mongodb
	DataFile   string `yaml:"data_file"`   // file backend
	SQLitePath string `yaml:"sqlite_path"` // sqlite backend
	MongoURL   string `yaml:"mongo_url"`   // mongodb backend
	MongoDB    string `yaml:"mongo_db"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	RateLimit       int           `yaml:"rate_limit"` // requests per IP per RateWindow
	RateWindow      time.Duration `yaml:"rate_window"`
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenExpiry     time.Duration `yaml:"token_expiry"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AdminConfig is the account allowed to modify records over the API. Set
// either Password or PasswordHash (bcrypt).
type AdminConfig struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level    string `yaml:"level"`    // debug, info, warn, error
	Encoding string `yaml:"encoding"` // json or console
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:    BackendFile,
			DataFile:   "students.txt",
			SQLitePath: "students.db",
			MongoDB:    "srms",
		},
		Server: ServerConfig{
			Port:            "8080",
			RateLimit:       100,
			RateWindow:      time.Minute,
			TokenExpiry:     24 * time.Hour,
			ShutdownTimeout: 10 * time.Second,
		},
		Admin: AdminConfig{
			Username: "admin",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Load reads the YAML file at path on top of DefaultConfig and applies
// environment overrides. A missing file is not an error. The result is not
// validated so that callers can apply their own overrides before calling
// Validate.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks that the selected backend is configured.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.DataFile == "" {
			return errors.New("storage.data_file is required for the file backend")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite backend")
		}
	case BackendMongoDB:
		if c.Storage.MongoURL == "" || c.Storage.MongoDB == "" {
			return errors.New("storage.mongo_url and storage.mongo_db are required for the mongodb backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SRMS_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("SRMS_DATA_FILE"); v != "" {
		c.Storage.DataFile = v
	}
	if v := os.Getenv("SRMS_SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := os.Getenv("DB_URL"); v != "" {
		c.Storage.MongoURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("SRMS_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SRMS_RATE_LIMIT %q: %w", v, err)
		}
		c.Server.RateLimit = n
	}
	if v := os.Getenv("SRMS_JWT_SECRET"); v != "" {
		c.Server.JWTSecret = v
	}
	if v := os.Getenv("SRMS_ADMIN_USERNAME"); v != "" {
		c.Admin.Username = v
	}
	if v := os.Getenv("SRMS_ADMIN_PASSWORD"); v != "" {
		c.Admin.Password = v
	}
	if v := os.Getenv("SRMS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}
