package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Storage  StorageConfig  `yaml:"storage"`
	Postgres PostgresConfig `yaml:"postgres"`
	AMQP     AMQPConfig     `yaml:"amqp"`
}

type AppConfig struct {
	Name     string `yaml:"name"`
	Port     string `yaml:"port"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
}

type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

// AMQPConfig describes where change events go. An empty URL disables publishing.
type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.App.Name = "order-desk"
	cfg.App.Port = "5000"
	cfg.App.Env = "development"
	cfg.App.LogLevel = "info"
	cfg.Storage.Backend = BackendPostgres
	cfg.Postgres.SSLMode = "disable"
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = 30 * time.Minute
	cfg.Postgres.MigrationsPath = "migrations"
	cfg.AMQP.Exchange = "order-desk.events"
	return cfg
}

// NewConfig builds the configuration from defaults, an optional .env file,
// an optional YAML file named by CONFIG_PATH and finally the environment.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := defaults()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads a YAML config file on top of the defaults without consulting the environment.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.App.Port, "APP_PORT")
	setString(&cfg.App.Env, "APP_ENV")
	setString(&cfg.App.LogLevel, "LOG_LEVEL")
	setString(&cfg.Storage.Backend, "STORAGE_BACKEND")

	setString(&cfg.Postgres.Host, "DB_HOST")
	setString(&cfg.Postgres.Port, "DB_PORT")
	setString(&cfg.Postgres.User, "DB_USER")
	setString(&cfg.Postgres.Password, "DB_PASSWORD")
	setString(&cfg.Postgres.DBName, "DB_NAME")
	setString(&cfg.Postgres.SSLMode, "DB_SSLMODE")
	setString(&cfg.Postgres.MigrationsPath, "MIGRATIONS_PATH")

	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid DB_MAX_CONNS %q: %w", v, err)
		}
		cfg.Postgres.MaxConns = int32(n)
	}
	if v := os.Getenv("DB_MIN_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid DB_MIN_CONNS %q: %w", v, err)
		}
		cfg.Postgres.MinConns = int32(n)
	}
	if v := os.Getenv("DB_MAX_CONN_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DB_MAX_CONN_LIFETIME %q: %w", v, err)
		}
		cfg.Postgres.MaxConnLifetime = d
	}

	setString(&cfg.AMQP.URL, "AMQP_URL")
	setString(&cfg.AMQP.Exchange, "AMQP_EXCHANGE")

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Backend) {
	case BackendMemory:
		c.Storage.Backend = BackendMemory
		return nil
	case BackendPostgres:
		c.Storage.Backend = BackendPostgres
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	required := map[string]string{
		"DB_HOST":     c.Postgres.Host,
		"DB_PORT":     c.Postgres.Port,
		"DB_USER":     c.Postgres.User,
		"DB_PASSWORD": c.Postgres.Password,
		"DB_NAME":     c.Postgres.DBName,
	}
	var missing []string
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME"} {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is required", strings.Join(missing, ", "))
	}

	return nil
}
