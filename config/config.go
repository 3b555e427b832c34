package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	structValidator "github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

const (
	CONFIG_PATH = "./res/config.yaml"

	DatabaseTypeMongo    = "mongo"
	DatabaseTypePostgres = "postgres"

	LogOutputStdout = "stdout"
	LogOutputStderr = "stderr"
)

// ServiceConfig holds the configuration for the service.
type ServiceConfig struct {
	ServiceName    string   `yaml:"service_name" validate:"required"`
	LogLevel       string   `yaml:"loglevel" validate:"required" env:"JOAUTH_LOG_LEVEL"`
	LogOutput      string   `yaml:"log_output" env:"JOAUTH_LOG_OUTPUT"`
	Host           string   `yaml:"host" validate:"required" env:"JOAUTH_HOST"`
	Port           string   `yaml:"port" validate:"required" env:"JOAUTH_PORT"`
	PrivateKeyPath string   `yaml:"private_key_path" validate:"required" env:"JOAUTH_PRIVATE_KEY_PATH"`
	Auth           Auth     `yaml:"auth"`
	Database       Database `yaml:"database" validate:"required"`
}

// Auth holds the account settings.
type Auth struct {
	// SaltRounds is the bcrypt cost factor.
	SaltRounds int `yaml:"salt_rounds" validate:"omitempty,min=4,max=31" env:"JOAUTH_SALT_ROUNDS"`
	// SchemaDir overrides the embedded JSON schemas when set.
	SchemaDir      string        `yaml:"schema_dir" env:"JOAUTH_SCHEMA_DIR"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	LoginRateLimit float64       `yaml:"login_rate_limit" validate:"gte=0"`
	LoginBurst     int           `yaml:"login_burst" validate:"gte=0"`
}

type Database struct {
	Type string `yaml:"type" validate:"required,oneof=mongo postgres" env:"JOAUTH_DATABASE_TYPE"`
	// For MongoDB
	MongoDB MongoDBConfig `yaml:"mongodb_config"`
	// For PostgreSQL
	Postgres PostgresConfig `yaml:"postgres_config"`
}

// MongoDBConfig holds the MongoDB connection settings.
type MongoDBConfig struct {
	DSN              string             `yaml:"dsn" env:"JOAUTH_MONGO_DSN"`
	DatabaseName     string             `yaml:"database_name"`
	Timeout          time.Duration      `yaml:"timeout"`
	Options          MongoServerOptions `yaml:"mongo_server_options"`
	ValidCollections []string           `yaml:"valid_collections"`
	ValidFields      []string           `yaml:"valid_fields"`
}

type PostgresConfig struct {
	DSN         string                `yaml:"dsn" env:"JOAUTH_POSTGRES_DSN"`
	Options     PostgresServerOptions `yaml:"postgres_server_options"`
	ValidTables []string              `yaml:"valid_tables"`
	ValidFields []string              `yaml:"valid_fields"`
}

type MongoServerOptions struct {
	APIVersion           string `yaml:"api_version"`
	SetStrict            bool   `yaml:"set_strict"`
	SetDeprecationErrors bool   `yaml:"set_deprecation_errors"`
}

type PostgresServerOptions struct {
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// ReadLocalConfig reads the service configuration from a YAML file at the specified path.
// It unmarshals the YAML content into a ServiceConfig struct and returns it.
// If there is an error reading the file or unmarshaling the content, it returns an error.
func ReadLocalConfig(configPath string) (*ServiceConfig, error) {
	config := &ServiceConfig{}

	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(yamlFile, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// LoadConfig reads the YAML file, applies JOAUTH_* environment overrides and
// validates the result.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	cfg, err := ReadLocalConfig(configPath)
	if err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags and the backend specific requirements.
func Validate(cfg *ServiceConfig) error {
	validator := structValidator.New()
	if err := validator.Struct(cfg); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	switch cfg.Database.Type {
	case DatabaseTypeMongo:
		if cfg.Database.MongoDB.DSN == "" {
			return fmt.Errorf("validation error: mongodb_config.dsn is required")
		}
		if len(cfg.Database.MongoDB.ValidCollections) == 0 || len(cfg.Database.MongoDB.ValidFields) == 0 {
			return fmt.Errorf("validation error: mongodb_config needs valid_collections and valid_fields")
		}
	case DatabaseTypePostgres:
		if cfg.Database.Postgres.DSN == "" {
			return fmt.Errorf("validation error: postgres_config.dsn is required")
		}
		if len(cfg.Database.Postgres.ValidTables) == 0 || len(cfg.Database.Postgres.ValidFields) == 0 {
			return fmt.Errorf("validation error: postgres_config needs valid_tables and valid_fields")
		}
	}
	return nil
}

func BuildServerAPIOptions(cfg MongoServerOptions) *options.ServerAPIOptions {
	if cfg.APIVersion == "" {
		return nil
	}
	opts := options.ServerAPI(options.ServerAPIVersion(cfg.APIVersion))
	opts.SetStrict(cfg.SetStrict)
	opts.SetDeprecationErrors(cfg.SetDeprecationErrors)

	return opts
}
