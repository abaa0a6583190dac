// Package config loads and validates tether configuration from the
// environment and an optional config file using Viper.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/jacentio/tether/user"
)

// EnvPrefix prefixes every environment variable, e.g. TETHER_BACKEND.
const EnvPrefix = "TETHER"

// Supported backends.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
	BackendMongo    = "mongo"
)

// Config holds application configuration.
type Config struct {
	// Backend selects the document store: memory, dynamodb or mongo.
	Backend string `mapstructure:"backend"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `mapstructure:"log_level"`
	// LogFormat is text or json.
	LogFormat string `mapstructure:"log_format"`

	// CollectionPrefix is prepended to every collection or table name.
	CollectionPrefix string `mapstructure:"collection_prefix"`

	// DynamoDBRegion overrides the region from the AWS environment.
	DynamoDBRegion string `mapstructure:"dynamodb_region"`
	// DynamoDBEndpoint points the client at DynamoDB Local or LocalStack.
	DynamoDBEndpoint string `mapstructure:"dynamodb_endpoint"`
	// DynamoDBConsistentRead enables strongly consistent reads.
	DynamoDBConsistentRead bool `mapstructure:"dynamodb_consistent_read"`
	// DynamoDBPageSize limits items evaluated per Scan page; 0 means no limit.
	DynamoDBPageSize int32 `mapstructure:"dynamodb_page_size"`

	// MongoURI is the MongoDB connection string; required for the mongo backend.
	MongoURI string `mapstructure:"mongo_uri"`
	// MongoDatabase is the database holding the collections.
	MongoDatabase string `mapstructure:"mongo_database"`
	// MongoMaxPoolSize caps the driver connection pool; 0 keeps the driver default.
	MongoMaxPoolSize uint64 `mapstructure:"mongo_max_pool_size"`
}

// Load builds and validates Config from defaults, the optional config file
// and TETHER_* environment variables, in increasing precedence. An empty
// configFile skips the file.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend", BackendMemory)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("collection_prefix", "")
	v.SetDefault("dynamodb_region", "")
	v.SetDefault("dynamodb_endpoint", "")
	v.SetDefault("dynamodb_consistent_read", true)
	v.SetDefault("dynamodb_page_size", 0)
	v.SetDefault("mongo_uri", "")
	v.SetDefault("mongo_database", "tether")
	v.SetDefault("mongo_max_pool_size", 0)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field combinations.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendDynamoDB:
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("config: mongo_uri must be set for the mongo backend")
		}
		if c.MongoDatabase == "" {
			return errors.New("config: mongo_database must be set for the mongo backend")
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log_format %q", c.LogFormat)
	}

	if c.DynamoDBPageSize < 0 {
		return errors.New("config: dynamodb_page_size must not be negative")
	}
	return nil
}

// PrincipalsCollection returns the collection holding principal-owned entities.
func (c *Config) PrincipalsCollection() string {
	return c.CollectionPrefix + user.CollectionPrincipals
}

// AuthTypesCollection returns the collection holding auth types.
func (c *Config) AuthTypesCollection() string {
	return c.CollectionPrefix + user.CollectionAuthTypes
}

// NewLogger builds a slog logger writing to w in the configured format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid log_level %q", s)
	}
	return level, nil
}
