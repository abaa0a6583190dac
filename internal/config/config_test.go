package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendMemory {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendMemory)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want text", cfg.LogFormat)
	}
	if !cfg.DynamoDBConsistentRead {
		t.Error("DynamoDBConsistentRead should default to true")
	}
	if cfg.MongoDatabase != "tether" {
		t.Errorf("MongoDatabase = %q, want tether", cfg.MongoDatabase)
	}
	if cfg.PrincipalsCollection() != "principals" {
		t.Errorf("PrincipalsCollection = %q, want principals", cfg.PrincipalsCollection())
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	t.Setenv("TETHER_BACKEND", "mongo")
	t.Setenv("TETHER_MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("TETHER_MONGO_MAX_POOL_SIZE", "25")
	t.Setenv("TETHER_COLLECTION_PREFIX", "test-")
	t.Setenv("TETHER_DYNAMODB_CONSISTENT_READ", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendMongo {
		t.Errorf("Backend = %q, want mongo", cfg.Backend)
	}
	if cfg.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("MongoURI = %q", cfg.MongoURI)
	}
	if cfg.MongoMaxPoolSize != 25 {
		t.Errorf("MongoMaxPoolSize = %d, want 25", cfg.MongoMaxPoolSize)
	}
	if cfg.DynamoDBConsistentRead {
		t.Error("DynamoDBConsistentRead should be overridden to false")
	}
	if cfg.AuthTypesCollection() != "test-auth_types" {
		t.Errorf("AuthTypesCollection = %q, want test-auth_types", cfg.AuthTypesCollection())
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tether.yaml")
	content := "backend: dynamodb\ndynamodb_endpoint: http://localhost:8000\ndynamodb_page_size: 50\nlog_format: json\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TETHER_DYNAMODB_PAGE_SIZE", "75")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendDynamoDB {
		t.Errorf("Backend = %q, want dynamodb", cfg.Backend)
	}
	if cfg.DynamoDBEndpoint != "http://localhost:8000" {
		t.Errorf("DynamoDBEndpoint = %q", cfg.DynamoDBEndpoint)
	}
	if cfg.DynamoDBPageSize != 75 {
		t.Errorf("DynamoDBPageSize = %d, want env override 75", cfg.DynamoDBPageSize)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory ok", Config{Backend: BackendMemory, LogLevel: "info", LogFormat: "text"}, ""},
		{"unknown backend", Config{Backend: "redis", LogLevel: "info", LogFormat: "text"}, "unknown backend"},
		{"mongo without uri", Config{Backend: BackendMongo, MongoDatabase: "db", LogLevel: "info", LogFormat: "text"}, "mongo_uri"},
		{"mongo without database", Config{Backend: BackendMongo, MongoURI: "mongodb://x", LogLevel: "info", LogFormat: "text"}, "mongo_database"},
		{"bad level", Config{Backend: BackendMemory, LogLevel: "loud", LogFormat: "text"}, "log_level"},
		{"bad format", Config{Backend: BackendMemory, LogLevel: "info", LogFormat: "xml"}, "log_format"},
		{"negative page size", Config{Backend: BackendDynamoDB, LogLevel: "info", LogFormat: "text", DynamoDBPageSize: -1}, "dynamodb_page_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: "warn", LogFormat: "json"}
	logger := cfg.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"key":"value"`) {
		t.Errorf("expected JSON warn record, got %s", out)
	}
	if !logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected error level to be enabled")
	}
}
