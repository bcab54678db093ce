// Package config loads the document management service's configuration from
// a YAML file, applies environment-variable overrides, and validates the
// result before any adapter is constructed. Configuration is read-only after
// init (spec.md §5: "no global mutable state beyond the two caches ... and
// configuration").
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	HTTPPort    string `yaml:"http_port"`
	MetricsPort string `yaml:"metrics_port"`
}

type ArangoConfig struct {
	HostURL      string `yaml:"host_url"`
	RootPassword string `yaml:"root_password"`
	DBName       string `yaml:"db_name"`
}

type MinioConfig struct {
	Endpoint     string `yaml:"endpoint"`
	RootUser     string `yaml:"root_user"`
	RootPassword string `yaml:"root_password"`
	BucketName   string `yaml:"bucket_name"`
	Secure       bool   `yaml:"secure"`
}

type KafkaConfig struct {
	BootstrapServers string `yaml:"bootstrap_servers"`
	ConsumerGroup    string `yaml:"consumer_group"`
	Topic            string `yaml:"topic"`
}

type AzureConfig struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	DirectoryURL string `yaml:"directory_url"`
	Scope        string `yaml:"scope"`
}

type AuthConfig struct {
	RedisURL string        `yaml:"redis_url"`
	JWKSURL  string        `yaml:"jwks_url"`
	JWKSTTL  time.Duration `yaml:"jwks_ttl"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Development bool   `yaml:"development"`
}

// Config is the fully resolved, validated configuration for the service.
// MicroserviceID and IntegritySecret have no sensible default: spec.md §9
// notes the microservice id "appears with different values in different
// config snapshots" and must be treated strictly as a configured input.
type Config struct {
	Server          ServerConfig  `yaml:"server"`
	Arango          ArangoConfig  `yaml:"arango"`
	Minio           MinioConfig   `yaml:"minio"`
	Kafka           KafkaConfig   `yaml:"kafka"`
	Azure           AzureConfig   `yaml:"azure"`
	Auth            AuthConfig    `yaml:"auth"`
	MicroserviceID  string        `yaml:"microservice_id"`
	IntegritySecret string        `yaml:"integrity_secret"`
	Logging         LoggingConfig `yaml:"logging"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{HTTPPort: "8080", MetricsPort: "9090"},
		Auth:   AuthConfig{JWKSTTL: time.Hour},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path, applies defaults, overlays environment variables, then
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromEnv overlays the environment variables named in spec.md §6.3 onto
// cfg. Unset variables leave the existing value (file or default) untouched.
func loadFromEnv(cfg *Config) error {
	setString(&cfg.Arango.HostURL, "ARANGO_HOST_URL")
	setString(&cfg.Arango.RootPassword, "ARANGO_ROOT_PASSWORD")
	setString(&cfg.Arango.DBName, "ARANGO_DB_NAME")

	setString(&cfg.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&cfg.Minio.RootUser, "MINIO_ROOT_USER")
	setString(&cfg.Minio.RootPassword, "MINIO_ROOT_PASSWORD")
	setString(&cfg.Minio.BucketName, "MINIO_BUCKET_NAME")
	if v, ok := os.LookupEnv("MINIO_SECURE"); ok {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MINIO_SECURE: %w", err)
		}
		cfg.Minio.Secure = secure
	}

	setString(&cfg.Kafka.BootstrapServers, "KAFKA_BOOTSTRAP_SERVERS")

	setString(&cfg.Azure.TenantID, "AZURE_TENANT_ID")
	setString(&cfg.Azure.ClientID, "AZURE_CLIENT_ID")
	setString(&cfg.Azure.ClientSecret, "AZURE_CLIENT_SECRET")
	setString(&cfg.Azure.DirectoryURL, "AZURE_DIRECTORY_URL")
	setString(&cfg.Azure.Scope, "AZURE_DIRECTORY_SCOPE")

	setString(&cfg.Auth.RedisURL, "AUTH_REDIS_URL")
	setString(&cfg.Auth.JWKSURL, "AUTH_JWKS_URL")

	setString(&cfg.MicroserviceID, "DMS_MICROSERVICE_ID")
	setString(&cfg.IntegritySecret, "DOCUMENT_INTEGRITY_SECRET")

	return nil
}

func setString(dst *string, envVar string) {
	if v, ok := os.LookupEnv(envVar); ok {
		*dst = v
	}
}

// validate checks the fields that have no safe default and must be supplied
// by the operator, either in the file or the environment.
func validate(cfg *Config) error {
	if cfg.Arango.HostURL == "" {
		return fmt.Errorf("arango host URL is required")
	}
	if cfg.Arango.DBName == "" {
		return fmt.Errorf("arango db name is required")
	}
	if cfg.Minio.Endpoint == "" {
		return fmt.Errorf("minio endpoint is required")
	}
	if cfg.Minio.BucketName == "" {
		return fmt.Errorf("minio bucket name is required")
	}
	if cfg.MicroserviceID == "" {
		return fmt.Errorf("microservice id is required")
	}
	if cfg.IntegritySecret == "" {
		return fmt.Errorf("integrity secret is required")
	}
	return nil
}
