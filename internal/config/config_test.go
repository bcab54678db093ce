package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Config", func() {
	var (
		tempDir    string
		configFile string
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test")
		Expect(err).NotTo(HaveOccurred())
		configFile = filepath.Join(tempDir, "config.yaml")
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("when config file exists with valid content", func() {
			BeforeEach(func() {
				validConfig := `
server:
  http_port: "8080"
  metrics_port: "9090"

arango:
  host_url: "http://localhost:8529"
  root_password: "rootpass"
  db_name: "dms"

minio:
  endpoint: "localhost:9000"
  root_user: "minioadmin"
  root_password: "minioadmin"
  bucket_name: "dms"
  secure: false

kafka:
  bootstrap_servers: "localhost:9092"
  consumer_group: "dms-ingestion"
  topic: "ocr-tasks"

azure:
  tenant_id: "tenant-1"
  client_id: "client-1"
  client_secret: "secret-1"

auth:
  redis_url: "redis://localhost:6379/0"
  jwks_url: "http://localhost:8080/.well-known/jwks.json"
  jwks_ttl: "1h"

microservice_id: "dms"
integrity_secret: "supersecret"

logging:
  level: "info"
  format: "json"
  development: false
`
				err := os.WriteFile(configFile, []byte(validConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should load configuration successfully", func() {
				config, err := Load(configFile)
				Expect(err).NotTo(HaveOccurred())
				Expect(config).NotTo(BeNil())

				Expect(config.Server.HTTPPort).To(Equal("8080"))
				Expect(config.Server.MetricsPort).To(Equal("9090"))

				Expect(config.Arango.HostURL).To(Equal("http://localhost:8529"))
				Expect(config.Arango.DBName).To(Equal("dms"))

				Expect(config.Minio.Endpoint).To(Equal("localhost:9000"))
				Expect(config.Minio.BucketName).To(Equal("dms"))
				Expect(config.Minio.Secure).To(BeFalse())

				Expect(config.Kafka.BootstrapServers).To(Equal("localhost:9092"))
				Expect(config.Kafka.ConsumerGroup).To(Equal("dms-ingestion"))

				Expect(config.Azure.TenantID).To(Equal("tenant-1"))

				Expect(config.Auth.RedisURL).To(Equal("redis://localhost:6379/0"))
				Expect(config.Auth.JWKSURL).To(Equal("http://localhost:8080/.well-known/jwks.json"))
				Expect(config.Auth.JWKSTTL).To(Equal(time.Hour))

				Expect(config.MicroserviceID).To(Equal("dms"))
				Expect(config.IntegritySecret).To(Equal("supersecret"))

				Expect(config.Logging.Level).To(Equal("info"))
				Expect(config.Logging.Format).To(Equal("json"))
			})
		})

		Context("when config file has minimal content", func() {
			BeforeEach(func() {
				minimalConfig := `
arango:
  host_url: "http://localhost:8529"
  db_name: "dms"

minio:
  endpoint: "localhost:9000"
  bucket_name: "dms"

microservice_id: "dms"
integrity_secret: "supersecret"
`
				err := os.WriteFile(configFile, []byte(minimalConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should load with defaults for missing values", func() {
				config, err := Load(configFile)
				Expect(err).NotTo(HaveOccurred())

				Expect(config.Server.HTTPPort).To(Equal("8080"))
				Expect(config.Server.MetricsPort).To(Equal("9090"))
				Expect(config.Auth.JWKSTTL).To(Equal(time.Hour))
				Expect(config.Logging.Level).To(Equal("info"))
				Expect(config.Logging.Format).To(Equal("json"))
			})
		})

		Context("when config file does not exist", func() {
			It("should return an error", func() {
				_, err := Load("/nonexistent/config.yaml")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to read config file"))
			})
		})

		Context("when config file has invalid YAML", func() {
			BeforeEach(func() {
				invalidConfig := `
server:
  http_port: "8080"
  invalid_yaml: [
arango:
  host_url: "test"
`
				err := os.WriteFile(configFile, []byte(invalidConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return an error", func() {
				_, err := Load(configFile)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to parse config file"))
			})
		})

		Context("when config has an invalid duration format", func() {
			BeforeEach(func() {
				invalidDurationConfig := `
arango:
  host_url: "http://localhost:8529"
  db_name: "dms"
minio:
  endpoint: "localhost:9000"
  bucket_name: "dms"
microservice_id: "dms"
integrity_secret: "supersecret"
auth:
  jwks_ttl: "not-a-duration"
`
				err := os.WriteFile(configFile, []byte(invalidDurationConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return an error", func() {
				_, err := Load(configFile)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to parse config file"))
			})
		})
	})

	Describe("validate", func() {
		var config *Config

		BeforeEach(func() {
			config = &Config{
				Server: ServerConfig{HTTPPort: "8080", MetricsPort: "9090"},
				Arango: ArangoConfig{HostURL: "http://localhost:8529", DBName: "dms"},
				Minio:  MinioConfig{Endpoint: "localhost:9000", BucketName: "dms"},
				Kafka:  KafkaConfig{BootstrapServers: "localhost:9092"},
				Auth:   AuthConfig{JWKSTTL: time.Hour},
				MicroserviceID:  "dms",
				IntegritySecret: "supersecret",
				Logging:         LoggingConfig{Level: "info", Format: "json"},
			}
		})

		Context("when config is valid", func() {
			It("should pass validation", func() {
				Expect(validate(config)).NotTo(HaveOccurred())
			})
		})

		Context("when arango host URL is missing", func() {
			BeforeEach(func() { config.Arango.HostURL = "" })
			It("should return a validation error", func() {
				err := validate(config)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("arango host URL is required"))
			})
		})

		Context("when minio bucket name is missing", func() {
			BeforeEach(func() { config.Minio.BucketName = "" })
			It("should return a validation error", func() {
				err := validate(config)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("minio bucket name is required"))
			})
		})

		Context("when microservice id is missing", func() {
			BeforeEach(func() { config.MicroserviceID = "" })
			It("should return a validation error", func() {
				err := validate(config)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("microservice id is required"))
			})
		})

		Context("when integrity secret is missing", func() {
			BeforeEach(func() { config.IntegritySecret = "" })
			It("should return a validation error", func() {
				err := validate(config)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("integrity secret is required"))
			})
		})
	})

	Describe("loadFromEnv", func() {
		var config *Config

		BeforeEach(func() {
			config = &Config{}
			os.Clearenv()
		})

		AfterEach(func() { os.Clearenv() })

		Context("when environment variables are set", func() {
			BeforeEach(func() {
				os.Setenv("ARANGO_HOST_URL", "http://arango:8529")
				os.Setenv("ARANGO_ROOT_PASSWORD", "rootpass")
				os.Setenv("ARANGO_DB_NAME", "dms")
				os.Setenv("MINIO_ENDPOINT", "minio:9000")
				os.Setenv("MINIO_ROOT_USER", "admin")
				os.Setenv("MINIO_ROOT_PASSWORD", "adminpass")
				os.Setenv("MINIO_BUCKET_NAME", "dms")
				os.Setenv("MINIO_SECURE", "true")
				os.Setenv("KAFKA_BOOTSTRAP_SERVERS", "kafka:9092")
				os.Setenv("AZURE_TENANT_ID", "tenant-1")
				os.Setenv("AZURE_CLIENT_ID", "client-1")
				os.Setenv("AZURE_CLIENT_SECRET", "secret-1")
				os.Setenv("AUTH_REDIS_URL", "redis://redis:6379/0")
				os.Setenv("AUTH_JWKS_URL", "http://issuer/jwks.json")
				os.Setenv("DMS_MICROSERVICE_ID", "dms")
				os.Setenv("DOCUMENT_INTEGRITY_SECRET", "supersecret")
			})

			It("should load values from environment", func() {
				Expect(loadFromEnv(config)).NotTo(HaveOccurred())

				Expect(config.Arango.HostURL).To(Equal("http://arango:8529"))
				Expect(config.Arango.RootPassword).To(Equal("rootpass"))
				Expect(config.Minio.Endpoint).To(Equal("minio:9000"))
				Expect(config.Minio.Secure).To(BeTrue())
				Expect(config.Kafka.BootstrapServers).To(Equal("kafka:9092"))
				Expect(config.Azure.TenantID).To(Equal("tenant-1"))
				Expect(config.Auth.RedisURL).To(Equal("redis://redis:6379/0"))
				Expect(config.Auth.JWKSURL).To(Equal("http://issuer/jwks.json"))
				Expect(config.MicroserviceID).To(Equal("dms"))
				Expect(config.IntegritySecret).To(Equal("supersecret"))
			})
		})

		Context("when no environment variables are set", func() {
			It("should not modify config", func() {
				original := *config
				Expect(loadFromEnv(config)).NotTo(HaveOccurred())
				Expect(*config).To(Equal(original))
			})
		})
	})
})
