// Command dms-ingest runs the OCR ingestion pipeline (spec.md §4.5): it
// reads OCR result messages from Kafka and, for each one, transfers the
// artifact, validates its metadata, builds the naming chain, and stitches
// the resulting document into the graph.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/sony/gobreaker"

	"github.com/Jistoria/document-service/internal/bootstrap"
	"github.com/Jistoria/document-service/internal/config"
	"github.com/Jistoria/document-service/pkg/identity"
	"github.com/Jistoria/document-service/pkg/identity/directory"
	"github.com/Jistoria/document-service/pkg/ingestion"
	"github.com/Jistoria/document-service/pkg/metrics"
	"github.com/Jistoria/document-service/pkg/objectstore"
	"github.com/Jistoria/document-service/pkg/resilience"
	"github.com/Jistoria/document-service/pkg/shared/httpclient"
	"github.com/Jistoria/document-service/pkg/shared/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the service configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dms-ingest: loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.NewLogger(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dms-ingest: building logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log.WithName("dms-ingest")); err != nil {
		log.Error(err, "dms-ingest: fatal")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logr.Logger) error {
	breaker := resilience.NewManager(gobreaker.Settings{
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	m := metrics.NewMetrics("dms")

	store, err := bootstrap.NewGraphStore(cfg.Arango, log, breaker)
	if err != nil {
		return fmt.Errorf("connecting to graph store: %w", err)
	}

	objects, err := objectstore.NewMinioStore(objectstore.MinioConfig{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.RootUser,
		SecretKey: cfg.Minio.RootPassword,
		Bucket:    cfg.Minio.BucketName,
		Secure:    cfg.Minio.Secure,
	}, breaker)
	if err != nil {
		return fmt.Errorf("connecting to object store: %w", err)
	}

	dirClient := directory.NewHTTPClient(
		cfg.Azure.DirectoryURL,
		bootstrap.NewDirectoryHTTPClient(context.Background(), cfg.Azure),
		log,
		breaker,
	)
	resolver := identity.NewResolver(store, dirClient, log)

	transferClient := httpclient.NewClient(httpclient.TransferClientConfig())
	pipeline := ingestion.NewPipeline(store, objects, transferClient, resolver, m, log)

	consumer := ingestion.NewConsumer(ingestion.ConsumerConfig{
		Brokers: []string{cfg.Kafka.BootstrapServers},
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.ConsumerGroup,
	}, pipeline, log)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		log.Info("dms-ingest: consuming", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.ConsumerGroup)
		if err := consumer.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("dms-ingest: shutting down")
		cancel()
		return nil
	case err := <-errCh:
		cancel()
		return fmt.Errorf("consumer: %w", err)
	}
}
