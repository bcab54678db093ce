// Command dms-api serves the document search and authorization engine
// (spec.md §4.7, §6.2) over HTTP: listing and reading documents, the
// quality-check dry run, the confirm contract, and the storage proxy.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/Jistoria/document-service/internal/bootstrap"
	"github.com/Jistoria/document-service/internal/config"
	"github.com/Jistoria/document-service/pkg/audit"
	"github.com/Jistoria/document-service/pkg/confirmation"
	"github.com/Jistoria/document-service/pkg/identity"
	"github.com/Jistoria/document-service/pkg/identity/directory"
	"github.com/Jistoria/document-service/pkg/metrics"
	"github.com/Jistoria/document-service/pkg/objectstore"
	"github.com/Jistoria/document-service/pkg/resilience"
	"github.com/Jistoria/document-service/pkg/search/abac"
	"github.com/Jistoria/document-service/pkg/search/authctx"
	"github.com/Jistoria/document-service/pkg/search/download"
	"github.com/Jistoria/document-service/pkg/search/httpapi"
	"github.com/Jistoria/document-service/pkg/shared/httpclient"
	"github.com/Jistoria/document-service/pkg/shared/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the service configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dms-api: loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.NewLogger(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dms-api: building logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log.WithName("dms-api")); err != nil {
		log.Error(err, "dms-api: fatal")
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

	engine := confirmation.NewEngine(store, objects, resolver, []byte(cfg.IntegritySecret), log)

	redisOpts, err := redis.ParseURL(cfg.Auth.RedisURL)
	if err != nil {
		return fmt.Errorf("parsing auth redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	verifier := authctx.NewJWKSVerifier(
		httpclient.NewClient(httpclient.JWKSClientConfig()),
		cfg.Auth.JWKSURL,
		cfg.Azure.TenantID,
		cfg.Auth.JWKSTTL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	policy, err := abac.NewPolicyEngine(ctx)
	if err != nil {
		return fmt.Errorf("compiling abac policy: %w", err)
	}

	auditQueue := audit.NewQueue(audit.GraphSink{Store: store}, 256, log, m.AuditQueueDropped.Inc)
	go auditQueue.Run(ctx)

	proxy := &download.Proxy{
		Store:   store,
		Objects: objects,
		Audit:   auditQueue,
		Bucket:  cfg.Minio.BucketName,
		Now:     time.Now,
	}

	server := &httpapi.Server{
		Store:    store,
		Confirm:  engine,
		Download: proxy,
		Policy:   policy,
		AuthDeps: authctx.Dependencies{
			Sessions:       authctx.NewRedisSessionCache(redisClient),
			Verifier:       verifier,
			Store:          store,
			MicroserviceID: cfg.MicroserviceID,
			Log:            log,
		},
		Permissions: authctx.NewRedisPermissionsKV(redisClient),
		Tenant:      cfg.MicroserviceID,
		Metrics:     m,
		Log:         log,
		Now:         time.Now,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("dms-api: listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("dms-api: shutting down")
	case err := <-errCh:
		cancel()
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	cancel()
	return httpServer.Shutdown(shutdownCtx)
}
