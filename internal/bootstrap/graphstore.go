// Package bootstrap holds the outbound-connection wiring shared by
// cmd/dms-api and cmd/dms-ingest so each entrypoint stays a thin
// construct-and-serve loop.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/arangodb/go-driver"
	driverhttp "github.com/arangodb/go-driver/http"
	"github.com/go-logr/logr"

	"github.com/Jistoria/document-service/internal/config"
	"github.com/Jistoria/document-service/pkg/graphstore"
	"github.com/Jistoria/document-service/pkg/resilience"
)

// NewGraphStore dials Arango over HTTP with root/password authentication,
// matching the compose-style deployment spec.md §6.3 describes, and wraps
// the result in graphstore.NewArangoStore.
func NewGraphStore(cfg config.ArangoConfig, log logr.Logger, breaker *resilience.Manager) (graphstore.Store, error) {
	conn, err := driverhttp.NewConnection(driverhttp.ConnectionConfig{
		Endpoints: []string{cfg.HostURL},
	})
	if err != nil {
		return nil, fmt.Errorf("opening arango connection: %w", err)
	}

	client, err := driver.NewClient(driver.ClientConfig{
		Connection:     conn,
		Authentication: driver.BasicAuthentication("root", cfg.RootPassword),
	})
	if err != nil {
		return nil, fmt.Errorf("creating arango client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := client.Database(ctx, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.DBName, err)
	}

	return graphstore.NewArangoStore(db, log, breaker), nil
}
