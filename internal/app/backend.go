package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/config"
	dbRedis "github.com/kailas-cloud/ragdex/internal/db/redis"
	domcol "github.com/kailas-cloud/ragdex/internal/domain/collection"
	"github.com/kailas-cloud/ragdex/internal/domain/record"
	collectionrepo "github.com/kailas-cloud/ragdex/internal/repository/collection"
	"github.com/kailas-cloud/ragdex/internal/repository/postgres"
	recordrepo "github.com/kailas-cloud/ragdex/internal/repository/record"
	"github.com/kailas-cloud/ragdex/internal/repository/sqlite"
)

type recordStore interface {
	Write(ctx context.Context, collection string, records []record.Record) error
	Search(ctx context.Context, collection string, vector []float32, k int) ([]record.Hit, error)
}

type collectionStore interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Collection, error)
	Delete(ctx context.Context, name string) error
}

type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// backend is one opened vector store driver.
type backend struct {
	records     recordStore
	collections collectionStore
	kv          kvStore
	ping        func(ctx context.Context) error
	close       func() error
}

// openBackend connects the configured driver and waits for it to be ready.
func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second

	switch cfg.Database.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Flavor:   dbRedis.Flavor(cfg.Database.Driver),
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
		}
		if err := store.WaitForReady(ctx, readiness); err != nil {
			store.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		cols := collectionrepo.New(store).WithHNSW(collectionrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		})
		return &backend{
			records:     recordrepo.New(store, cols, logger),
			collections: cols,
			kv:          store,
			ping:        store.Ping,
			close:       func() error { store.Close(); return nil },
		}, nil

	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.Database.DSN, readiness, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return &backend{
			records:     store.Records(),
			collections: store.Collections(),
			kv:          store,
			ping:        store.Ping,
			close:       store.Close,
		}, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &backend{
			records:     store.Records(),
			collections: store.Collections(),
			kv:          store,
			ping:        store.Ping,
			close:       store.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}
