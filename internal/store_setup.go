package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymscore/internal/config"
	"github.com/2beens/gymscore/internal/db"
	"github.com/2beens/gymscore/internal/gymscore/store"
	"github.com/2beens/gymscore/pkg"
)

// OpenedStore is the record store picked by config.StoreBackend. DBPool is
// only set for the postgres backend.
type OpenedStore struct {
	Store  store.Store
	DBPool *pgxpool.Pool
	closer io.Closer
}

type OpenStoreParams struct {
	Config           *config.Config
	PostgresUser     string
	PostgresPassword string
	TracingEnabled   bool
}

func OpenStore(ctx context.Context, params OpenStoreParams) (*OpenedStore, error) {
	cfg := params.Config
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         params.PostgresUser,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.TracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}

		psqlStore := store.NewPsqlStore(dbPool)
		if err := psqlStore.Migrate(ctx); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("migrate postgres store: %w", err)
		}
		return &OpenedStore{Store: psqlStore, DBPool: dbPool}, nil
	case config.StoreBackendSqlite:
		if err := ensureDir(filepath.Dir(cfg.SqlitePath)); err != nil {
			return nil, fmt.Errorf("sqlite dir: %w", err)
		}
		sqliteStore, err := store.OpenSqliteStore(ctx, cfg.SqlitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Debugf("using sqlite store: %s", cfg.SqlitePath)
		return &OpenedStore{Store: sqliteStore, closer: sqliteStore}, nil
	default:
		log.Warnln("using in-memory store, nothing will be persisted")
		return &OpenedStore{Store: store.NewMemoryStore()}, nil
	}
}

func ensureDir(dir string) error {
	exists, err := pkg.PathExists(dir, true)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	log.Debugf("creating dir: %s", dir)
	return os.MkdirAll(dir, 0o755)
}

func (o *OpenedStore) Close() {
	if o.closer != nil {
		if err := o.closer.Close(); err != nil {
			log.Errorf("failed to close store: %s", err)
		}
	}
	if o.DBPool != nil {
		log.Debugln("closing db pool ...")
		o.DBPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}
}
