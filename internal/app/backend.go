package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/fqclock-backend/internal/adapter/memory"
	"github.com/heartmarshall/fqclock-backend/internal/adapter/postgres"
	pgsnapshot "github.com/heartmarshall/fqclock-backend/internal/adapter/postgres/snapshot"
	pguser "github.com/heartmarshall/fqclock-backend/internal/adapter/postgres/user"
	"github.com/heartmarshall/fqclock-backend/internal/config"
	"github.com/heartmarshall/fqclock-backend/internal/domain"
	"github.com/heartmarshall/fqclock-backend/migrations"
)

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type snapshotStore interface {
	LockUser(ctx context.Context, userID string) error
	DeleteTasks(ctx context.Context, userID string) (int, error)
	DeleteReviews(ctx context.Context, userID string) (int, error)
	InsertTasks(ctx context.Context, userID string, tasks []domain.Task) error
	InsertReviews(ctx context.Context, userID string, reviews []domain.Review) error
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	ListReviews(ctx context.Context, userID string) ([]domain.Review, error)
}

type userStore interface {
	Upsert(ctx context.Context, username string) (*domain.User, error)
}

// backend is the storage picked at startup. It is fixed for the life of the
// process: there is no re-probe and no switch back to the database.
type backend struct {
	mode      domain.StorageMode
	tx        txRunner
	snapshots snapshotStore
	users     userStore
	pool      *pgxpool.Pool // nil in memory mode
}

func (b *backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

// openBackend probes the database once. A reachable database is migrated
// and used; an unreachable one falls back to process memory unless cfg
// demands durable storage.
func openBackend(ctx context.Context, cfg config.DatabaseConfig, chunkSize int, log *slog.Logger) (*backend, error) {
	if cfg.DSN == "" {
		log.WarnContext(ctx, "no database configured, using in-memory storage; data is lost on restart")
		return memoryBackend(), nil
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		if cfg.RequireDurable {
			return nil, fmt.Errorf("open database: %w", err)
		}
		log.WarnContext(ctx, "database unreachable, using in-memory storage; data is lost on restart",
			slog.String("error", err.Error()),
		)
		return memoryBackend(), nil
	}

	applied, err := postgres.Migrate(ctx, pool, migrations.FS)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	log.InfoContext(ctx, "using database storage",
		slog.Int("migrations_applied", applied),
		slog.Int("max_conns", int(cfg.MaxConns)),
	)

	return &backend{
		mode:      domain.StorageDurable,
		tx:        postgres.NewTxManager(pool),
		snapshots: pgsnapshot.New(pool, chunkSize),
		users:     pguser.New(pool),
		pool:      pool,
	}, nil
}

func memoryBackend() *backend {
	store := memory.New()
	return &backend{
		mode:      domain.StorageMemory,
		tx:        store,
		snapshots: store,
		users:     store,
	}
}
