// Package snapshot implements the replace-all sync of a user's tasks and
// reviews. A save discards the stored snapshot and writes the supplied one
// inside a single transaction; a load returns whatever was last committed.
package snapshot

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/fqclock-backend/internal/domain"
)

// DefaultMaxItems caps each collection when Options.MaxItems is not set.
const DefaultMaxItems = 10000

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type snapshotRepo interface {
	LockUser(ctx context.Context, userID string) error
	DeleteTasks(ctx context.Context, userID string) (int, error)
	DeleteReviews(ctx context.Context, userID string) (int, error)
	InsertTasks(ctx context.Context, userID string, tasks []domain.Task) error
	InsertReviews(ctx context.Context, userID string, reviews []domain.Review) error
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	ListReviews(ctx context.Context, userID string) ([]domain.Review, error)
}

// Options tunes the service.
type Options struct {
	// MaxItems caps the tasks and the reviews of one save, each.
	MaxItems int
}

// Service provides snapshot save and load.
type Service struct {
	tx       txManager
	repo     snapshotRepo
	maxItems int
	log      *slog.Logger
}

// NewService creates a new snapshot service.
func NewService(
	log *slog.Logger,
	tx txManager,
	repo snapshotRepo,
	opts Options,
) *Service {
	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Service{
		tx:       tx,
		repo:     repo,
		maxItems: maxItems,
		log:      log.With("service", "snapshot"),
	}
}
