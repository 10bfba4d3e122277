package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/fqclock-backend/internal/domain"
)

// Load returns the user's current snapshot. A user with nothing stored gets
// empty, non-nil collections.
func (s *Service) Load(ctx context.Context, userID string) (*domain.Snapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError("user_id", "required")
	}

	var (
		tasks   []domain.Task
		reviews []domain.Review
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tasks, err = s.repo.ListTasks(gctx, userID); err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if reviews, err = s.repo.ListReviews(gctx, userID); err != nil {
			return fmt.Errorf("list reviews: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.ErrorContext(ctx, "snapshot load failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	snap := domain.EmptySnapshot()
	if tasks != nil {
		snap.Tasks = tasks
	}
	if reviews != nil {
		snap.Reviews = reviews
	}
	return &snap, nil
}
