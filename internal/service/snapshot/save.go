package snapshot

import (
	"context"
	"fmt"
	"log/slog"
)

// SaveResult reports what a successful save replaced.
type SaveResult struct {
	TasksSaved      int
	ReviewsSaved    int
	TasksReplaced   int
	ReviewsReplaced int
}

// Save replaces the user's stored snapshot with input. Either the whole
// snapshot lands or the previous one stays untouched.
func (s *Service) Save(ctx context.Context, input SaveInput) (*SaveResult, error) {
	if err := input.Validate(s.maxItems); err != nil {
		return nil, err
	}

	userID := input.UserID
	result := &SaveResult{
		TasksSaved:   len(input.Tasks),
		ReviewsSaved: len(input.Reviews),
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockUser(ctx, userID); err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		var err error
		if result.TasksReplaced, err = s.repo.DeleteTasks(ctx, userID); err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}
		if result.ReviewsReplaced, err = s.repo.DeleteReviews(ctx, userID); err != nil {
			return fmt.Errorf("delete reviews: %w", err)
		}

		if err := s.repo.InsertTasks(ctx, userID, input.Tasks); err != nil {
			return fmt.Errorf("insert tasks: %w", err)
		}
		if err := s.repo.InsertReviews(ctx, userID, input.Reviews); err != nil {
			return fmt.Errorf("insert reviews: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "snapshot save failed",
			slog.String("user_id", userID),
			slog.Int("tasks", len(input.Tasks)),
			slog.Int("reviews", len(input.Reviews)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	s.log.InfoContext(ctx, "snapshot saved",
		slog.String("user_id", userID),
		slog.Int("tasks", result.TasksSaved),
		slog.Int("reviews", result.ReviewsSaved),
		slog.Int("tasks_replaced", result.TasksReplaced),
		slog.Int("reviews_replaced", result.ReviewsReplaced),
	)

	return result, nil
}
