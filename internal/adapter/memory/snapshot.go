package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/heartmarshall/fqclock-backend/internal/domain"
)

var errNoTx = errors.New("lock requires a transaction")

// LockUser holds userID's lock until the surrounding RunInTx returns.
// Unknown users fail with domain.ErrNotFound.
func (s *Store) LockUser(ctx context.Context, userID string) error {
	t := txFromCtx(ctx)
	if t == nil {
		return fmt.Errorf("user %s: %w", userID, errNoTx)
	}
	if _, held := t.unlocks[userID]; held {
		return nil
	}
	if !s.userExists(userID) {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}

	unlock, err := s.locks.lock(ctx, userID)
	if err != nil {
		return fmt.Errorf("user %s: %w", userID, err)
	}
	t.unlocks[userID] = unlock

	return nil
}

// DeleteTasks removes every task of userID and returns how many were removed.
func (s *Store) DeleteTasks(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n := len(s.viewTasks(ctx, userID))
	s.writeTasks(ctx, userID, []domain.Task{})
	return n, nil
}

// DeleteReviews removes every review of userID and returns how many were removed.
func (s *Store) DeleteReviews(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n := len(s.viewReviews(ctx, userID))
	s.writeReviews(ctx, userID, []domain.Review{})
	return n, nil
}

// InsertTasks appends tasks for userID. A task id already present for the
// user fails with domain.ErrAlreadyExists and nothing from this call is kept.
func (s *Store) InsertTasks(ctx context.Context, userID string, tasks []domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	current := s.viewTasks(ctx, userID)
	seen := make(map[string]struct{}, len(current)+len(tasks))
	for _, t := range current {
		seen[t.ID] = struct{}{}
	}

	next := make([]domain.Task, 0, len(current)+len(tasks))
	next = append(next, current...)
	for _, t := range cloneTasks(tasks) {
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("tasks %s: task %s: %w", userID, t.ID, domain.ErrAlreadyExists)
		}
		seen[t.ID] = struct{}{}
		t.UserID = userID
		next = append(next, t)
	}

	s.writeTasks(ctx, userID, next)
	return nil
}

// InsertReviews appends reviews for userID. TaskID is not checked against
// stored tasks.
func (s *Store) InsertReviews(ctx context.Context, userID string, reviews []domain.Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	current := s.viewReviews(ctx, userID)
	seen := make(map[string]struct{}, len(current)+len(reviews))
	for _, r := range current {
		seen[r.ID] = struct{}{}
	}

	next := make([]domain.Review, 0, len(current)+len(reviews))
	next = append(next, current...)
	for _, r := range cloneReviews(reviews) {
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("reviews %s: review %s: %w", userID, r.ID, domain.ErrAlreadyExists)
		}
		seen[r.ID] = struct{}{}
		r.UserID = userID
		next = append(next, r)
	}

	s.writeReviews(ctx, userID, next)
	return nil
}

// ListTasks returns a copy of userID's tasks in insert order. Never nil.
func (s *Store) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cloneTasks(s.viewTasks(ctx, userID)), nil
}

// ListReviews returns a copy of userID's reviews in insert order. Never nil.
func (s *Store) ListReviews(ctx context.Context, userID string) ([]domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cloneReviews(s.viewReviews(ctx, userID)), nil
}

// viewTasks returns what ctx should see: staged writes first, then committed state.
// The result must not be mutated.
func (s *Store) viewTasks(ctx context.Context, userID string) []domain.Task {
	if t := txFromCtx(ctx); t != nil {
		if staged, ok := t.tasks[userID]; ok {
			return staged
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks[userID]
}

func (s *Store) viewReviews(ctx context.Context, userID string) []domain.Review {
	if t := txFromCtx(ctx); t != nil {
		if staged, ok := t.reviews[userID]; ok {
			return staged
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reviews[userID]
}

// writeTasks stages inside a transaction and applies directly outside one.
func (s *Store) writeTasks(ctx context.Context, userID string, tasks []domain.Task) {
	if t := txFromCtx(ctx); t != nil {
		t.tasks[userID] = tasks
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[userID] = tasks
}

func (s *Store) writeReviews(ctx context.Context, userID string, reviews []domain.Review) {
	if t := txFromCtx(ctx); t != nil {
		t.reviews[userID] = reviews
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[userID] = reviews
}
