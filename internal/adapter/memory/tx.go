package memory

import (
	"context"

	"github.com/heartmarshall/fqclock-backend/internal/domain"
)

type txCtxKey struct{}

// tx buffers the writes of one RunInTx call.
type tx struct {
	tasks   map[string][]domain.Task
	reviews map[string][]domain.Review
	unlocks map[string]func()
}

func txFromCtx(ctx context.Context) *tx {
	t, _ := ctx.Value(txCtxKey{}).(*tx)
	return t
}

// RunInTx runs fn with a staging buffer in ctx. If fn succeeds, every staged
// write is applied under a single critical section. On error or panic the
// buffer is dropped. Per-user locks taken by LockUser are released in all cases.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t := &tx{
		tasks:   make(map[string][]domain.Task),
		reviews: make(map[string][]domain.Review),
		unlocks: make(map[string]func()),
	}
	defer func() {
		for _, unlock := range t.unlocks {
			unlock()
		}
	}()

	if err := fn(context.WithValue(ctx, txCtxKey{}, t)); err != nil {
		return err
	}

	// A save that outlived its deadline must not land.
	if err := ctx.Err(); err != nil {
		return err
	}

	s.commit(t)
	return nil
}

func (s *Store) commit(t *tx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, tasks := range t.tasks {
		s.tasks[userID] = tasks
	}
	for userID, reviews := range t.reviews {
		s.reviews[userID] = reviews
	}
}
