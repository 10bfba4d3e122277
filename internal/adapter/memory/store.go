// Package memory implements the snapshot and user stores in process memory.
// It is the volatile backend: everything is lost when the process exits.
//
// Store satisfies the same transaction and repository contracts as the
// PostgreSQL adapter. Writes made inside RunInTx are staged and become
// visible to other callers in one step on commit.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/fqclock-backend/internal/domain"
)

// Store holds users, tasks and reviews keyed by user id.
type Store struct {
	mu      sync.RWMutex
	users   map[string]domain.User // by id
	byName  map[string]string      // username -> id
	tasks   map[string][]domain.Task
	reviews map[string][]domain.Review

	locks *keyedMutex
	now   func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:   make(map[string]domain.User),
		byName:  make(map[string]string),
		tasks:   make(map[string][]domain.Task),
		reviews: make(map[string][]domain.Review),
		locks:   newKeyedMutex(),
		now:     time.Now,
	}
}

// Upsert returns the user named username, creating it on first sight.
func (s *Store) Upsert(ctx context.Context, username string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byName[username]; ok {
		u := s.users[id]
		return &u, nil
	}

	u := domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: s.now().UTC(),
	}
	s.users[u.ID] = u
	s.byName[username] = u.ID

	return &u, nil
}

func (s *Store) userExists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok
}

func cloneTasks(in []domain.Task) []domain.Task {
	out := make([]domain.Task, len(in))
	for i, t := range in {
		t.Notes = cloneString(t.Notes)
		out[i] = t
	}
	return out
}

func cloneReviews(in []domain.Review) []domain.Review {
	out := make([]domain.Review, len(in))
	for i, r := range in {
		r.TaskNotes = cloneString(r.TaskNotes)
		out[i] = r
	}
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
