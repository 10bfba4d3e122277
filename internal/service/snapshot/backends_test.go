package snapshot_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/fqclock-backend/internal/adapter/memory"
	"github.com/heartmarshall/fqclock-backend/internal/adapter/postgres"
	pgsnapshot "github.com/heartmarshall/fqclock-backend/internal/adapter/postgres/snapshot"
	"github.com/heartmarshall/fqclock-backend/internal/adapter/postgres/testhelper"
	pguser "github.com/heartmarshall/fqclock-backend/internal/adapter/postgres/user"
	"github.com/heartmarshall/fqclock-backend/internal/domain"
	"github.com/heartmarshall/fqclock-backend/internal/service/snapshot"
)

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type repo interface {
	LockUser(ctx context.Context, userID string) error
	DeleteTasks(ctx context.Context, userID string) (int, error)
	DeleteReviews(ctx context.Context, userID string) (int, error)
	InsertTasks(ctx context.Context, userID string, tasks []domain.Task) error
	InsertReviews(ctx context.Context, userID string, reviews []domain.Review) error
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	ListReviews(ctx context.Context, userID string) ([]domain.Review, error)
}

type userUpserter interface {
	Upsert(ctx context.Context, username string) (*domain.User, error)
}

type backend struct {
	tx    txRunner
	repo  repo
	users userUpserter
}

// backends returns the volatile store and, when a container runtime is
// available, the durable one.
func backends(t *testing.T) map[string]func(t *testing.T) backend {
	t.Helper()
	return map[string]func(t *testing.T) backend{
		"memory": func(t *testing.T) backend {
			s := memory.New()
			return backend{tx: s, repo: s, users: s}
		},
		"postgres": func(t *testing.T) backend {
			pool := testhelper.SetupTestDB(t)
			return backend{
				tx:    postgres.NewTxManager(pool),
				repo:  pgsnapshot.New(pool, 2),
				users: pguser.New(pool),
			}
		},
	}
}

// failingInsertReviews lets the tasks land inside the transaction, then fails.
type failingInsertReviews struct {
	repo
}

var errInjected = errors.New("injected failure")

func (f failingInsertReviews) InsertReviews(context.Context, string, []domain.Review) error {
	return errInjected
}

func newService(b backend) *snapshot.Service {
	return snapshot.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), b.tx, b.repo, snapshot.Options{})
}

func newUser(t *testing.T, b backend) string {
	t.Helper()
	u, err := b.users.Upsert(context.Background(), "user-"+uuid.NewString()[:8])
	require.NoError(t, err)
	return u.ID
}

func ptr[T any](v T) *T { return &v }

func tasks(prefix string, n int) []domain.Task {
	out := make([]domain.Task, n)
	for i := range out {
		out[i] = domain.Task{
			ID:             fmt.Sprintf("%s%d", prefix, i),
			Name:           fmt.Sprintf("%s task %d", prefix, i),
			PlannedMinutes: 25,
			ActualMinutes:  i,
			CompletedAt:    time.Date(2024, 1, 1, 10, i, 0, 0, time.UTC),
		}
	}
	return out
}

func reviews(prefix string, n int) []domain.Review {
	out := make([]domain.Review, n)
	for i := range out {
		out[i] = domain.Review{
			ID:         fmt.Sprintf("%s%d", prefix, i),
			TaskID:     fmt.Sprintf("%s-task-%d", prefix, i),
			TaskName:   "frozen",
			DaysLater:  i,
			ReviewDate: time.Date(2024, 1, 2+i, 10, 0, 0, 0, time.UTC),
		}
	}
	return out
}

// owned stamps userID the way a load reports it.
func ownedTasks(userID string, in []domain.Task) []domain.Task {
	out := make([]domain.Task, len(in))
	for i, t := range in {
		t.UserID = userID
		out[i] = t
	}
	return out
}

func ownedReviews(userID string, in []domain.Review) []domain.Review {
	out := make([]domain.Review, len(in))
	for i, r := range in {
		r.UserID = userID
		out[i] = r
	}
	return out
}

func TestSnapshot_Properties(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("replace semantics", func(t *testing.T) {
				b := open(t)
				svc := newService(b)
				uid := newUser(t, b)

				_, err := svc.Save(ctx, snapshot.SaveInput{UserID: uid, Tasks: tasks("a", 3), Reviews: reviews("a", 2)})
				require.NoError(t, err)
				res, err := svc.Save(ctx, snapshot.SaveInput{UserID: uid, Tasks: tasks("b", 1), Reviews: reviews("b", 4)})
				require.NoError(t, err)
				assert.Equal(t, 3, res.TasksReplaced)
				assert.Equal(t, 2, res.ReviewsReplaced)

				snap, err := svc.Load(ctx, uid)
				require.NoError(t, err)
				assert.Equal(t, ownedTasks(uid, tasks("b", 1)), snap.Tasks)
				assert.Equal(t, ownedReviews(uid, reviews("b", 4)), snap.Reviews)
			})

			t.Run("atomicity", func(t *testing.T) {
				b := open(t)
				svc := newService(b)
				uid := newUser(t, b)

				_, err := svc.Save(ctx, snapshot.SaveInput{UserID: uid, Tasks: tasks("a", 3), Reviews: reviews("a", 2)})
				require.NoError(t, err)

				broken := newService(backend{tx: b.tx, repo: failingInsertReviews{b.repo}, users: b.users})
				_, err = broken.Save(ctx, snapshot.SaveInput{UserID: uid, Tasks: tasks("b", 5), Reviews: reviews("b", 1)})
				require.ErrorIs(t, err, errInjected)

				snap, err := svc.Load(ctx, uid)
				require.NoError(t, err)
				assert.Equal(t, ownedTasks(uid, tasks("a", 3)), snap.Tasks)
				assert.Equal(t, ownedReviews(uid, reviews("a", 2)), snap.Reviews)
			})

			t.Run("idempotence", func(t *testing.T) {
				b := open(t)
				svc := newService(b)
				uid := newUser(t, b)
				input := snapshot.SaveInput{UserID: uid, Tasks: tasks("a", 4), Reviews: reviews("a", 3)}

				_, err := svc.Save(ctx, input)
				require.NoError(t, err)
				first, err := svc.Load(ctx, uid)
				require.NoError(t, err)

				_, err = svc.Save(ctx, input)
				require.NoError(t, err)
				second, err := svc.Load(ctx, uid)
				require.NoError(t, err)

				assert.Equal(t, first, second)
			})

			t.Run("empty snapshot", func(t *testing.T) {
				b := open(t)
				svc := newService(b)
				uid := newUser(t, b)

				_, err := svc.Save(ctx, snapshot.SaveInput{UserID: uid, Tasks: tasks("a", 2), Reviews: reviews("a", 2)})
				require.NoError(t, err)
				_, err = svc.Save(ctx, snapshot.SaveInput{UserID: uid, Tasks: []domain.Task{}, Reviews: []domain.Review{}})
				require.NoError(t, err)

				snap, err := svc.Load(ctx, uid)
				require.NoError(t, err)
				assert.Equal(t, []domain.Task{}, snap.Tasks)
				assert.Equal(t, []domain.Review{}, snap.Reviews)
			})

			t.Run("never saved", func(t *testing.T) {
				b := open(t)
				uid := newUser(t, b)

				snap, err := newService(b).Load(ctx, uid)
				require.NoError(t, err)
				assert.Equal(t, []domain.Task{}, snap.Tasks)
				assert.Equal(t, []domain.Review{}, snap.Reviews)
			})

			t.Run("isolation across users", func(t *testing.T) {
				b := open(t)
				svc := newService(b)
				u1, u2 := newUser(t, b), newUser(t, b)

				_, err := svc.Save(ctx, snapshot.SaveInput{UserID: u2, Tasks: tasks("keep", 2), Reviews: reviews("keep", 1)})
				require.NoError(t, err)
				// Same item ids as u2; ids only need to be unique per user.
				_, err = svc.Save(ctx, snapshot.SaveInput{UserID: u1, Tasks: tasks("keep", 5), Reviews: []domain.Review{}})
				require.NoError(t, err)
				_, err = svc.Save(ctx, snapshot.SaveInput{UserID: u1, Tasks: []domain.Task{}, Reviews: []domain.Review{}})
				require.NoError(t, err)

				snap, err := svc.Load(ctx, u2)
				require.NoError(t, err)
				assert.Equal(t, ownedTasks(u2, tasks("keep", 2)), snap.Tasks)
				assert.Equal(t, ownedReviews(u2, reviews("keep", 1)), snap.Reviews)
			})

			t.Run("unknown user", func(t *testing.T) {
				b := open(t)
				_, err := newService(b).Save(ctx, snapshot.SaveInput{UserID: uuid.NewString(), Tasks: []domain.Task{}, Reviews: []domain.Review{}})
				require.ErrorIs(t, err, domain.ErrNotFound)
			})

			t.Run("alice", func(t *testing.T) {
				b := open(t)
				svc := newService(b)
				alice, err := b.users.Upsert(ctx, "alice-"+uuid.NewString()[:8])
				require.NoError(t, err)

				task := domain.Task{
					ID: "t1", Name: "Write report", Notes: ptr(""),
					PlannedMinutes: 25, ActualMinutes: 30,
					CompletedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
				}
				review := domain.Review{
					ID: "r1", TaskID: "t1", TaskName: "Write report", TaskNotes: ptr(""),
					DaysLater: 3, ReviewDate: time.Date(2024, 1, 4, 10, 0, 0, 0, time.UTC),
				}

				_, err = svc.Save(ctx, snapshot.SaveInput{UserID: alice.ID, Tasks: []domain.Task{task}, Reviews: []domain.Review{review}})
				require.NoError(t, err)

				snap, err := svc.Load(ctx, alice.ID)
				require.NoError(t, err)
				task.UserID, review.UserID = alice.ID, alice.ID
				assert.Equal(t, []domain.Task{task}, snap.Tasks)
				assert.Equal(t, []domain.Review{review}, snap.Reviews)
			})

			t.Run("concurrent saves never mix", func(t *testing.T) {
				b := open(t)
				svc := newService(b)
				uid := newUser(t, b)

				var wg sync.WaitGroup
				for _, tag := range []string{"x", "y", "z"} {
					for range 5 {
						wg.Add(1)
						go func() {
							defer wg.Done()
							_, err := svc.Save(ctx, snapshot.SaveInput{UserID: uid, Tasks: tasks(tag, 6), Reviews: reviews(tag, 6)})
							assert.NoError(t, err)
						}()
					}
				}
				wg.Wait()

				snap, err := svc.Load(ctx, uid)
				require.NoError(t, err)
				require.Len(t, snap.Tasks, 6)
				require.Len(t, snap.Reviews, 6)
				prefix := snap.Tasks[0].ID[:1]
				for i := range 6 {
					assert.Equal(t, prefix, snap.Tasks[i].ID[:1])
					assert.Equal(t, prefix, snap.Reviews[i].ID[:1])
				}
			})
		})
	}
}
