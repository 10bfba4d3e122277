package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/fqclock-backend/internal/domain"
)

func ptr[T any](v T) *T { return &v }

var at = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, s *Store, name string) string {
	t.Helper()
	u, err := s.Upsert(context.Background(), name)
	require.NoError(t, err)
	return u.ID
}

func replace(ctx context.Context, s *Store, userID string, tasks []domain.Task, reviews []domain.Review) error {
	return s.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.LockUser(ctx, userID); err != nil {
			return err
		}
		if _, err := s.DeleteTasks(ctx, userID); err != nil {
			return err
		}
		if _, err := s.DeleteReviews(ctx, userID); err != nil {
			return err
		}
		if err := s.InsertTasks(ctx, userID, tasks); err != nil {
			return err
		}
		return s.InsertReviews(ctx, userID, reviews)
	})
}

func TestStore_Upsert(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	a1, err := s.Upsert(ctx, "alice")
	require.NoError(t, err)
	a2, err := s.Upsert(ctx, "alice")
	require.NoError(t, err)
	b, err := s.Upsert(ctx, "bob")
	require.NoError(t, err)

	assert.Equal(t, a1.ID, a2.ID)
	assert.Equal(t, a1.CreatedAt, a2.CreatedAt)
	assert.NotEqual(t, a1.ID, b.ID)
	assert.Equal(t, "alice", a1.Username)
}

func TestStore_ReplaceAndList(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	uid := seedUser(t, s, "alice")

	tasks := []domain.Task{
		{ID: "t2", Name: "second id first", Notes: ptr(""), PlannedMinutes: 25, ActualMinutes: 30, CompletedAt: at},
		{ID: "t1", Name: "first id second", CompletedAt: at},
	}
	reviews := []domain.Review{{ID: "r1", TaskID: "nope", TaskName: "Write", DaysLater: 3, ReviewDate: at}}

	require.NoError(t, replace(ctx, s, uid, tasks, reviews))

	gotTasks, err := s.ListTasks(ctx, uid)
	require.NoError(t, err)
	require.Len(t, gotTasks, 2)
	assert.Equal(t, "t2", gotTasks[0].ID)
	assert.Equal(t, uid, gotTasks[0].UserID)
	require.NotNil(t, gotTasks[0].Notes)
	assert.Equal(t, "", *gotTasks[0].Notes)
	assert.Nil(t, gotTasks[1].Notes)

	gotReviews, err := s.ListReviews(ctx, uid)
	require.NoError(t, err)
	require.Len(t, gotReviews, 1)
	assert.Equal(t, "nope", gotReviews[0].TaskID)
}

func TestStore_ListEmptyIsNonNil(t *testing.T) {
	t.Parallel()
	s := New()

	tasks, err := s.ListTasks(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)

	reviews, err := s.ListReviews(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
}

func TestStore_ReturnedSlicesAreCopies(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	uid := seedUser(t, s, "alice")

	in := []domain.Task{{ID: "t1", Name: "orig", Notes: ptr("n"), CompletedAt: at}}
	require.NoError(t, replace(ctx, s, uid, in, []domain.Review{}))

	in[0].Name = "mutated input"
	*in[0].Notes = "mutated input"

	got, err := s.ListTasks(ctx, uid)
	require.NoError(t, err)
	got[0].Name = "mutated output"

	again, err := s.ListTasks(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "orig", again[0].Name)
	assert.Equal(t, "n", *again[0].Notes)
}

func TestStore_RunInTx_ErrorDiscardsStaging(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	uid := seedUser(t, s, "alice")
	prior := []domain.Task{{ID: "keep", Name: "prior", CompletedAt: at}}
	require.NoError(t, replace(ctx, s, uid, prior, []domain.Review{}))

	// Duplicate id fails the insert after the delete was staged.
	next := []domain.Task{{ID: "x", Name: "a", CompletedAt: at}, {ID: "x", Name: "b", CompletedAt: at}}
	err := replace(ctx, s, uid, next, []domain.Review{})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	got, err := s.ListTasks(ctx, uid)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "keep", got[0].ID)
}

func TestStore_RunInTx_PanicDiscardsAndUnlocks(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	uid := seedUser(t, s, "alice")

	func() {
		defer func() {
			assert.Equal(t, "boom", recover())
		}()
		_ = s.RunInTx(ctx, func(ctx context.Context) error {
			require.NoError(t, s.LockUser(ctx, uid))
			_, _ = s.DeleteTasks(ctx, uid)
			_ = s.InsertTasks(ctx, uid, []domain.Task{{ID: "p", Name: "p", CompletedAt: at}})
			panic("boom")
		})
	}()

	got, err := s.ListTasks(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, s.locks.size(), "lock must be released after panic")
}

func TestStore_RunInTx_StagedWritesInvisibleUntilCommit(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	uid := seedUser(t, s, "alice")

	err := s.RunInTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, s.InsertTasks(txCtx, uid, []domain.Task{{ID: "t1", Name: "n", CompletedAt: at}}))

		inside, err := s.ListTasks(txCtx, uid)
		require.NoError(t, err)
		assert.Len(t, inside, 1)

		outside, err := s.ListTasks(ctx, uid)
		require.NoError(t, err)
		assert.Empty(t, outside)
		return nil
	})
	require.NoError(t, err)

	after, err := s.ListTasks(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, after, 1)
}

func TestStore_RunInTx_CanceledContextDoesNotCommit(t *testing.T) {
	t.Parallel()
	s := New()
	uid := seedUser(t, s, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	err := s.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.InsertTasks(txCtx, uid, []domain.Task{{ID: "t1", Name: "n", CompletedAt: at}}); err != nil {
			return err
		}
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	got, err := s.ListTasks(context.Background(), uid)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_LockUser(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	uid := seedUser(t, s, "alice")

	t.Run("outside transaction", func(t *testing.T) {
		assert.ErrorIs(t, s.LockUser(ctx, uid), errNoTx)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := s.RunInTx(ctx, func(ctx context.Context) error {
			return s.LockUser(ctx, "ghost")
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("reentrant within one transaction", func(t *testing.T) {
		err := s.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.LockUser(ctx, uid); err != nil {
				return err
			}
			return s.LockUser(ctx, uid)
		})
		assert.NoError(t, err)
		assert.Zero(t, s.locks.size())
	})
}

func TestStore_LockUser_WaitHonoursContext(t *testing.T) {
	t.Parallel()
	s := New()
	uid := seedUser(t, s, "alice")

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.RunInTx(context.Background(), func(ctx context.Context) error {
			_ = s.LockUser(ctx, uid)
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		return s.LockUser(ctx, uid)
	})
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestStore_ConcurrentSavesSameUserNeverMix(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	uid := seedUser(t, s, "alice")

	payload := func(tag string) []domain.Task {
		out := make([]domain.Task, 20)
		for i := range out {
			out[i] = domain.Task{ID: tag + string(rune('a'+i)), Name: tag, CompletedAt: at}
		}
		return out
	}

	var wg sync.WaitGroup
	var failures atomic.Int32
	for _, tag := range []string{"x", "y", "z", "w"} {
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := replace(ctx, s, uid, payload(tag), []domain.Review{}); err != nil {
					failures.Add(1)
				}
			}()
		}
	}
	wg.Wait()

	require.Zero(t, failures.Load())
	got, err := s.ListTasks(ctx, uid)
	require.NoError(t, err)
	require.Len(t, got, 20)
	for _, task := range got {
		assert.Equal(t, got[0].Name, task.Name, "snapshot mixes two saves")
	}
}

func TestStore_DifferentUsersDoNotBlock(t *testing.T) {
	t.Parallel()
	s := New()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.RunInTx(context.Background(), func(ctx context.Context) error {
			_ = s.LockUser(ctx, alice)
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, replace(ctx, s, bob, []domain.Task{{ID: "b", Name: "b", CompletedAt: at}}, []domain.Review{}))
}
