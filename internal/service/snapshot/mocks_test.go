package snapshot

import (
	"context"
	"sync"

	"github.com/heartmarshall/fqclock-backend/internal/domain"
)

var _ txManager = &txManagerMock{}

type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

	calls struct {
		RunInTx []struct {
			Ctx context.Context
		}
	}
	lockRunInTx sync.RWMutex
}

func (mock *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mock.RunInTxFunc == nil {
		panic("txManagerMock.RunInTxFunc: method is nil but txManager.RunInTx was just called")
	}
	mock.lockRunInTx.Lock()
	mock.calls.RunInTx = append(mock.calls.RunInTx, struct{ Ctx context.Context }{Ctx: ctx})
	mock.lockRunInTx.Unlock()
	return mock.RunInTxFunc(ctx, fn)
}

func (mock *txManagerMock) RunInTxCalls() []struct{ Ctx context.Context } {
	mock.lockRunInTx.RLock()
	calls := mock.calls.RunInTx
	mock.lockRunInTx.RUnlock()
	return calls
}

// passthroughTx runs fn directly, as a transaction that always commits.
func passthroughTx() *txManagerMock {
	return &txManagerMock{
		RunInTxFunc: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
	}
}

var _ snapshotRepo = &snapshotRepoMock{}

type snapshotRepoMock struct {
	LockUserFunc      func(ctx context.Context, userID string) error
	DeleteTasksFunc   func(ctx context.Context, userID string) (int, error)
	DeleteReviewsFunc func(ctx context.Context, userID string) (int, error)
	InsertTasksFunc   func(ctx context.Context, userID string, tasks []domain.Task) error
	InsertReviewsFunc func(ctx context.Context, userID string, reviews []domain.Review) error
	ListTasksFunc     func(ctx context.Context, userID string) ([]domain.Task, error)
	ListReviewsFunc   func(ctx context.Context, userID string) ([]domain.Review, error)

	mu    sync.RWMutex
	order []string
	calls struct {
		InsertTasks []struct {
			UserID string
			Tasks  []domain.Task
		}
		InsertReviews []struct {
			UserID  string
			Reviews []domain.Review
		}
	}
}

func (mock *snapshotRepoMock) record(name string) {
	mock.mu.Lock()
	mock.order = append(mock.order, name)
	mock.mu.Unlock()
}

// Order returns the names of the called methods in call order.
func (mock *snapshotRepoMock) Order() []string {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return append([]string(nil), mock.order...)
}

func (mock *snapshotRepoMock) LockUser(ctx context.Context, userID string) error {
	if mock.LockUserFunc == nil {
		panic("snapshotRepoMock.LockUserFunc: method is nil but snapshotRepo.LockUser was just called")
	}
	mock.record("LockUser")
	return mock.LockUserFunc(ctx, userID)
}

func (mock *snapshotRepoMock) DeleteTasks(ctx context.Context, userID string) (int, error) {
	if mock.DeleteTasksFunc == nil {
		panic("snapshotRepoMock.DeleteTasksFunc: method is nil but snapshotRepo.DeleteTasks was just called")
	}
	mock.record("DeleteTasks")
	return mock.DeleteTasksFunc(ctx, userID)
}

func (mock *snapshotRepoMock) DeleteReviews(ctx context.Context, userID string) (int, error) {
	if mock.DeleteReviewsFunc == nil {
		panic("snapshotRepoMock.DeleteReviewsFunc: method is nil but snapshotRepo.DeleteReviews was just called")
	}
	mock.record("DeleteReviews")
	return mock.DeleteReviewsFunc(ctx, userID)
}

func (mock *snapshotRepoMock) InsertTasks(ctx context.Context, userID string, tasks []domain.Task) error {
	if mock.InsertTasksFunc == nil {
		panic("snapshotRepoMock.InsertTasksFunc: method is nil but snapshotRepo.InsertTasks was just called")
	}
	mock.record("InsertTasks")
	mock.mu.Lock()
	mock.calls.InsertTasks = append(mock.calls.InsertTasks, struct {
		UserID string
		Tasks  []domain.Task
	}{UserID: userID, Tasks: tasks})
	mock.mu.Unlock()
	return mock.InsertTasksFunc(ctx, userID, tasks)
}

func (mock *snapshotRepoMock) InsertTasksCalls() []struct {
	UserID string
	Tasks  []domain.Task
} {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls.InsertTasks
}

func (mock *snapshotRepoMock) InsertReviews(ctx context.Context, userID string, reviews []domain.Review) error {
	if mock.InsertReviewsFunc == nil {
		panic("snapshotRepoMock.InsertReviewsFunc: method is nil but snapshotRepo.InsertReviews was just called")
	}
	mock.record("InsertReviews")
	mock.mu.Lock()
	mock.calls.InsertReviews = append(mock.calls.InsertReviews, struct {
		UserID  string
		Reviews []domain.Review
	}{UserID: userID, Reviews: reviews})
	mock.mu.Unlock()
	return mock.InsertReviewsFunc(ctx, userID, reviews)
}

func (mock *snapshotRepoMock) InsertReviewsCalls() []struct {
	UserID  string
	Reviews []domain.Review
} {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls.InsertReviews
}

func (mock *snapshotRepoMock) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	if mock.ListTasksFunc == nil {
		panic("snapshotRepoMock.ListTasksFunc: method is nil but snapshotRepo.ListTasks was just called")
	}
	mock.record("ListTasks")
	return mock.ListTasksFunc(ctx, userID)
}

func (mock *snapshotRepoMock) ListReviews(ctx context.Context, userID string) ([]domain.Review, error) {
	if mock.ListReviewsFunc == nil {
		panic("snapshotRepoMock.ListReviewsFunc: method is nil but snapshotRepo.ListReviews was just called")
	}
	mock.record("ListReviews")
	return mock.ListReviewsFunc(ctx, userID)
}

// happyRepo returns a repo mock where every method succeeds.
func happyRepo() *snapshotRepoMock {
	return &snapshotRepoMock{
		LockUserFunc:      func(ctx context.Context, userID string) error { return nil },
		DeleteTasksFunc:   func(ctx context.Context, userID string) (int, error) { return 0, nil },
		DeleteReviewsFunc: func(ctx context.Context, userID string) (int, error) { return 0, nil },
		InsertTasksFunc:   func(ctx context.Context, userID string, tasks []domain.Task) error { return nil },
		InsertReviewsFunc: func(ctx context.Context, userID string, reviews []domain.Review) error { return nil },
		ListTasksFunc:     func(ctx context.Context, userID string) ([]domain.Task, error) { return []domain.Task{}, nil },
		ListReviewsFunc:   func(ctx context.Context, userID string) ([]domain.Review, error) { return []domain.Review{}, nil },
	}
}
