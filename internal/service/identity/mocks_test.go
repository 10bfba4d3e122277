package identity

import (
	"context"
	"sync"

	"github.com/heartmarshall/fqclock-backend/internal/domain"
)

var _ userRepo = &userRepoMock{}

type userRepoMock struct {
	UpsertFunc func(ctx context.Context, username string) (*domain.User, error)

	calls struct {
		Upsert []struct {
			Username string
		}
	}
	lockUpsert sync.RWMutex
}

func (mock *userRepoMock) Upsert(ctx context.Context, username string) (*domain.User, error) {
	if mock.UpsertFunc == nil {
		panic("userRepoMock.UpsertFunc: method is nil but userRepo.Upsert was just called")
	}
	mock.lockUpsert.Lock()
	mock.calls.Upsert = append(mock.calls.Upsert, struct{ Username string }{Username: username})
	mock.lockUpsert.Unlock()
	return mock.UpsertFunc(ctx, username)
}

func (mock *userRepoMock) UpsertCalls() []struct{ Username string } {
	mock.lockUpsert.RLock()
	calls := mock.calls.Upsert
	mock.lockUpsert.RUnlock()
	return calls
}
