package rest

import (
	"context"
	"sync"

	"github.com/heartmarshall/fqclock-backend/internal/domain"
	"github.com/heartmarshall/fqclock-backend/internal/service/snapshot"
)

var (
	_ identityService = &identityServiceMock{}
	_ tokenIssuer     = &tokenIssuerMock{}
	_ snapshotService = &snapshotServiceMock{}
)

type identityServiceMock struct {
	ResolveFunc func(ctx context.Context, displayName string) (*domain.User, error)

	mu    sync.Mutex
	names []string
}

func (m *identityServiceMock) Resolve(ctx context.Context, displayName string) (*domain.User, error) {
	if m.ResolveFunc == nil {
		panic("identityServiceMock.ResolveFunc: method is nil but identityService.Resolve was just called")
	}
	m.mu.Lock()
	m.names = append(m.names, displayName)
	m.mu.Unlock()
	return m.ResolveFunc(ctx, displayName)
}

func (m *identityServiceMock) ResolveCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.names...)
}

type tokenIssuerMock struct {
	GenerateTokenFunc func(userID string) (string, error)
}

func (m *tokenIssuerMock) GenerateToken(userID string) (string, error) {
	if m.GenerateTokenFunc == nil {
		panic("tokenIssuerMock.GenerateTokenFunc: method is nil but tokenIssuer.GenerateToken was just called")
	}
	return m.GenerateTokenFunc(userID)
}

type snapshotServiceMock struct {
	SaveFunc func(ctx context.Context, input snapshot.SaveInput) (*snapshot.SaveResult, error)
	LoadFunc func(ctx context.Context, userID string) (*domain.Snapshot, error)

	mu    sync.Mutex
	saves []snapshot.SaveInput
	loads []string
}

func (m *snapshotServiceMock) Save(ctx context.Context, input snapshot.SaveInput) (*snapshot.SaveResult, error) {
	if m.SaveFunc == nil {
		panic("snapshotServiceMock.SaveFunc: method is nil but snapshotService.Save was just called")
	}
	m.mu.Lock()
	m.saves = append(m.saves, input)
	m.mu.Unlock()
	return m.SaveFunc(ctx, input)
}

func (m *snapshotServiceMock) Load(ctx context.Context, userID string) (*domain.Snapshot, error) {
	if m.LoadFunc == nil {
		panic("snapshotServiceMock.LoadFunc: method is nil but snapshotService.Load was just called")
	}
	m.mu.Lock()
	m.loads = append(m.loads, userID)
	m.mu.Unlock()
	return m.LoadFunc(ctx, userID)
}

func (m *snapshotServiceMock) SaveCalls() []snapshot.SaveInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]snapshot.SaveInput(nil), m.saves...)
}

func (m *snapshotServiceMock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loads...)
}
