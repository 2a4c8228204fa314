package manager_test

import (
	"context"

	manager "github.com/adminware/go-manager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAccountStore implements manager.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) GetByEmail(ctx context.Context, email string) (*manager.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*manager.Account), args.Error(1)
}

func (m *MockAccountStore) Save(ctx context.Context, account *manager.Account) (*manager.Account, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*manager.Account), args.Error(1)
}

func (m *MockAccountStore) ConsumeActivationToken(ctx context.Context, email, token string, activate bool) (*manager.Account, error) {
	args := m.Called(ctx, email, token, activate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*manager.Account), args.Error(1)
}

func (m *MockAccountStore) ResetPassword(ctx context.Context, email, token, passwordHash string) (*manager.Account, error) {
	args := m.Called(ctx, email, token, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*manager.Account), args.Error(1)
}

// MockRoleStore implements manager.RoleStore
type MockRoleStore struct {
	mock.Mock
}

func (m *MockRoleStore) GetByID(ctx context.Context, id uuid.UUID) (*manager.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*manager.Role), args.Error(1)
}

func (m *MockRoleStore) GetByName(ctx context.Context, name string) (*manager.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*manager.Role), args.Error(1)
}

// MockLogger implements manager.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// fakeSession is an in memory manager.Session for workflow tests.
type fakeSession struct {
	account    *manager.Account
	terminated bool
}

func (s *fakeSession) Account(ctx context.Context) (*manager.Account, bool) {
	if s.account == nil {
		return nil, false
	}
	return s.account, true
}

func (s *fakeSession) Establish(ctx context.Context, account *manager.Account) error {
	s.account = account
	return nil
}

func (s *fakeSession) Terminate(ctx context.Context) error {
	s.account = nil
	s.terminated = true
	return nil
}
