package mocks

import (
	"context"
	"sync"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/user"
)

// MockUserRepository реализует репозиторий пользователей для тестирования
type MockUserRepository struct {
	mu       sync.RWMutex
	users    map[id.ID]*user.User
	calls    map[string]int
	failNext error
}

// NewMockUserRepository создает новый mock репозиторий
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[id.ID]*user.User),
		calls: make(map[string]int),
	}
}

// AddUser добавляет пользователя в mock репозиторий
func (m *MockUserRepository) AddUser(u *user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID()] = u
}

// Create stores a user, rejecting duplicate emails.
func (m *MockUserRepository) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls["Create"]++
	if err := m.takeFailure(); err != nil {
		return err
	}
	for _, existing := range m.users {
		if existing.Email() == u.Email() {
			return errs.ErrAlreadyExists
		}
	}
	m.users[u.ID()] = u
	return nil
}

// FindByID ищет пользователя по ID
func (m *MockUserRepository) FindByID(_ context.Context, userID id.ID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls["FindByID"]++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return u, nil
}

// FindByEmail ищет пользователя по email
func (m *MockUserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls["FindByEmail"]++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, errs.ErrNotFound
}

// FindByIDs returns the users that exist among ids.
func (m *MockUserRepository) FindByIDs(_ context.Context, ids []id.ID) ([]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls["FindByIDs"]++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	result := make([]*user.User, 0, len(ids))
	for _, userID := range ids {
		if u, ok := m.users[userID]; ok {
			result = append(result, u)
		}
	}
	return result, nil
}

// CallCount returns how many times method was called.
func (m *MockUserRepository) CallCount(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

// SetFailureNext sets an error to be returned on the next call.
func (m *MockUserRepository) SetFailureNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

func (m *MockUserRepository) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}
