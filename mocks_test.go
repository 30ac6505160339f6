package auth_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	auth "github.com/goliatone/go-catalog-auth"
)

// MockLogger implements auth.Logger and discards everything
type MockLogger struct{}

func (m *MockLogger) Debug(format string, args ...any) {}

func (m *MockLogger) Info(format string, args ...any) {}

func (m *MockLogger) Warn(format string, args ...any) {}

func (m *MockLogger) Error(format string, args ...any) {}

// MockUserRepository implements auth.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*auth.UserIdentity, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.UserIdentity)
	return user, args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, email, name, passwordHash string) (*auth.UserIdentity, error) {
	args := m.Called(ctx, email, name, passwordHash)
	user, _ := args.Get(0).(*auth.UserIdentity)
	return user, args.Error(1)
}

// MockPasswordHasher implements auth.PasswordHasher
type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

// recordingSink collects activity events
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) Events() []auth.ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auth.ActivityEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recordingSink) Last() auth.ActivityEvent {
	events := r.Events()
	if len(events) == 0 {
		return auth.ActivityEvent{}
	}
	return events[len(events)-1]
}
