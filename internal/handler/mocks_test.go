package handler_test

import (
	"context"

	"exchangedesk/internal/middleware"
	"exchangedesk/internal/model"
	"exchangedesk/internal/permission"
	"exchangedesk/internal/prefs"
	"exchangedesk/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, f repository.TaskFilter) ([]model.Task, error) {
	args := m.Called(ctx, f)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *model.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) CheckAccess(ctx context.Context, exchangeID, userID uuid.UUID, action permission.Action) (bool, error) {
	args := m.Called(ctx, exchangeID, userID, action)
	return args.Bool(0), args.Error(1)
}

func (m *MockParticipantRepository) Upsert(ctx context.Context, p *model.Participant) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockParticipantRepository) GetByID(ctx context.Context, exchangeID, id uuid.UUID) (*model.Participant, error) {
	args := m.Called(ctx, exchangeID, id)
	p := args.Get(0)
	if p == nil {
		return nil, args.Error(1)
	}
	return p.(*model.Participant), args.Error(1)
}

func (m *MockParticipantRepository) ListByExchange(ctx context.Context, exchangeID uuid.UUID) ([]model.Participant, error) {
	args := m.Called(ctx, exchangeID)
	ps, _ := args.Get(0).([]model.Participant)
	return ps, args.Error(1)
}

func (m *MockParticipantRepository) Update(ctx context.Context, p *model.Participant) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockParticipantRepository) Remove(ctx context.Context, exchangeID, id uuid.UUID) error {
	return m.Called(ctx, exchangeID, id).Error(0)
}

type MockExchangeRepository struct {
	mock.Mock
}

func (m *MockExchangeRepository) Create(ctx context.Context, exchange *model.Exchange) error {
	return m.Called(ctx, exchange).Error(0)
}

func (m *MockExchangeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exchange, error) {
	args := m.Called(ctx, id)
	ex := args.Get(0)
	if ex == nil {
		return nil, args.Error(1)
	}
	return ex.(*model.Exchange), args.Error(1)
}

func (m *MockExchangeRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Exchange, error) {
	args := m.Called(ctx, userID)
	exchanges, _ := args.Get(0).([]model.Exchange)
	return exchanges, args.Error(1)
}

func (m *MockExchangeRepository) Update(ctx context.Context, exchange *model.Exchange) error {
	return m.Called(ctx, exchange).Error(0)
}

type MockPreferenceRepository struct {
	mock.Mock
}

func (m *MockPreferenceRepository) Get(ctx context.Context, userID uuid.UUID, key string) (string, error) {
	args := m.Called(ctx, userID, key)
	return args.String(0), args.Error(1)
}

func (m *MockPreferenceRepository) Set(ctx context.Context, userID uuid.UUID, key, value string) error {
	return m.Called(ctx, userID, key, value).Error(0)
}

func (m *MockPreferenceRepository) ForUser(userID uuid.UUID) prefs.Backend {
	return m.Called(userID).Get(0).(prefs.Backend)
}

// authenticatedAs stands in for the JWT middleware.
func authenticatedAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}
