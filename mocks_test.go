package studygroups_test

import (
	"context"
	"database/sql"

	studygroups "github.com/studybuddy/go-studygroups"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// testLogger discards everything; tests assert behavior, not log lines.
type testLogger struct{}

func (testLogger) Debug(format string, args ...any) {}
func (testLogger) Info(format string, args ...any)  {}
func (testLogger) Warn(format string, args ...any)  {}
func (testLogger) Error(format string, args ...any) {}

// MockUsers implements the subset of studygroups.Users the code under test
// touches. The embedded interface covers the remainder of the method set;
// calling an unexpected method panics, which is the point.
type MockUsers struct {
	mock.Mock
	studygroups.Users
}

func (m *MockUsers) Register(ctx context.Context, user *studygroups.User) (*studygroups.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*studygroups.User), args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *studygroups.User) (*studygroups.User, error) {
	args := m.Called(ctx, tx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*studygroups.User), args.Error(1)
}

func (m *MockUsers) GetByID(ctx context.Context, id uuid.UUID) (*studygroups.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*studygroups.User), args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*studygroups.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*studygroups.User), args.Error(1)
}

// MockGroups implements studygroups.Groups
type MockGroups struct {
	mock.Mock
}

func (m *MockGroups) Create(ctx context.Context, group *studygroups.StudyGroup) (*studygroups.StudyGroup, error) {
	args := m.Called(ctx, group)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*studygroups.StudyGroup), args.Error(1)
}

func (m *MockGroups) CreateTx(ctx context.Context, tx bun.IDB, group *studygroups.StudyGroup) (*studygroups.StudyGroup, error) {
	args := m.Called(ctx, tx, group)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*studygroups.StudyGroup), args.Error(1)
}

func (m *MockGroups) GetByID(ctx context.Context, id uuid.UUID) (*studygroups.StudyGroup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*studygroups.StudyGroup), args.Error(1)
}

func (m *MockGroups) List(ctx context.Context) ([]*studygroups.StudyGroup, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*studygroups.StudyGroup), args.Error(1)
}

func (m *MockGroups) ListForUser(ctx context.Context, userID uuid.UUID) ([]*studygroups.StudyGroup, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*studygroups.StudyGroup), args.Error(1)
}

func (m *MockGroups) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMemberships implements studygroups.Memberships
type MockMemberships struct {
	mock.Mock
}

func (m *MockMemberships) Add(ctx context.Context, userID, groupID uuid.UUID) (*studygroups.GroupMember, error) {
	args := m.Called(ctx, userID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*studygroups.GroupMember), args.Error(1)
}

func (m *MockMemberships) AddTx(ctx context.Context, tx bun.IDB, userID, groupID uuid.UUID) (*studygroups.GroupMember, error) {
	args := m.Called(ctx, tx, userID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*studygroups.GroupMember), args.Error(1)
}

func (m *MockMemberships) Remove(ctx context.Context, userID, groupID uuid.UUID) error {
	args := m.Called(ctx, userID, groupID)
	return args.Error(0)
}

func (m *MockMemberships) Exists(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, groupID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMemberships) CountByGroup(ctx context.Context, groupID uuid.UUID) (int, error) {
	args := m.Called(ctx, groupID)
	return args.Int(0), args.Error(1)
}

func (m *MockMemberships) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*studygroups.GroupMember, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*studygroups.GroupMember), args.Error(1)
}

// MockJoinRequests implements studygroups.JoinRequests
type MockJoinRequests struct {
	mock.Mock
}

func (m *MockJoinRequests) CreateTx(ctx context.Context, tx bun.IDB, userID, groupID uuid.UUID) (*studygroups.JoinRequest, error) {
	args := m.Called(ctx, tx, userID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*studygroups.JoinRequest), args.Error(1)
}

func (m *MockJoinRequests) GetByID(ctx context.Context, id uuid.UUID) (*studygroups.JoinRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*studygroups.JoinRequest), args.Error(1)
}

func (m *MockJoinRequests) GetByUserAndGroup(ctx context.Context, userID, groupID uuid.UUID) (*studygroups.JoinRequest, error) {
	args := m.Called(ctx, userID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*studygroups.JoinRequest), args.Error(1)
}

func (m *MockJoinRequests) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status studygroups.JoinRequestStatus) (*studygroups.JoinRequest, error) {
	args := m.Called(ctx, tx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*studygroups.JoinRequest), args.Error(1)
}

func (m *MockJoinRequests) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockJoinRequests) ListPendingByGroup(ctx context.Context, groupID uuid.UUID) ([]*studygroups.JoinRequest, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*studygroups.JoinRequest), args.Error(1)
}

func (m *MockJoinRequests) ListPendingByUser(ctx context.Context, userID uuid.UUID) ([]*studygroups.JoinRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*studygroups.JoinRequest), args.Error(1)
}

func (m *MockJoinRequests) CountPendingByGroup(ctx context.Context, groupID uuid.UUID) (int, error) {
	args := m.Called(ctx, groupID)
	return args.Int(0), args.Error(1)
}

// MockRepositoryManager wires the repository mocks behind the
// RepositoryManager interface. RunInTx executes the callback inline with a
// zero transaction; the repo mocks never touch it.
type MockRepositoryManager struct {
	UsersRepo        *MockUsers
	GroupsRepo       *MockGroups
	MembershipsRepo  *MockMemberships
	JoinRequestsRepo *MockJoinRequests

	TxErr error
}

func NewMockRepositoryManager() *MockRepositoryManager {
	return &MockRepositoryManager{
		UsersRepo:        &MockUsers{},
		GroupsRepo:       &MockGroups{},
		MembershipsRepo:  &MockMemberships{},
		JoinRequestsRepo: &MockJoinRequests{},
	}
}

func (m *MockRepositoryManager) Validate() error { return nil }
func (m *MockRepositoryManager) MustValidate()   {}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	if m.TxErr != nil {
		return m.TxErr
	}
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Users() studygroups.Users {
	return m.UsersRepo
}

func (m *MockRepositoryManager) Groups() studygroups.Groups {
	return m.GroupsRepo
}

func (m *MockRepositoryManager) Memberships() studygroups.Memberships {
	return m.MembershipsRepo
}

func (m *MockRepositoryManager) JoinRequests() studygroups.JoinRequests {
	return m.JoinRequestsRepo
}

func (m *MockRepositoryManager) AssertExpectations(t mock.TestingT) {
	m.UsersRepo.AssertExpectations(t)
	m.GroupsRepo.AssertExpectations(t)
	m.MembershipsRepo.AssertExpectations(t)
	m.JoinRequestsRepo.AssertExpectations(t)
}

// recordingSink captures activity events for assertions.
type recordingSink struct {
	events []studygroups.ActivityEvent
}

func (s *recordingSink) Record(ctx context.Context, event studygroups.ActivityEvent) error {
	s.events = append(s.events, event)
	return nil
}
