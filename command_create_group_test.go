package studygroups_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	studygroups "github.com/studybuddy/go-studygroups"
)

func TestCreateGroupHandler(t *testing.T) {
	t.Run("creates the group and the owner membership together", func(t *testing.T) {
		owner := newTestUser(studygroups.RoleStudent)
		groupID := uuid.New()

		repo := NewMockRepositoryManager()
		repo.GroupsRepo.On("CreateTx", mock.Anything, mock.Anything, mock.AnythingOfType("*studygroups.StudyGroup")).
			Run(func(args mock.Arguments) {
				record := args.Get(2).(*studygroups.StudyGroup)
				assert.Equal(t, "Linear Algebra", record.Name)
				assert.Equal(t, owner.ID, record.OwnerID)
			}).
			Return(&studygroups.StudyGroup{
				ID:      groupID,
				Name:    "Linear Algebra",
				OwnerID: owner.ID,
			}, nil)
		repo.MembershipsRepo.On("AddTx", mock.Anything, mock.Anything, owner.ID, groupID).
			Return(&studygroups.GroupMember{
				ID:      uuid.New(),
				UserID:  owner.ID,
				GroupID: groupID,
			}, nil)

		sink := &recordingSink{}
		handler := studygroups.NewCreateGroupHandler(repo, sink)

		var response *studygroups.CreateGroupResponse
		err := handler.Execute(context.Background(), studygroups.CreateGroupMessage{
			Name:        "Linear Algebra",
			Description: "Weekly problem sets",
			OwnerID:     owner.ID,
			OnResponse: func(res *studygroups.CreateGroupResponse) {
				response = res
			},
		})
		require.NoError(t, err)
		require.NotNil(t, response)
		assert.Equal(t, groupID, response.Group.ID)
		assert.Equal(t, owner.ID, response.Membership.UserID)

		require.Len(t, sink.events, 1)
		assert.Equal(t, studygroups.ActivityEventGroupCreated, sink.events[0].EventType)
		assert.Equal(t, groupID.String(), sink.events[0].GroupID)

		repo.AssertExpectations(t)
	})

	t.Run("requires an owner", func(t *testing.T) {
		handler := studygroups.NewCreateGroupHandler(NewMockRepositoryManager(), nil)

		err := handler.Execute(context.Background(), studygroups.CreateGroupMessage{
			Name: "No Owner",
		})
		require.Error(t, err)
	})

	t.Run("a failed membership insert aborts the whole creation", func(t *testing.T) {
		owner := newTestUser(studygroups.RoleStudent)
		groupID := uuid.New()

		repo := NewMockRepositoryManager()
		repo.GroupsRepo.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
			Return(&studygroups.StudyGroup{ID: groupID, OwnerID: owner.ID}, nil)
		repo.MembershipsRepo.On("AddTx", mock.Anything, mock.Anything, owner.ID, groupID).
			Return(nil, goerrors.New("insert failed", goerrors.CategoryInternal))

		sink := &recordingSink{}
		handler := studygroups.NewCreateGroupHandler(repo, sink)

		err := handler.Execute(context.Background(), studygroups.CreateGroupMessage{
			Name:    "Doomed",
			OwnerID: owner.ID,
			OnResponse: func(*studygroups.CreateGroupResponse) {
				t.Fatal("OnResponse must not fire on failure")
			},
		})
		require.Error(t, err)
		assert.Empty(t, sink.events)
	})

	t.Run("cancelled context short circuits", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		handler := studygroups.NewCreateGroupHandler(NewMockRepositoryManager(), nil)

		err := handler.Execute(ctx, studygroups.CreateGroupMessage{
			Name:    "Cancelled",
			OwnerID: uuid.New(),
		})
		require.Error(t, err)
	})
}

func TestRegisterUserHandler(t *testing.T) {
	t.Run("registers with normalized fields", func(t *testing.T) {
		created := newTestUser(studygroups.RoleStudent)

		repo := NewMockRepositoryManager()
		repo.UsersRepo.On("RegisterTx", mock.Anything, mock.Anything, mock.AnythingOfType("*studygroups.User")).
			Run(func(args mock.Arguments) {
				record := args.Get(2).(*studygroups.User)
				assert.Equal(t, "seed@example.com", record.Email)
				assert.Equal(t, "Seed User", record.Name)
				assert.NotEmpty(t, record.PasswordHash)
			}).
			Return(created, nil)

		var got *studygroups.User
		handler := studygroups.NewRegisterUserHandler(repo)

		err := handler.Execute(context.Background(), studygroups.RegisterUserMessage{
			Name:     " Seed User ",
			Email:    " Seed@Example.COM ",
			Role:     studygroups.RoleStudent,
			Password: "sup3rs3cret",
			OnResponse: func(user *studygroups.User) {
				got = user
			},
		})
		require.NoError(t, err)
		assert.Equal(t, created, got)
		repo.AssertExpectations(t)
	})

	t.Run("hashid produces a deterministic id", func(t *testing.T) {
		var first, second uuid.UUID

		for i, target := range []*uuid.UUID{&first, &second} {
			repo := NewMockRepositoryManager()
			repo.UsersRepo.On("RegisterTx", mock.Anything, mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) {
					*target = args.Get(2).(*studygroups.User).ID
				}).
				Return(newTestUser(studygroups.RoleStudent), nil)

			handler := studygroups.NewRegisterUserHandler(repo)
			err := handler.Execute(context.Background(), studygroups.RegisterUserMessage{
				Name:      "Seed User",
				Email:     "seed@example.com",
				Role:      studygroups.RoleStudent,
				Password:  "sup3rs3cret",
				UseHashid: true,
			})
			require.NoError(t, err, "run %d", i)
		}

		assert.Equal(t, first, second)
		assert.NotEqual(t, uuid.Nil, first)
	})

	t.Run("duplicate email maps to email taken", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		repo.UsersRepo.On("RegisterTx", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, goerrors.New("UNIQUE constraint failed: users.email", goerrors.CategoryConflict))

		handler := studygroups.NewRegisterUserHandler(repo)
		err := handler.Execute(context.Background(), studygroups.RegisterUserMessage{
			Name:     "Dup",
			Email:    "dup@example.com",
			Password: "sup3rs3cret",
		})
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, studygroups.ErrEmailTaken))
	})
}
