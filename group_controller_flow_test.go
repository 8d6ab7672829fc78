package studygroups_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	studygroups "github.com/studybuddy/go-studygroups"
)

func newGroupController(repo *MockRepositoryManager) *studygroups.GroupController {
	return studygroups.NewGroupController(func(c *studygroups.GroupController) *studygroups.GroupController {
		c.Repo = repo
		c.Logger = testLogger{}
		return c
	})
}

func TestGroupControllerIndex(t *testing.T) {
	t.Run("lists groups with the viewer relation", func(t *testing.T) {
		viewer := newTestUser(studygroups.RoleStudent)
		owner := newTestUser(studygroups.RoleStudent)

		owned := newTestGroup(viewer)
		other := newTestGroup(owner)

		repo := NewMockRepositoryManager()
		repo.GroupsRepo.On("List", mock.Anything).
			Return([]*studygroups.StudyGroup{owned, other}, nil)
		repo.MembershipsRepo.On("Exists", mock.Anything, viewer.ID, other.ID).Return(false, nil)
		repo.JoinRequestsRepo.On("GetByUserAndGroup", mock.Anything, viewer.ID, other.ID).
			Return(nil, studygroups.ErrRequestNotFound)
		repo.MembershipsRepo.On("CountByGroup", mock.Anything, owned.ID).Return(1, nil)
		repo.MembershipsRepo.On("CountByGroup", mock.Anything, other.ID).Return(3, nil)

		ctrl := newGroupController(repo)

		ctx := router.NewMockContext()
		ctx.LocalsMock["auth_user"] = viewer
		ctx.On("Context").Return(context.Background())
		ctx.On("Render", ctrl.Views.Index, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
			view, ok := args.Get(1).(router.ViewContext)
			require.True(t, ok)

			records, ok := view["records"].([]studygroups.GroupResponse)
			require.True(t, ok)
			require.Len(t, records, 2)

			assert.Equal(t, studygroups.RelationOwner, records[0].Relation)
			assert.Equal(t, 1, records[0].MemberCount)
			assert.Equal(t, studygroups.RelationStranger, records[1].Relation)
			assert.Equal(t, 3, records[1].MemberCount)
		})

		require.NoError(t, ctrl.Index(ctx))
		ctx.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("unauthenticated viewer goes to the error handler", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		ctrl := newGroupController(repo)

		var handled error
		ctrl.ErrorHandler = func(c router.Context, err error) error {
			handled = err
			return nil
		}

		ctx := router.NewMockContext()

		require.NoError(t, ctrl.Index(ctx))
		assert.ErrorIs(t, handled, studygroups.ErrUnauthenticated)
	})
}

func TestGroupControllerDashboard(t *testing.T) {
	viewer := newTestUser(studygroups.RoleStudent)
	owner := newTestUser(studygroups.RoleStudent)

	owned := newTestGroup(viewer)
	joined := newTestGroup(owner)

	pending := &studygroups.JoinRequest{
		UserID:  viewer.ID,
		GroupID: joined.ID,
		Status:  studygroups.JoinRequestPending,
		Group:   joined,
	}

	repo := NewMockRepositoryManager()
	repo.GroupsRepo.On("ListForUser", mock.Anything, viewer.ID).
		Return([]*studygroups.StudyGroup{owned, joined}, nil)
	repo.MembershipsRepo.On("CountByGroup", mock.Anything, owned.ID).Return(1, nil)
	repo.MembershipsRepo.On("CountByGroup", mock.Anything, joined.ID).Return(5, nil)
	repo.JoinRequestsRepo.On("ListPendingByUser", mock.Anything, viewer.ID).
		Return([]*studygroups.JoinRequest{pending}, nil)

	ctrl := newGroupController(repo)

	ctx := router.NewMockContext()
	ctx.LocalsMock["auth_user"] = viewer
	ctx.On("Context").Return(context.Background())
	ctx.On("Render", ctrl.Views.Dashboard, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		view, ok := args.Get(1).(router.ViewContext)
		require.True(t, ok)

		records := view["records"].([]studygroups.GroupResponse)
		require.Len(t, records, 2)
		assert.Equal(t, studygroups.RelationOwner, records[0].Relation)
		assert.Equal(t, studygroups.RelationMember, records[1].Relation)

		requests := view["requests"].([]studygroups.JoinRequestResponse)
		require.Len(t, requests, 1)
		assert.Equal(t, joined.Name, requests[0].GroupName)
	})

	require.NoError(t, ctrl.Dashboard(ctx))
	ctx.AssertExpectations(t)
	repo.AssertExpectations(t)
}
