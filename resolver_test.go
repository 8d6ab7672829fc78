package studygroups_test

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	studygroups "github.com/studybuddy/go-studygroups"
)

func newResolverFixture(t *testing.T) (studygroups.TokenService, *MockUsers, studygroups.SessionResolver) {
	t.Helper()

	ts := studygroups.NewTokenService(testSigningKey, 15, "studygroups", nil, testLogger{})
	users := &MockUsers{}
	resolver := studygroups.NewSessionResolver(ts, users, "", testLogger{})

	return ts, users, resolver
}

func TestSessionResolverResolve(t *testing.T) {
	t.Run("empty cookie header is unauthenticated", func(t *testing.T) {
		_, _, resolver := newResolverFixture(t)

		resolution := resolver.Resolve(context.Background(), "")
		assert.False(t, resolution.Authenticated())
		assert.Nil(t, resolution.User())
		assert.True(t, goerrors.Is(resolution.Reason(), studygroups.ErrUnableToFindSession))
	})

	t.Run("header without the auth cookie is unauthenticated", func(t *testing.T) {
		_, _, resolver := newResolverFixture(t)

		resolution := resolver.Resolve(context.Background(), "theme=dark; lang=en")
		assert.False(t, resolution.Authenticated())
		assert.True(t, goerrors.Is(resolution.Reason(), studygroups.ErrUnableToFindSession))
	})

	t.Run("garbage token is unauthenticated", func(t *testing.T) {
		_, _, resolver := newResolverFixture(t)

		resolution := resolver.Resolve(context.Background(), "auth_token=not-a-token")
		assert.False(t, resolution.Authenticated())
		assert.True(t, studygroups.IsMalformedError(resolution.Reason()))
	})

	t.Run("expired token is unauthenticated", func(t *testing.T) {
		ts, _, resolver := newResolverFixture(t)
		user := newTestUser(studygroups.RoleStudent)

		token, _, err := studygroups.MintSessionToken(ts, user, studygroups.SessionTokenOptions{
			TTL:      time.Minute,
			IssuedAt: time.Now().Add(-time.Hour),
		})
		require.NoError(t, err)

		resolution := resolver.Resolve(context.Background(), "auth_token="+token)
		assert.False(t, resolution.Authenticated())
		assert.True(t, goerrors.Is(resolution.Reason(), studygroups.ErrTokenExpired))
	})

	t.Run("valid token for a deleted user is unauthenticated", func(t *testing.T) {
		ts, users, resolver := newResolverFixture(t)
		user := newTestUser(studygroups.RoleStudent)

		token, err := ts.Generate(user)
		require.NoError(t, err)

		users.On("GetByID", mock.Anything, user.ID).Return(nil, studygroups.ErrUserNotFound)

		resolution := resolver.Resolve(context.Background(), "auth_token="+token)
		assert.False(t, resolution.Authenticated())
		assert.True(t, goerrors.Is(resolution.Reason(), studygroups.ErrUnauthenticated))
		users.AssertExpectations(t)
	})

	t.Run("valid token resolves the live user", func(t *testing.T) {
		ts, users, resolver := newResolverFixture(t)
		user := newTestUser(studygroups.RoleStudent)

		token, err := ts.Generate(user)
		require.NoError(t, err)

		// the live record may have drifted since issuance
		live := &studygroups.User{
			ID:    user.ID,
			Name:  "Renamed User",
			Email: user.Email,
			Role:  studygroups.RoleAdmin,
		}
		users.On("GetByID", mock.Anything, user.ID).Return(live, nil)

		resolution := resolver.Resolve(context.Background(), "auth_token="+token)
		require.True(t, resolution.Authenticated())
		assert.Equal(t, "Renamed User", resolution.User().Name)
		assert.Equal(t, studygroups.RoleAdmin, resolution.User().Role)

		session := resolution.Session()
		require.NotNil(t, session)
		assert.Equal(t, user.ID.String(), session.GetUserID())
		// the session still carries the role at issuance time
		assert.Equal(t, studygroups.RoleStudent, session.GetRole())
	})

	t.Run("custom cookie name", func(t *testing.T) {
		ts := studygroups.NewTokenService(testSigningKey, 15, "studygroups", nil, testLogger{})
		users := &MockUsers{}
		resolver := studygroups.NewSessionResolver(ts, users, "session", testLogger{})

		user := newTestUser(studygroups.RoleStudent)
		token, err := ts.Generate(user)
		require.NoError(t, err)

		users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

		resolution := resolver.Resolve(context.Background(), "session="+token)
		assert.True(t, resolution.Authenticated())

		// the default name no longer matches
		resolution = resolver.Resolve(context.Background(), "auth_token="+token)
		assert.False(t, resolution.Authenticated())
	})
}

func TestResolutionNilReceiver(t *testing.T) {
	var resolution *studygroups.Resolution

	assert.False(t, resolution.Authenticated())
	assert.Nil(t, resolution.User())
	assert.Nil(t, resolution.Session())
	assert.True(t, goerrors.Is(resolution.Reason(), studygroups.ErrUnauthenticated))
}
