package studygroups

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
)

func TestUserContext(t *testing.T) {
	user := &User{Name: "Test User"}

	ctx := WithContext(context.Background(), user)

	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, user, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestSessionContext(t *testing.T) {
	session := &SessionObject{UserID: "user123"}

	ctx := WithSessionContext(context.Background(), session)

	got, ok := SessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user123", got.GetUserID())

	_, ok = SessionFromContext(context.Background())
	assert.False(t, ok)
}

func TestClaimsContext(t *testing.T) {
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user123"},
		UID:              "user123",
		UserRole:         RoleStudent,
	}

	ctx := WithClaimsContext(context.Background(), claims)

	got, ok := GetClaims(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user123", got.UserID())
	assert.Equal(t, RoleStudent, got.Role())

	_, ok = GetClaims(context.Background())
	assert.False(t, ok)
}

func TestGetRouterClaims(t *testing.T) {
	tests := []struct {
		name    string
		setupFn func() router.Context
		key     string
		wantOK  bool
	}{
		{
			name: "claims present under the default key",
			setupFn: func() router.Context {
				ctx := router.NewMockContext()
				ctx.LocalsMock["user"] = &SessionClaims{
					RegisteredClaims: jwt.RegisteredClaims{Subject: "user123"},
					UID:              "user123",
					UserRole:         RoleStudent,
				}
				return ctx
			},
			key:    "",
			wantOK: true,
		},
		{
			name: "claims present under a custom key",
			setupFn: func() router.Context {
				ctx := router.NewMockContext()
				ctx.LocalsMock["custom-claims"] = &SessionClaims{
					RegisteredClaims: jwt.RegisteredClaims{Subject: "user123"},
					UID:              "user123",
					UserRole:         RoleStudent,
				}
				return ctx
			},
			key:    "custom-claims",
			wantOK: true,
		},
		{
			name: "key not present",
			setupFn: func() router.Context {
				return router.NewMockContext()
			},
			key:    "user",
			wantOK: false,
		},
		{
			name: "value is the wrong type",
			setupFn: func() router.Context {
				ctx := router.NewMockContext()
				ctx.LocalsMock["user"] = "not-a-claims-object"
				return ctx
			},
			key:    "user",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.setupFn()
			claims, ok := GetRouterClaims(ctx, tt.key)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "user123", claims.UserID())
				assert.Equal(t, RoleStudent, claims.Role())
			} else {
				assert.Nil(t, claims)
			}
		})
	}
}

func TestUserFromRouter(t *testing.T) {
	t.Run("resolved user under the default key", func(t *testing.T) {
		user := &User{Name: "Test User"}

		ctx := router.NewMockContext()
		ctx.LocalsMock["auth_user"] = user

		got, ok := UserFromRouter(ctx, "")
		assert.True(t, ok)
		assert.Equal(t, user, got)
	})

	t.Run("missing user", func(t *testing.T) {
		ctx := router.NewMockContext()

		got, ok := UserFromRouter(ctx, "")
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("wrong type", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["auth_user"] = "not-a-user"

		_, ok := UserFromRouter(ctx, "")
		assert.False(t, ok)
	})
}
