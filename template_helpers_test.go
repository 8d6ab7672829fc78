package studygroups

import (
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateHelpers(t *testing.T) {
	helpers := TemplateHelpers()

	for _, key := range []string{
		"is_authenticated",
		"has_role",
		"can_manage_requests",
		"can_leave",
		"can_request_join",
		"can_cancel_request",
		"roles",
	} {
		assert.Contains(t, helpers, key)
	}

	roles := helpers["roles"].(map[string]string)
	assert.Equal(t, RoleStudent, roles["student"])
	assert.Equal(t, RoleAdmin, roles["admin"])
}

func TestTemplateHelpersWithUser(t *testing.T) {
	user := &User{Name: "Test User"}

	helpers := TemplateHelpersWithUser(user)
	assert.Equal(t, user, helpers[TemplateUserKey])
}

func TestIsAuthenticatedHelper(t *testing.T) {
	fn := TemplateHelpers()["is_authenticated"].(func(any) bool)

	assert.True(t, fn(&User{Name: "Test"}))
	assert.True(t, fn(User{Name: "Test"}))
	assert.True(t, fn(&SessionClaims{UID: "user123"}))
	assert.True(t, fn(map[string]any{"user_id": "user123"}))

	assert.False(t, fn(nil))
	assert.False(t, fn((*User)(nil)))
	assert.False(t, fn(map[string]any{}))
	assert.False(t, fn("garbage"))
}

func TestHasRoleHelper(t *testing.T) {
	fn := TemplateHelpers()["has_role"].(func(any, string) bool)

	assert.True(t, fn(&User{Role: RoleAdmin}, RoleAdmin))
	assert.False(t, fn(&User{Role: RoleStudent}, RoleAdmin))
	assert.True(t, fn(User{Role: RoleStudent}, RoleStudent))
	assert.True(t, fn(&SessionClaims{UserRole: RoleAdmin}, RoleAdmin))
	assert.True(t, fn(map[string]any{"user_role": RoleStudent}, RoleStudent))

	assert.False(t, fn(nil, RoleAdmin))
	assert.False(t, fn((*User)(nil), RoleAdmin))
}

func TestRelationHelpers(t *testing.T) {
	canManage := TemplateHelpers()["can_manage_requests"].(func(any) bool)
	canLeaveFn := TemplateHelpers()["can_leave"].(func(any) bool)
	canJoin := TemplateHelpers()["can_request_join"].(func(any) bool)
	canCancel := TemplateHelpers()["can_cancel_request"].(func(any) bool)

	// helpers accept both the typed relation and its template string form
	assert.True(t, canManage(RelationOwner))
	assert.True(t, canManage("owner"))
	assert.False(t, canManage("member"))

	assert.True(t, canLeaveFn("member"))
	assert.False(t, canLeaveFn("owner"))

	assert.True(t, canJoin("stranger"))
	assert.True(t, canCancel("pending"))

	assert.False(t, canJoin(42))
}

func TestMergeTemplateData(t *testing.T) {
	t.Run("layers helpers under existing data", func(t *testing.T) {
		ctx := router.NewMockContext()

		data := MergeTemplateData(ctx, router.ViewContext{"title": "dashboard"})

		assert.Equal(t, "dashboard", data["title"])
		assert.Contains(t, data, "is_authenticated")
	})

	t.Run("caller data wins over helpers", func(t *testing.T) {
		ctx := router.NewMockContext()

		data := MergeTemplateData(ctx, router.ViewContext{"has_role": "overridden"})
		assert.Equal(t, "overridden", data["has_role"])
	})

	t.Run("picks up the resolved user from locals", func(t *testing.T) {
		user := &User{Name: "Test User"}

		ctx := router.NewMockContext()
		ctx.LocalsMock["auth_user"] = user

		data := MergeTemplateData(ctx, nil)
		assert.Equal(t, user, data[TemplateUserKey])
	})

	t.Run("explicit current_user local wins", func(t *testing.T) {
		user := &User{Name: "Explicit"}

		ctx := router.NewMockContext()
		ctx.LocalsMock[TemplateUserKey] = user
		ctx.LocalsMock["auth_user"] = &User{Name: "Resolved"}

		data := MergeTemplateData(ctx, nil)
		assert.Equal(t, user, data[TemplateUserKey])
	})
}

func TestGetTemplateUser(t *testing.T) {
	user := &User{Name: "Test User"}

	ctx := router.NewMockContext()
	ctx.LocalsMock[TemplateUserKey] = user

	got, ok := GetTemplateUser(ctx, "")
	require.True(t, ok)
	assert.Equal(t, user, got)

	_, ok = GetTemplateUser(router.NewMockContext(), "")
	assert.False(t, ok)
}
