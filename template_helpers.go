package studygroups

import (
	"github.com/goliatone/go-router"
)

var TemplateUserKey = "current_user"

// TemplateHelpers returns helper functions and data for view engines that
// accept global template data.
//
// In templates:
//
//	{% if current_user %}
//	{% if has_role(current_user, "ADMIN") %}
//	{% if can_leave(relation) %}
func TemplateHelpers() map[string]any {
	return map[string]any{
		"is_authenticated": isAuthenticated,
		"has_role":         hasRole,

		// group relation helpers, driven by the viewer's GroupRelation
		"can_manage_requests": canManageRequests,
		"can_leave":           canLeave,
		"can_request_join":    canRequestJoin,
		"can_cancel_request":  canCancelRequest,

		"roles": map[string]string{
			"student": RoleStudent,
			"admin":   RoleAdmin,
		},
	}
}

// TemplateHelpersWithUser returns template helpers with a specific user set
// as current_user.
func TemplateHelpersWithUser(user *User) map[string]any {
	helpers := TemplateHelpers()
	helpers[TemplateUserKey] = user
	return helpers
}

// MergeTemplateData layers the auth helpers and the middleware resolved
// current user into a per-request view context.
func MergeTemplateData(ctx router.Context, data router.ViewContext) router.ViewContext {
	if data == nil {
		data = router.ViewContext{}
	}

	for key, value := range TemplateHelpers() {
		if _, exists := data[key]; !exists {
			data[key] = value
		}
	}

	if user := ctx.Locals(TemplateUserKey); user != nil {
		data[TemplateUserKey] = user
	} else if user, ok := UserFromRouter(ctx, ""); ok {
		data[TemplateUserKey] = user
	}

	return data
}

// GetTemplateUser extracts user data from router context for template usage.
func GetTemplateUser(ctx router.Context, userKey string) (any, bool) {
	if userKey == "" {
		userKey = TemplateUserKey
	}

	user := ctx.Locals(userKey)
	return user, user != nil
}

// isAuthenticated checks if the provided user object is not nil
func isAuthenticated(user any) bool {
	switch u := user.(type) {
	case *User:
		return u != nil
	case User:
		return true
	case AuthClaims:
		return u != nil && u.UserID() != ""
	case map[string]any:
		return len(u) > 0
	default:
		return false
	}
}

// hasRole checks if the user has the specified account role
func hasRole(user any, role string) bool {
	switch u := user.(type) {
	case *User:
		if u == nil {
			return false
		}
		return u.Role == role
	case User:
		return u.Role == role
	case AuthClaims:
		if u == nil {
			return false
		}
		return u.Role() == role
	case map[string]any:
		if userRole, exists := u["user_role"]; exists {
			if roleStr, ok := userRole.(string); ok {
				return roleStr == role
			}
		}
		return false
	default:
		return false
	}
}

func relationOf(value any) GroupRelation {
	switch r := value.(type) {
	case GroupRelation:
		return r
	case string:
		return GroupRelation(r)
	default:
		return ""
	}
}

func canManageRequests(relation any) bool {
	return relationOf(relation).CanManageRequests()
}

func canLeave(relation any) bool {
	return relationOf(relation).CanLeave()
}

func canRequestJoin(relation any) bool {
	return relationOf(relation).CanRequestJoin()
}

func canCancelRequest(relation any) bool {
	return relationOf(relation).CanCancelRequest()
}
