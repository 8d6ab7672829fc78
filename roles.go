package studygroups

// IsValidRole checks if the role is one of the predefined account roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleStudent, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a UserRole
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}

// GetAllRoles returns all predefined account roles
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleStudent,
		RoleAdmin,
	}
}
