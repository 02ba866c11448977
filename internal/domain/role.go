package domain

// User roles. Parents are linked to their children via User.Children.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleParent  = "parent"
)

// Roles lists every valid role, in display order.
var Roles = []string{RoleAdmin, RoleTeacher, RoleStudent, RoleParent}

// ValidRole returns true when role is one of the supported role names.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
