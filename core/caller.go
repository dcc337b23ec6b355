package core

// Roles
const (
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

var AllRoles = []string{RoleInstructor, RoleStudent}

// Caller is the identity of whoever makes a request, as verified by the auth middleware.
type Caller struct {
	ID    ID     `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

func (c Caller) IsInstructor() bool { return c.Role == RoleInstructor }

func ValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
