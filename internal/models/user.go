package models

// Roles understood by the console
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ProtectedUsername is the built-in administrator account that can never be deleted
const ProtectedUsername = "admin"

// User is an account as returned by the backend's /usuarios endpoints
type User struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the user holds the admin role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserInput is the body sent to the backend when creating or updating an account.
// An empty Password is omitted so updates keep the current one.
type UserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
}

// Credentials is the login body
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
