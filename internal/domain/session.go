package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
)

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"user_type"`
}

// Session is the authenticated identity held for the duration of a login.
// Token is the bearer credential, not a queue token.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
