package session

// Role of a member as reported by the profile endpoint.
type Role string

const (
	RoleUser    Role = "USER"
	RoleTrainer Role = "TRAINER"
)

// User is the cached profile of the logged-in member.
type User struct {
	UserID   int64  `json:"userId" yaml:"userId" mapstructure:"userId"`
	Username string `json:"username" yaml:"username" mapstructure:"username"`
	Role     Role   `json:"role" yaml:"role" mapstructure:"role"`
}

// WithDefaults fills fields the backend may omit.
func (u User) WithDefaults() User {
	if u.Role == "" {
		u.Role = RoleUser
	}

	return u
}

// Session is the locally persisted authentication state. Token and User are
// written and cleared as a pair.
type Session struct {
	Token string
	User  *User
}
