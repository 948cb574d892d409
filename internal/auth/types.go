package auth

import (
	"time"
)

// AuthMethod represents the type of authentication
type AuthMethod string

const (
	AuthMethodUsername AuthMethod = "username" // directory lookup by name
	AuthMethodJWT      AuthMethod = "jwt"      // session token issued by Login
)

// Role is what a user may do. There is no guest role: a request without a
// recognized user is rejected.
type Role string

const (
	RoleEntry Role = "entry"
	RoleView  Role = "view"
)

func (r Role) Valid() bool { return r == RoleEntry || r == RoleView }

// User is one entry of the configured directory.
type User struct {
	Name string `json:"name" mapstructure:"name"`
	Role Role   `json:"role" mapstructure:"role"`
}

// AuthResult represents the result of authentication
type AuthResult struct {
	Success  bool   `json:"success"`
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role,omitempty"`
	Token    *Token `json:"token,omitempty"`
}

// Token represents a JWT token
type Token struct {
	Type      string    `json:"type"`  // "Bearer"
	Value     string    `json:"value"` // JWT token string
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Method   AuthMethod `json:"method,omitempty"`
	Username string     `json:"username,omitempty"`
	Token    string     `json:"token,omitempty"`
}

// Permission represents a permission in the system
type Permission struct {
	Resource string `json:"resource"` // "record" or "workflow"
	Action   string `json:"action"`   // "read", "write" or "delete"
}

const (
	ResourceRecord   = "record"
	ResourceWorkflow = "workflow"

	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)
