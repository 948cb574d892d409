package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "welltrack"

// AuthService resolves users against the directory and issues session tokens.
type AuthService struct {
	dir       *Directory
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// AuthConfig represents configuration for the auth service
type AuthConfig struct {
	JWTSecret string        `toml:"jwt_secret" mapstructure:"jwt_secret" json:"jwt_secret"`
	TokenTTL  time.Duration `toml:"token_ttl" mapstructure:"token_ttl" json:"token_ttl"`
	Users     []User        `toml:"users" mapstructure:"users" json:"users"`
}

// Claims represents JWT claims
type Claims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new authentication service
func NewAuthService(config AuthConfig) (*AuthService, error) {
	dir, err := NewDirectory(config.Users)
	if err != nil {
		return nil, fmt.Errorf("failed to load user directory: %w", err)
	}

	jwtSecret := []byte(config.JWTSecret)
	if len(jwtSecret) == 0 {
		// Tokens from a random secret die with the process.
		jwtSecret = make([]byte, 32)
		if _, err := rand.Read(jwtSecret); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
	}

	tokenTTL := config.TokenTTL
	if tokenTTL == 0 {
		tokenTTL = 12 * time.Hour
	}

	return &AuthService{
		dir:       dir,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}, nil
}

func (s *AuthService) Directory() *Directory { return s.dir }

// Login looks the user up and issues a session token.
func (s *AuthService) Login(_ context.Context, username string) (*AuthResult, error) {
	user, err := s.dir.Lookup(username)
	if err != nil {
		return &AuthResult{Success: false}, err
	}
	token, err := s.generateJWT(user)
	if err != nil {
		return &AuthResult{Success: false}, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{Success: true, Username: user.Name, Role: user.Role, Token: token}, nil
}

// Authenticate performs authentication based on the login request
func (s *AuthService) Authenticate(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	switch req.Method {
	case AuthMethodUsername:
		user, err := s.dir.Lookup(req.Username)
		if err != nil {
			return &AuthResult{Success: false}, err
		}
		return &AuthResult{Success: true, Username: user.Name, Role: user.Role}, nil
	case AuthMethodJWT:
		return s.authenticateJWT(ctx, req.Token)
	default:
		return &AuthResult{Success: false}, fmt.Errorf("unsupported auth method: %s", req.Method)
	}
}

// authenticateJWT validates a token and re-checks the directory, so users
// removed from configuration lose access on restart.
func (s *AuthService) authenticateJWT(_ context.Context, tokenString string) (*AuthResult, error) {
	if tokenString == "" {
		return &AuthResult{Success: false}, &AuthError{}
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return &AuthResult{Success: false}, fmt.Errorf("%w: %v", &AuthError{}, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return &AuthResult{Success: false}, &AuthError{}
	}

	user, err := s.dir.Lookup(claims.Username)
	if err != nil {
		return &AuthResult{Success: false}, err
	}

	return &AuthResult{Success: true, Username: user.Name, Role: user.Role}, nil
}

// generateJWT generates a JWT token for a user
func (s *AuthService) generateJWT(user User) (*Token, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)

	claims := &Claims{
		Username: user.Name,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   user.Name,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Token{
		Type:      "Bearer",
		Value:     tokenString,
		ExpiresAt: expiresAt,
	}, nil
}

var rolePermissions = map[Role][]Permission{
	RoleEntry: {
		{Resource: "*", Action: "*"},
	},
	RoleView: {
		{Resource: ResourceRecord, Action: ActionRead},
		{Resource: ResourceWorkflow, Action: ActionRead},
	},
}

// HasPermission checks if a role has a specific permission
func (s *AuthService) HasPermission(role Role, resource, action string) bool {
	for _, perm := range rolePermissions[role] {
		if (perm.Resource == "*" || perm.Resource == resource) &&
			(perm.Action == "*" || perm.Action == action) {
			return true
		}
	}
	return false
}

// Authorize returns a *PermissionError when result's role lacks the permission.
func (s *AuthService) Authorize(result *AuthResult, resource, action string) error {
	if result == nil || !result.Success {
		return &AuthError{}
	}
	if !s.HasPermission(result.Role, resource, action) {
		return &PermissionError{
			Username: result.Username,
			Role:     result.Role,
			Perm:     Permission{Resource: resource, Action: action},
		}
	}
	return nil
}

// IsAuthError reports whether err is an identity failure.
func IsAuthError(err error) bool { return errors.Is(err, ErrUserNotRecognized) }
