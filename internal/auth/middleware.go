package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKey is used for context keys to avoid collisions
type ContextKey string

const (
	// ResultKey is the context key for auth result
	ResultKey ContextKey = "auth_result"

	// UserHeader names the user directly instead of presenting a token.
	UserHeader = "X-Welltrack-User"
)

// Middleware provides authentication middleware for HTTP handlers
type Middleware struct {
	authService *AuthService
	onFailure   func(reason string)
}

// NewMiddleware builds the middleware. onFailure, when set, is called for
// every rejected request with "auth" or "permission".
func NewMiddleware(svc *AuthService, onFailure func(reason string)) *Middleware {
	return &Middleware{authService: svc, onFailure: onFailure}
}

func (m *Middleware) fail(reason string) {
	if m.onFailure != nil {
		m.onFailure(reason)
	}
}

// GinAuth returns a Gin middleware function for authentication
func (m *Middleware) GinAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authResult, err := m.authenticate(c.Request)
		if err != nil || !authResult.Success {
			m.fail("auth")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "auth_error",
				"message": ErrUserNotRecognized.Error(),
			})
			c.Abort()
			return
		}

		// Store auth result in context
		c.Set(string(ResultKey), authResult)
		c.Next()
	}
}

// GinRequirePermission returns a Gin middleware that requires specific permissions
func (m *Middleware) GinRequirePermission(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, ok := ResultFrom(c)
		if !ok {
			m.fail("auth")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "auth_error",
				"message": "Authentication required",
			})
			c.Abort()
			return
		}

		if err := m.authService.Authorize(result, resource, action); err != nil {
			m.fail("permission")
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "permission_denied",
				"message": err.Error(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ResultFrom returns the authentication result stored by GinAuth.
func ResultFrom(c *gin.Context) (*AuthResult, bool) {
	v, exists := c.Get(string(ResultKey))
	if !exists {
		return nil, false
	}
	result, ok := v.(*AuthResult)
	if !ok || !result.Success {
		return nil, false
	}
	return result, true
}

// Actor returns the authenticated username or "".
func Actor(c *gin.Context) string {
	if r, ok := ResultFrom(c); ok {
		return r.Username
	}
	return ""
}

// authenticate extracts and validates authentication from HTTP request
func (m *Middleware) authenticate(r *http.Request) (*AuthResult, error) {
	// Try Authorization header first (Bearer token)
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			req := LoginRequest{
				Method: AuthMethodJWT,
				Token:  strings.TrimSpace(parts[1]),
			}
			return m.authService.Authenticate(r.Context(), req)
		}
	}

	if user := r.Header.Get(UserHeader); user != "" {
		req := LoginRequest{
			Method:   AuthMethodUsername,
			Username: user,
		}
		return m.authService.Authenticate(r.Context(), req)
	}

	return &AuthResult{Success: false}, errors.New("no credentials presented")
}
