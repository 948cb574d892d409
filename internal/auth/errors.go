package auth

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotRecognized = errors.New("user not recognized")
	ErrPermissionDenied  = errors.New("permission denied")
)

// AuthError reports an identity that is not in the directory. It matches
// ErrUserNotRecognized with errors.Is.
type AuthError struct {
	Username string
}

func (e *AuthError) Error() string { return ErrUserNotRecognized.Error() }

func (e *AuthError) Unwrap() error { return ErrUserNotRecognized }

// PermissionError reports a recognized user acting beyond their role.
type PermissionError struct {
	Username string
	Role     Role
	Perm     Permission
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s (%s) may not %s %s", e.Username, e.Role, e.Perm.Action, e.Perm.Resource)
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }
