package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Session represents a user session
type Session struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ServerURL string    `json:"server_url"`
}

// SessionManager handles session storage and retrieval
type SessionManager struct {
	sessionPath string
}

// NewSessionManager creates a session manager under ~/.welltrack.
func NewSessionManager() *SessionManager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory
		homeDir = "."
	}
	return newSessionManagerAt(filepath.Join(homeDir, ".welltrack"))
}

func newSessionManagerAt(dir string) *SessionManager {
	_ = os.MkdirAll(dir, 0o700)
	return &SessionManager{sessionPath: filepath.Join(dir, "session.json")}
}

// SaveSession saves a session to disk
func (sm *SessionManager) SaveSession(session *Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sm.sessionPath, data, 0o600)
}

// LoadSession loads a session from disk. A missing or expired session
// yields nil without an error.
func (sm *SessionManager) LoadSession() (*Session, error) {
	data, err := os.ReadFile(sm.sessionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		_ = sm.ClearSession()
		return nil, nil
	}
	return &session, nil
}

// ClearSession removes the session file
func (sm *SessionManager) ClearSession() error {
	if err := os.Remove(sm.sessionPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (sm *SessionManager) IsLoggedIn() bool {
	session, err := sm.LoadSession()
	return err == nil && session != nil
}

func (sm *SessionManager) GetSessionPath() string {
	return sm.sessionPath
}
