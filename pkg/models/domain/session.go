package domain

import "time"

type SessionState string

const (
	StateUninitialized       SessionState = "uninitialized"
	StateInitializing        SessionState = "initializing"
	StateAwaitingParameters  SessionState = "awaiting_parameters"
	StateParametersSubmitted SessionState = "parameters_submitted"
	StateError               SessionState = "error"
)

// ChatEnabled reports whether free-text chat is accepted in this state.
func (s SessionState) ChatEnabled() bool {
	return s == StateParametersSubmitted
}

type User struct {
	Name string
	ID   string
}

type Session struct {
	UserName     string
	UserID       string
	SessionID    string
	APISessionID string
}

// ReportSessionID is the id the report storage scheme is keyed on.
func (s Session) ReportSessionID() string {
	if s.APISessionID != "" {
		return s.APISessionID
	}
	return s.SessionID
}

type MessageRole string

const (
	RoleUser   MessageRole = "user"
	RoleBot    MessageRole = "bot"
	RoleSystem MessageRole = "system"
)

type Message struct {
	ID        string
	Role      MessageRole
	Text      string
	ReportURL string
	Filename  string
	Rows      []map[string]any
	IsError   bool
	CreatedAt time.Time
}
