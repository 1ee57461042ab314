package session

import "errors"

var (
	ErrInvalidState = errors.New("operation not allowed in current state")
	ErrChatDisabled = errors.New("chat is disabled until report parameters are submitted")
	ErrEmptyMessage = errors.New("message is empty")
	ErrNotFound     = errors.New("session not found")
)
