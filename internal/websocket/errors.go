package websocket

import "errors"

// Connection-related errors
var (
	ErrConnectionClosed  = errors.New("connection closed")
	ErrInvalidTransition = errors.New("invalid connection state transition")
)

// Handler-related errors
var (
	ErrMissingToken     = errors.New("missing bearer token")
	ErrIdentityInactive = errors.New("identity is not active")
	ErrRoleMismatch     = errors.New("token role does not match directory role")
)
