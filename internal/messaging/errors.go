package messaging

import "errors"

// Messaging errors
var (
	ErrSelfMessage       = errors.New("cannot send a message to yourself")
	ErrRecipientNotFound = errors.New("recipient not found")
)
