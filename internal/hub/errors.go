package hub

import "errors"

// Hub lifecycle errors
var (
	ErrHubAlreadyRunning = errors.New("hub is already running")
	ErrHubNotRunning     = errors.New("hub is not running")
	ErrQueueFull         = errors.New("inbound queue is full")
)

// Inbound event errors, reported back to the sending connection
var (
	ErrInvalidFrame      = errors.New("frame must be a JSON object with an event name")
	ErrUnknownEvent      = errors.New("unknown event")
	ErrInvalidPayload    = errors.New("invalid event payload")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrForbiddenRoom     = errors.New("not allowed to join this room")
	ErrNotInRoom         = errors.New("not a member of this room")
	ErrMissingTarget     = errors.New("typing indicator needs a recipient or a room")
	ErrUnknownRecipient  = errors.New("recipient not found")
)
