package interfaces

import "errors"

// Common collaborator errors used across components
var (
	ErrIdentityNotFound     = errors.New("identity not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrAssessmentNotFound   = errors.New("assessment not found")
	ErrUnauthorized         = errors.New("unauthorized access")
)
