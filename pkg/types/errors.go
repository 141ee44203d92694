package types

import "errors"

// ARCHITECTURAL DISCOVERY: Sentinel errors let the HTTP layer map a failed
// validation to a status code without string matching
var (
	ErrInvalidUserID     = errors.New("user ID must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidRule       = errors.New("invalid audience rule")
	ErrInvalidNotice     = errors.New("notice requires a type and a title of at most 200 characters")
	ErrInvalidAssessment = errors.New("invalid assessment")
	ErrInvalidAttendance = errors.New("invalid attendance record")
	ErrInvalidMessage    = errors.New("message requires a recipient and a body of at most 64KB")
)
