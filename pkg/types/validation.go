package types

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validate is shared by every Validate method. Struct tag rules are cached by
// the validator after the first call per type.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("userid", func(fl validator.FieldLevel) bool {
		return IsValidUserID(fl.Field().String())
	})
	return v
}

// IsValidUserID checks if a user ID meets format requirements. Course and
// club ids share the same format.
func IsValidUserID(userID string) bool {
	if len(userID) < 1 || len(userID) > 50 {
		return false
	}
	return userIDRegex.MatchString(userID)
}

func wrap(sentinel error, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

// Validate checks kind and value shape. Unknown kinds are rejected here so
// they never reach the resolver.
func (r AudienceRule) Validate() error {
	return wrap(ErrInvalidRule, validate.Struct(r))
}

// Validate defaults the priority to normal and checks field limits.
func (n *Notice) Validate() error {
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}
	if n.Recipient != "" && !IsValidUserID(n.Recipient) {
		return ErrInvalidUserID
	}
	return wrap(ErrInvalidNotice, validate.Struct(n))
}

func (a *Assessment) Validate() error {
	return wrap(ErrInvalidAssessment, validate.Struct(a))
}

func (r *AttendanceRecord) Validate() error {
	return wrap(ErrInvalidAttendance, validate.Struct(r))
}

func (m *Message) Validate() error {
	return wrap(ErrInvalidMessage, validate.Struct(m))
}

