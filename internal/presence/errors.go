package presence

import "errors"

// Registry errors
var (
	ErrUnknownConnection = errors.New("connection is not registered")
	ErrPinnedRoom        = errors.New("auto-joined room cannot be left while connected")
	ErrInvalidRoom       = errors.New("room name must be user:, course:, club: or role: followed by an id")
)
