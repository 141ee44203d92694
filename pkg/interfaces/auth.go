package interfaces

import (
	"context"

	"campuswire/pkg/types"
)

//go:generate go run go.uber.org/mock/mockgen -source=auth.go -destination=../../internal/mocks/auth.go -package=mocks

// TokenVerifier validates a bearer credential. It returns ErrUnauthorized for
// any invalid, expired or malformed token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (types.Claims, error)
}
