package api

import (
	"context"
	"errors"
	"strings"

	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/labstack/echo/v4"
)

const contextIdentityKey = "identity"

// authMiddleware verifies the bearer token and loads the caller's directory
// record, bounded by the auth timeout.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return errMissingToken
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), s.opts.AuthTimeout)
		defer cancel()

		claims, err := s.opts.Verifier.Verify(ctx, strings.TrimSpace(token))
		if err != nil {
			return errInvalidToken.WithInternal(err)
		}

		identity, err := s.opts.Directory.FindIdentity(ctx, claims.UserID)
		switch {
		case errors.Is(err, interfaces.ErrIdentityNotFound):
			return errForbidden.WithInternal(err)
		case errors.Is(err, context.DeadlineExceeded):
			return errInvalidToken.WithInternal(err)
		case err != nil:
			return errDirectory.WithInternal(err)
		}
		if !identity.Active {
			return errIdentityInactive
		}
		if claims.Role != "" && claims.Role != identity.Role {
			return errRoleMismatch
		}

		c.Set(contextIdentityKey, identity)
		return next(c)
	}
}

// staffOnly admits professors and admins.
func staffOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !caller(c).Role.IsStaff() {
			return errForbidden
		}
		return next(c)
	}
}

func caller(c echo.Context) types.Identity {
	identity, _ := c.Get(contextIdentityKey).(types.Identity)
	return identity
}

// canRead reports whether the caller may read records owned by studentID.
func canRead(c echo.Context, studentID string) bool {
	me := caller(c)
	return me.ID == studentID || me.Role.IsStaff()
}
