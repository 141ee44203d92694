// Package auth issues and verifies the bearer tokens presented by clients.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/golang-jwt/jwt/v5"
)

// ErrWeakSecret is returned when the signing secret is too short for HS256.
var ErrWeakSecret = errors.New("token secret must be at least 32 bytes")

const minSecretLength = 32

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string     `json:"user_id"`
	Role   types.Role `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens issued by a Signer sharing its secret.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a token verifier. An empty issuer disables the issuer check.
func NewVerifier(secret, issuer string) (*Verifier, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	return &Verifier{secret: []byte(secret), issuer: issuer}, nil
}

// Verify parses and validates the signature, expiration and issuer of a token.
// Every failure is reported as interfaces.ErrUnauthorized.
func (v *Verifier) Verify(ctx context.Context, token string) (types.Claims, error) {
	if err := ctx.Err(); err != nil {
		return types.Claims{}, err
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &CustomClaims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return types.Claims{}, fmt.Errorf("%w: %w", interfaces.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(*CustomClaims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return types.Claims{}, interfaces.ErrUnauthorized
	}
	return types.Claims{UserID: claims.UserID, Role: claims.Role}, nil
}

// Signer issues tokens for authenticated identities.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a token signer whose tokens expire after ttl.
func NewSigner(secret, issuer string, ttl time.Duration) (*Signer, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	return &Signer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Sign creates a signed JWT for a specific identity.
func (s *Signer) Sign(userID string, role types.Role) (string, error) {
	now := s.now()
	claims := &CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

var _ interfaces.TokenVerifier = (*Verifier)(nil)
