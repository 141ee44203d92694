package interfaces

import (
	"context"

	"campuswire/pkg/types"
)

//go:generate go run go.uber.org/mock/mockgen -source=directory.go -destination=../../internal/mocks/directory.go -package=mocks

// Directory is read-only access to identity records and course rosters.
type Directory interface {
	// FindIdentity returns ErrIdentityNotFound when no record exists.
	FindIdentity(ctx context.Context, id string) (types.Identity, error)

	// FindByAttribute returns identities whose attribute equals value. Callers
	// filter by role and active flag.
	FindByAttribute(ctx context.Context, attr types.Attribute, value string) ([]types.Identity, error)

	// ActiveStudents returns every active student identity.
	ActiveStudents(ctx context.Context) ([]types.Identity, error)

	// CourseRoster returns the enrolled identity ids. found is false when the
	// course does not exist.
	CourseRoster(ctx context.Context, courseID string) (ids []string, found bool, err error)
}
