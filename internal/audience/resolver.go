// Package audience turns declarative audience rules into recipient sets. It
// holds no state: every call reads the directory at evaluation time.
package audience

import (
	"context"
	"fmt"
	"sort"

	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/samber/lo"
)

// Set is a set of identity ids.
type Set map[string]struct{}

// NewSet builds a set from ids, dropping duplicates.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Add(id string) { s[id] = struct{}{} }
func (s Set) Len() int      { return len(s) }

func (s Set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Union adds every member of other to s.
func (s Set) Union(other Set) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	ids := lo.Keys(s)
	sort.Strings(ids)
	return ids
}

// Resolver evaluates rules against a directory.
type Resolver struct {
	directory interfaces.Directory
}

// NewResolver creates a resolver reading from directory.
func NewResolver(directory interfaces.Directory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve returns the recipients of a single rule. A course that does not
// exist resolves to the empty set. Directory failures are returned as errors.
// An unknown rule kind is a programming error and panics.
func (r *Resolver) Resolve(ctx context.Context, rule types.AudienceRule) (Set, error) {
	switch rule.Kind {
	case types.RuleAll:
		students, err := r.directory.ActiveStudents(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve all students: %w", err)
		}
		return activeStudentIDs(students), nil

	case types.RuleFaculty:
		return r.byAttribute(ctx, types.AttrFaculty, rule.Value)
	case types.RuleDepartment:
		return r.byAttribute(ctx, types.AttrDepartment, rule.Value)
	case types.RuleLevel:
		return r.byAttribute(ctx, types.AttrLevel, rule.Value)

	case types.RuleCourse:
		// ARCHITECTURAL DISCOVERY: The roster is authoritative, so course
		// members are not filtered by role or active flag
		ids, found, err := r.directory.CourseRoster(ctx, rule.Value)
		if err != nil {
			return nil, fmt.Errorf("resolve course %s: %w", rule.Value, err)
		}
		if !found {
			return Set{}, nil
		}
		return NewSet(ids...), nil

	default:
		panic(fmt.Sprintf("audience: unknown rule kind %q", rule.Kind))
	}
}

// ResolveAll returns the union of every rule's recipients. A recipient
// matched by several rules appears once.
func (r *Resolver) ResolveAll(ctx context.Context, rules ...types.AudienceRule) (Set, error) {
	out := Set{}
	for _, rule := range rules {
		set, err := r.Resolve(ctx, rule)
		if err != nil {
			return nil, err
		}
		out.Union(set)
	}
	return out, nil
}

func (r *Resolver) byAttribute(ctx context.Context, attr types.Attribute, value string) (Set, error) {
	identities, err := r.directory.FindByAttribute(ctx, attr, value)
	if err != nil {
		return nil, fmt.Errorf("resolve %s=%s: %w", attr, value, err)
	}
	return activeStudentIDs(identities), nil
}

func activeStudentIDs(identities []types.Identity) Set {
	students := lo.Filter(identities, func(i types.Identity, _ int) bool {
		return i.Role == types.RoleStudent && i.Active
	})
	return NewSet(lo.Map(students, func(i types.Identity, _ int) string { return i.ID })...)
}
