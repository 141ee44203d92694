package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
)

// membershipChunk keeps IN lists well under SQLite's bound variable limit.
const membershipChunk = 500

var attributeColumns = map[types.Attribute]string{
	types.AttrFaculty:    "faculty",
	types.AttrDepartment: "department",
	types.AttrLevel:      "level",
}

const identityColumns = `id, role, name, faculty, department, level, active`

// FindIdentity returns one identity with its course and club memberships.
func (m *Manager) FindIdentity(ctx context.Context, id string) (types.Identity, error) {
	var identity types.Identity
	err := m.db.GetContext(ctx, &identity, `SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Identity{}, interfaces.ErrIdentityNotFound
		}
		return types.Identity{}, fmt.Errorf("failed to query identity: %w", err)
	}

	list := []types.Identity{identity}
	if err := m.attachMemberships(ctx, list); err != nil {
		return types.Identity{}, err
	}
	return list[0], nil
}

// FindByAttribute returns every identity whose attribute equals value,
// whatever its role or active flag.
func (m *Manager) FindByAttribute(ctx context.Context, attr types.Attribute, value string) ([]types.Identity, error) {
	column, ok := attributeColumns[attr]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, attr)
	}
	return m.queryIdentities(ctx, `SELECT `+identityColumns+` FROM identities WHERE `+column+` = ? ORDER BY id`, value)
}

// ActiveStudents returns every active student.
func (m *Manager) ActiveStudents(ctx context.Context) ([]types.Identity, error) {
	return m.queryIdentities(ctx, `SELECT `+identityColumns+` FROM identities WHERE role = ? AND active = 1 ORDER BY id`, types.RoleStudent)
}

// CourseRoster returns the enrolled identity ids; found is false for an
// unknown course.
func (m *Manager) CourseRoster(ctx context.Context, courseID string) ([]string, bool, error) {
	var exists int
	if err := m.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM courses WHERE id = ?`, courseID); err != nil {
		return nil, false, fmt.Errorf("failed to query course: %w", err)
	}
	if exists == 0 {
		return nil, false, nil
	}

	var ids []string
	err := m.db.SelectContext(ctx, &ids, `SELECT student_id FROM enrollments WHERE course_id = ? ORDER BY student_id`, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query roster: %w", err)
	}
	return ids, true, nil
}

func (m *Manager) queryIdentities(ctx context.Context, query string, args ...any) ([]types.Identity, error) {
	var identities []types.Identity
	if err := m.db.SelectContext(ctx, &identities, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query identities: %w", err)
	}
	if err := m.attachMemberships(ctx, identities); err != nil {
		return nil, err
	}
	return identities, nil
}

type membership struct {
	Owner string `db:"owner"`
	Group string `db:"grp"`
}

// attachMemberships fills Courses and Clubs in place.
func (m *Manager) attachMemberships(ctx context.Context, identities []types.Identity) error {
	if len(identities) == 0 {
		return nil
	}
	ids := lo.Map(identities, func(i types.Identity, _ int) string { return i.ID })

	courses, err := m.memberships(ctx, `SELECT student_id AS owner, course_id AS grp FROM enrollments WHERE student_id IN (?) ORDER BY course_id`, ids)
	if err != nil {
		return fmt.Errorf("failed to query enrollments: %w", err)
	}
	clubs, err := m.memberships(ctx, `SELECT identity_id AS owner, club_id AS grp FROM club_members WHERE identity_id IN (?) ORDER BY club_id`, ids)
	if err != nil {
		return fmt.Errorf("failed to query club members: %w", err)
	}

	for i := range identities {
		identities[i].Courses = courses[identities[i].ID]
		identities[i].Clubs = clubs[identities[i].ID]
	}
	return nil
}

func (m *Manager) memberships(ctx context.Context, query string, ids []string) (map[string][]string, error) {
	grouped := make(map[string][]string)
	for _, chunk := range lo.Chunk(ids, membershipChunk) {
		q, args, err := sqlx.In(query, chunk)
		if err != nil {
			return nil, err
		}
		var rows []membership
		if err := m.db.SelectContext(ctx, &rows, m.db.Rebind(q), args...); err != nil {
			return nil, err
		}
		for _, r := range rows {
			grouped[r.Owner] = append(grouped[r.Owner], r.Group)
		}
	}
	return grouped, nil
}

// Course is a catalogue entry rosters hang off.
type Course struct {
	ID          string  `json:"id" db:"id"`
	Title       string  `json:"title" db:"title"`
	ProfessorID *string `json:"professor_id,omitempty" db:"professor_id"`
}

// UpsertCourse creates or renames a course.
func (m *Manager) UpsertCourse(ctx context.Context, course Course) error {
	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.NamedExecContext(ctx, `
			INSERT INTO courses (id, title, professor_id) VALUES (:id, :title, :professor_id)
			ON CONFLICT(id) DO UPDATE SET title = excluded.title, professor_id = excluded.professor_id
		`, course)
		if err != nil {
			return fmt.Errorf("failed to upsert course: %w", err)
		}
		return nil
	})
}

// UpsertIdentity writes the identity record and replaces its memberships with
// identity.Courses and identity.Clubs. Courses must already exist.
func (m *Manager) UpsertIdentity(ctx context.Context, identity types.Identity) error {
	return m.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO identities (id, role, name, faculty, department, level, active)
			VALUES (:id, :role, :name, :faculty, :department, :level, :active)
			ON CONFLICT(id) DO UPDATE SET
				role = excluded.role, name = excluded.name, faculty = excluded.faculty,
				department = excluded.department, level = excluded.level, active = excluded.active
		`, identity)
		if err != nil {
			return fmt.Errorf("failed to upsert identity: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE student_id = ?`, identity.ID); err != nil {
			return fmt.Errorf("failed to clear enrollments: %w", err)
		}
		for _, course := range lo.Uniq(identity.Courses) {
			if _, err := tx.ExecContext(ctx, `INSERT INTO enrollments (course_id, student_id) VALUES (?, ?)`, course, identity.ID); err != nil {
				return fmt.Errorf("failed to enroll %s in %s: %w", identity.ID, course, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM club_members WHERE identity_id = ?`, identity.ID); err != nil {
			return fmt.Errorf("failed to clear club memberships: %w", err)
		}
		for _, club := range lo.Uniq(identity.Clubs) {
			if _, err := tx.ExecContext(ctx, `INSERT INTO club_members (club_id, identity_id) VALUES (?, ?)`, club, identity.ID); err != nil {
				return fmt.Errorf("failed to add %s to club %s: %w", identity.ID, club, err)
			}
		}
		return nil
	})
}

var _ interfaces.Directory = (*Manager)(nil)
