package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SchemaValidator inspects sqlite_master and table_info.
// ARCHITECTURAL DISCOVERY: Startup refuses a database whose schema drifted
// from the embedded migrations, e.g. an index dropped by hand
type SchemaValidator struct {
	db *sqlx.DB
}

func NewSchemaValidator(db *sqlx.DB) *SchemaValidator {
	return &SchemaValidator{db: db}
}

var requiredTables = map[string]string{
	"identities":        "Directory records",
	"courses":           "Course catalogue",
	"enrollments":       "Course rosters",
	"club_members":      "Club rosters",
	"messages":          "Direct messages",
	"assessments":       "Graded assessments",
	"attendance":        "Attendance marks",
	"announcements":     "Broadcast announcements",
	"notifications":     "Per-recipient notifications",
	"schema_migrations": "Migration tracking",
}

var requiredIndexes = map[string]string{
	"idx_identities_role_active":       "Active student scans",
	"idx_identities_faculty":           "Faculty audiences",
	"idx_identities_department":        "Department audiences",
	"idx_identities_level":             "Level audiences",
	"idx_enrollments_student":          "Identity course lists",
	"idx_messages_to_time":             "Inbox queries",
	"idx_assessments_student_course":   "Composite recomputation",
	"idx_notifications_recipient_time": "Notification inbox",
	"idx_notifications_read_at":        "Retention purge",
}

// ValidateTablesExist verifies that all required tables exist
func (v *SchemaValidator) ValidateTablesExist() error {
	for table, description := range requiredTables {
		exists, err := v.exists("table", table)
		if err != nil {
			return fmt.Errorf("error checking table %s (%s): %w", table, description, err)
		}
		if !exists {
			return fmt.Errorf("required table %s (%s) does not exist", table, description)
		}
	}
	return nil
}

// ValidateTableStructure verifies the columns the stores read and write
func (v *SchemaValidator) ValidateTableStructure() error {
	notificationColumns := map[string]string{
		"id":         "TEXT",
		"recipient":  "TEXT",
		"sender":     "TEXT",
		"type":       "TEXT",
		"title":      "TEXT",
		"body":       "TEXT",
		"priority":   "TEXT",
		"data":       "TEXT",
		"is_read":    "BOOLEAN",
		"read_at":    "DATETIME",
		"created_at": "DATETIME",
	}
	if err := v.validateColumns("notifications", notificationColumns); err != nil {
		return fmt.Errorf("notifications table structure invalid: %w", err)
	}

	assessmentColumns := map[string]string{
		"id":         "TEXT",
		"student_id": "TEXT",
		"course_id":  "TEXT",
		"type":       "TEXT",
		"score":      "REAL",
		"max_score":  "REAL",
		"weight":     "REAL",
		"created_at": "DATETIME",
	}
	if err := v.validateColumns("assessments", assessmentColumns); err != nil {
		return fmt.Errorf("assessments table structure invalid: %w", err)
	}
	return nil
}

// ValidateIndexes verifies that all performance indexes exist
func (v *SchemaValidator) ValidateIndexes() error {
	for index, purpose := range requiredIndexes {
		exists, err := v.exists("index", index)
		if err != nil {
			return fmt.Errorf("error checking index %s (%s): %w", index, purpose, err)
		}
		if !exists {
			return fmt.Errorf("required index %s (%s) does not exist", index, purpose)
		}
	}
	return nil
}

// ValidateConstraints verifies that integrity rules are enforced by the
// database. Every probe write must fail, so nothing needs cleaning up.
func (v *SchemaValidator) ValidateConstraints() error {
	if _, err := v.db.Exec(`INSERT INTO enrollments (course_id, student_id) VALUES ('__probe_course', '__probe_student')`); err == nil {
		_, _ = v.db.Exec(`DELETE FROM enrollments WHERE course_id = '__probe_course'`)
		return fmt.Errorf("foreign key constraint not enforced: enrollments.course_id")
	}

	if _, err := v.db.Exec(`
		INSERT INTO assessments (id, student_id, course_id, type, score, max_score, weight, created_at)
		VALUES ('__probe', 's', 'c', 'lab', 1, 0, 0.5, CURRENT_TIMESTAMP)
	`); err == nil {
		_, _ = v.db.Exec(`DELETE FROM assessments WHERE id = '__probe'`)
		return fmt.Errorf("check constraint not enforced: assessments.max_score")
	}

	if _, err := v.db.Exec(`
		INSERT INTO notifications (id, recipient, type, title, priority, created_at)
		VALUES ('__probe', 'r', 't', 't', 'urgent', CURRENT_TIMESTAMP)
	`); err == nil {
		_, _ = v.db.Exec(`DELETE FROM notifications WHERE id = '__probe'`)
		return fmt.Errorf("check constraint not enforced: notifications.priority")
	}
	return nil
}

func (v *SchemaValidator) exists(kind, name string) (bool, error) {
	var count int
	err := v.db.Get(&count, "SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", kind, name)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type columnInfo struct {
	CID          int     `db:"cid"`
	Name         string  `db:"name"`
	Type         string  `db:"type"`
	NotNull      int     `db:"notnull"`
	DefaultValue *string `db:"dflt_value"`
	PK           int     `db:"pk"`
}

// validateColumns checks that a table has the expected columns with correct types
func (v *SchemaValidator) validateColumns(table string, expected map[string]string) error {
	var columns []columnInfo
	if err := v.db.Select(&columns, fmt.Sprintf("PRAGMA table_info(%s)", table)); err != nil {
		return err
	}

	found := make(map[string]string, len(columns))
	for _, c := range columns {
		found[c.Name] = c.Type
	}
	for col, want := range expected {
		got, ok := found[col]
		if !ok {
			return fmt.Errorf("column %s not found", col)
		}
		if got != want {
			return fmt.Errorf("column %s has type %s, expected %s", col, got, want)
		}
	}
	return nil
}
