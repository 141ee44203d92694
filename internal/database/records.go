package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/jmoiron/sqlx"
)

// StoreMessage persists a direct message.
func (m *Manager) StoreMessage(ctx context.Context, msg *types.Message) error {
	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		row := *msg
		row.CreatedAt = msg.CreatedAt.UTC()
		_, err := db.NamedExecContext(ctx, `
			INSERT INTO messages (id, from_user, to_user, body, is_read, created_at)
			VALUES (:id, :from_user, :to_user, :body, :is_read, :created_at)
		`, row)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		return nil
	})
}

// MessagesFor returns every message sent or received by the identity, oldest first.
func (m *Manager) MessagesFor(ctx context.Context, identityID string) ([]*types.Message, error) {
	var messages []*types.Message
	err := m.db.SelectContext(ctx, &messages, `
		SELECT id, from_user, to_user, body, is_read, created_at FROM messages
		WHERE from_user = ? OR to_user = ?
		ORDER BY created_at ASC, id ASC
	`, identityID, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	return messages, nil
}

// MarkConversationRead flags every message from counterpart to identityID as
// read and returns how many changed.
func (m *Manager) MarkConversationRead(ctx context.Context, identityID, counterpart string) (int, error) {
	var changed int64
	err := m.executeWrite(ctx, func(db *sqlx.DB) error {
		res, err := db.ExecContext(ctx, `
			UPDATE messages SET is_read = 1 WHERE to_user = ? AND from_user = ? AND is_read = 0
		`, identityID, counterpart)
		if err != nil {
			return fmt.Errorf("failed to mark messages read: %w", err)
		}
		changed, err = res.RowsAffected()
		return err
	})
	return int(changed), err
}

// StoreAssessment persists one graded assessment.
func (m *Manager) StoreAssessment(ctx context.Context, a *types.Assessment) error {
	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		row := *a
		row.CreatedAt = a.CreatedAt.UTC()
		_, err := db.NamedExecContext(ctx, `
			INSERT INTO assessments (id, student_id, course_id, type, score, max_score, weight, created_at)
			VALUES (:id, :student_id, :course_id, :type, :score, :max_score, :weight, :created_at)
		`, row)
		if err != nil {
			return fmt.Errorf("failed to insert assessment: %w", err)
		}
		return nil
	})
}

// DeleteAssessment removes an assessment and returns it so the caller can
// recompute the owner's composite.
func (m *Manager) DeleteAssessment(ctx context.Context, id string) (*types.Assessment, error) {
	var deleted types.Assessment
	err := m.inTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &deleted, `
			SELECT id, student_id, course_id, type, score, max_score, weight, created_at
			FROM assessments WHERE id = ?
		`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return interfaces.ErrAssessmentNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to query assessment: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM assessments WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete assessment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// Assessments returns the full current set for a student in a course.
func (m *Manager) Assessments(ctx context.Context, studentID, courseID string) ([]*types.Assessment, error) {
	var assessments []*types.Assessment
	err := m.db.SelectContext(ctx, &assessments, `
		SELECT id, student_id, course_id, type, score, max_score, weight, created_at
		FROM assessments WHERE student_id = ? AND course_id = ?
		ORDER BY created_at ASC, id ASC
	`, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	return assessments, nil
}

// SessionDay normalizes a session timestamp to its UTC calendar day.
func SessionDay(t time.Time) time.Time {
	y, mo, d := t.UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

// StoreAttendance upserts the marks in one transaction. A student has at most
// one mark per course and day; marking again overwrites the status.
func (m *Manager) StoreAttendance(ctx context.Context, records []*types.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	return m.inTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, `
			INSERT INTO attendance (student_id, course_id, session_date, status, marked_by)
			VALUES (:student_id, :course_id, :session_date, :status, :marked_by)
			ON CONFLICT(student_id, course_id, session_date)
			DO UPDATE SET status = excluded.status, marked_by = excluded.marked_by
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare attendance upsert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range records {
			row := *r
			row.SessionDate = SessionDay(r.SessionDate)
			if _, err := stmt.ExecContext(ctx, row); err != nil {
				return fmt.Errorf("failed to store attendance for %s: %w", r.StudentID, err)
			}
		}
		return nil
	})
}

// Attendance returns a student's marks in a course by session date.
func (m *Manager) Attendance(ctx context.Context, studentID, courseID string) ([]*types.AttendanceRecord, error) {
	var records []*types.AttendanceRecord
	err := m.db.SelectContext(ctx, &records, `
		SELECT student_id, course_id, session_date, status, marked_by
		FROM attendance WHERE student_id = ? AND course_id = ?
		ORDER BY session_date ASC
	`, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	return records, nil
}

// StoreAnnouncement persists an announcement with its audience rules.
func (m *Manager) StoreAnnouncement(ctx context.Context, a *types.Announcement) error {
	audience, err := json.Marshal(a.Audience)
	if err != nil {
		return fmt.Errorf("failed to marshal audience: %w", err)
	}
	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO announcements (id, author, type, title, body, priority, audience, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, a.ID, a.Author, a.Type, a.Title, a.Body, a.Priority, string(audience), a.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert announcement: %w", err)
		}
		return nil
	})
}

var (
	_ interfaces.MessageStore      = (*Manager)(nil)
	_ interfaces.AssessmentStore   = (*Manager)(nil)
	_ interfaces.AttendanceStore   = (*Manager)(nil)
	_ interfaces.AnnouncementStore = (*Manager)(nil)
)
