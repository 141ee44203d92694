package interfaces

import (
	"context"

	"campuswire/pkg/types"
)

//go:generate go run go.uber.org/mock/mockgen -source=stores.go -destination=../../internal/mocks/stores.go -package=mocks

// MessageStore persists direct messages.
type MessageStore interface {
	StoreMessage(ctx context.Context, msg *types.Message) error
	// MessagesFor returns every message sent or received by the identity,
	// oldest first.
	MessagesFor(ctx context.Context, identityID string) ([]*types.Message, error)
}

// AssessmentStore persists graded assessments.
type AssessmentStore interface {
	StoreAssessment(ctx context.Context, a *types.Assessment) error
	DeleteAssessment(ctx context.Context, id string) (*types.Assessment, error)
	// Assessments returns the full current set for a student in a course.
	Assessments(ctx context.Context, studentID, courseID string) ([]*types.Assessment, error)
}

// AttendanceStore persists attendance marks.
type AttendanceStore interface {
	// StoreAttendance upserts one mark per student, course and session date.
	StoreAttendance(ctx context.Context, records []*types.AttendanceRecord) error
	Attendance(ctx context.Context, studentID, courseID string) ([]*types.AttendanceRecord, error)
}

// AnnouncementStore persists announcements and exam publications.
type AnnouncementStore interface {
	StoreAnnouncement(ctx context.Context, a *types.Announcement) error
}
