package types

import (
	"encoding/json"
	"strings"
	"time"
)

// Role of an identity in the directory.
type Role string

const (
	RoleStudent   Role = "student"
	RoleProfessor Role = "professor"
	RoleAdmin     Role = "admin"
)

// IsStaff reports whether the role may address audiences and post grades.
func (r Role) IsStaff() bool {
	return r == RoleProfessor || r == RoleAdmin
}

// Identity is a directory record with the denormalized attributes used for
// audience targeting. The core treats it as read-only.
type Identity struct {
	ID         string   `json:"id" db:"id"`
	Role       Role     `json:"role" db:"role"`
	Name       string   `json:"name" db:"name"`
	Faculty    string   `json:"faculty" db:"faculty"`
	Department string   `json:"department" db:"department"`
	Level      string   `json:"level" db:"level"`
	Active     bool     `json:"active" db:"active"`
	Courses    []string `json:"courses" db:"-"`
	Clubs      []string `json:"clubs" db:"-"`
}

// EnrolledIn reports whether the identity is enrolled in the course.
func (i Identity) EnrolledIn(courseID string) bool {
	for _, c := range i.Courses {
		if c == courseID {
			return true
		}
	}
	return false
}

// MemberOf reports whether the identity belongs to the club.
func (i Identity) MemberOf(clubID string) bool {
	for _, c := range i.Clubs {
		if c == clubID {
			return true
		}
	}
	return false
}

// Claims is what a verified bearer token asserts about its holder.
type Claims struct {
	UserID string
	Role   Role
}

// Room name prefixes. Every connection is pinned to its own user room.
const (
	RoomPrefixUser   = "user:"
	RoomPrefixCourse = "course:"
	RoomPrefixClub   = "club:"
	RoomPrefixRole   = "role:"
)

func UserRoom(id string) string { return RoomPrefixUser + id }
func RoleRoom(role Role) string { return RoomPrefixRole + string(role) }

// SplitRoom returns the prefix and the scoped id of a room name.
func SplitRoom(room string) (prefix, id string, ok bool) {
	for _, p := range []string{RoomPrefixUser, RoomPrefixCourse, RoomPrefixClub, RoomPrefixRole} {
		if strings.HasPrefix(room, p) && len(room) > len(p) {
			return p, room[len(p):], true
		}
	}
	return "", "", false
}

// RuleKind tags an AudienceRule variant.
type RuleKind string

const (
	RuleAll        RuleKind = "all"
	RuleFaculty    RuleKind = "faculty"
	RuleDepartment RuleKind = "department"
	RuleLevel      RuleKind = "level"
	RuleCourse     RuleKind = "course"
)

// AudienceRule is a declarative targeting expression resolved at send time.
type AudienceRule struct {
	Kind  RuleKind `json:"kind" validate:"required,oneof=all faculty department level course"`
	Value string   `json:"value,omitempty" validate:"required_unless=Kind all,max=100"`
}

func AllStudents() AudienceRule               { return AudienceRule{Kind: RuleAll} }
func FacultyRule(name string) AudienceRule    { return AudienceRule{Kind: RuleFaculty, Value: name} }
func DepartmentRule(name string) AudienceRule { return AudienceRule{Kind: RuleDepartment, Value: name} }
func LevelRule(level string) AudienceRule     { return AudienceRule{Kind: RuleLevel, Value: level} }
func CourseRule(courseID string) AudienceRule { return AudienceRule{Kind: RuleCourse, Value: courseID} }

// Attribute is a directory attribute that attribute rules filter on.
type Attribute string

const (
	AttrFaculty    Attribute = "faculty"
	AttrDepartment Attribute = "department"
	AttrLevel      Attribute = "level"
)

// Priority of a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Notification type tags.
const (
	NotificationMessage       = "message"
	NotificationGrade         = "grade"
	NotificationAnnouncement  = "announcement"
	NotificationExamPublished = "exam_published"
	NotificationAttendance    = "attendance"
)

// Notice is the recipient-independent content of a notification. Recipient is
// only set on personalised batches.
type Notice struct {
	Recipient string          `json:"recipient,omitempty"`
	Type      string          `json:"type" validate:"required,max=50"`
	Title     string          `json:"title" validate:"required,max=200"`
	Body      string          `json:"body" validate:"max=65536"`
	Priority  Priority        `json:"priority" validate:"omitempty,oneof=low normal high"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NotificationRecord is the durable per-recipient notification.
type NotificationRecord struct {
	ID        string          `json:"id" db:"id"`
	Recipient string          `json:"recipient" db:"recipient"`
	Sender    *string         `json:"sender,omitempty" db:"sender"`
	Type      string          `json:"type" db:"type"`
	Title     string          `json:"title" db:"title"`
	Body      string          `json:"body" db:"body"`
	Priority  Priority        `json:"priority" db:"priority"`
	Data      json.RawMessage `json:"data,omitempty" db:"data"`
	Read      bool            `json:"read" db:"is_read"`
	ReadAt    *time.Time      `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// AssessmentType tags a graded assessment.
type AssessmentType string

const (
	AssessmentCoursework AssessmentType = "coursework"
	AssessmentLab        AssessmentType = "lab"
	AssessmentTest       AssessmentType = "test"
	AssessmentFinalExam  AssessmentType = "final_exam"
	AssessmentProject    AssessmentType = "project"
)

// Assessment is one weighted graded item of a student in a course.
type Assessment struct {
	ID        string         `json:"id" db:"id"`
	StudentID string         `json:"student_id" db:"student_id" validate:"required,userid"`
	CourseID  string         `json:"course_id" db:"course_id" validate:"required,userid"`
	Type      AssessmentType `json:"type" db:"type" validate:"required,oneof=coursework lab test final_exam project"`
	Score     float64        `json:"score" db:"score" validate:"gte=0,ltefield=MaxScore"`
	MaxScore  float64        `json:"max_score" db:"max_score" validate:"gt=0"`
	Weight    float64        `json:"weight" db:"weight" validate:"gte=0"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// GradeStatus is the outcome attached to a composite.
type GradeStatus string

const (
	GradePass    GradeStatus = "pass"
	GradeFail    GradeStatus = "fail"
	GradePending GradeStatus = "pending"
)

// CompositeGrade is the weighted mean of a full assessment set on a 0-20 scale.
type CompositeGrade struct {
	Score       float64     `json:"score"`
	Status      GradeStatus `json:"status"`
	TotalWeight float64     `json:"total_weight"`
	Count       int         `json:"count"`
}

// AttendanceStatus of a student for one course session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// AttendanceRecord marks one student for one course session.
type AttendanceRecord struct {
	StudentID   string           `json:"student_id" db:"student_id" validate:"required,userid"`
	CourseID    string           `json:"course_id" db:"course_id" validate:"required,userid"`
	SessionDate time.Time        `json:"session_date" db:"session_date" validate:"required"`
	Status      AttendanceStatus `json:"status" db:"status" validate:"required,oneof=present absent late excused"`
	MarkedBy    string           `json:"marked_by" db:"marked_by"`
}

// AttendanceSummary aggregates a student's attendance in a course.
type AttendanceSummary struct {
	Present  int     `json:"present"`
	Absent   int     `json:"absent"`
	Late     int     `json:"late"`
	Excused  int     `json:"excused"`
	Sessions int     `json:"sessions"`
	Rate     float64 `json:"rate"`
	AtRisk   bool    `json:"at_risk"`
}

// Message is a persisted direct message between two identities.
type Message struct {
	ID        string    `json:"id" db:"id"`
	From      string    `json:"from" db:"from_user"`
	To        string    `json:"to" db:"to_user" validate:"required,userid"`
	Body      string    `json:"body" db:"body" validate:"required,max=65536"`
	Read      bool      `json:"read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Announcement is a broadcast domain record created before its fan-out.
type Announcement struct {
	ID        string         `json:"id" db:"id"`
	Author    string         `json:"author" db:"author"`
	Type      string         `json:"type" db:"type"`
	Title     string         `json:"title" db:"title"`
	Body      string         `json:"body" db:"body"`
	Priority  Priority       `json:"priority" db:"priority"`
	Audience  []AudienceRule `json:"audience" db:"-"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// Frame is the envelope for every event pushed to or received from a client.
type Frame struct {
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Server-pushed event names.
const (
	EventNotification = "notification.new"
	EventMessage      = "message.new"
	EventMessageSent  = "message.sent"
	EventTyping       = "typing"
	EventPresence     = "presence.changed"
	EventRoomJoined   = "room.joined"
	EventRoomLeft     = "room.left"
	EventError        = "error"
)

// Client-originated event names.
const (
	ClientMessageSend = "message.send"
	ClientTypingStart = "typing.start"
	ClientTypingStop  = "typing.stop"
	ClientRoomJoin    = "room.join"
	ClientRoomLeave   = "room.leave"
)
