package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"campuswire/internal/grading"
	"campuswire/pkg/types"

	"github.com/labstack/echo/v4"
)

type attendanceMark struct {
	StudentID string                 `json:"student_id" validate:"required"`
	Status    types.AttendanceStatus `json:"status" validate:"required"`
}

type attendanceRequest struct {
	SessionDate time.Time        `json:"session_date" validate:"required"`
	Marks       []attendanceMark `json:"marks" validate:"required,min=1,max=1000,dive"`
}

type attendanceView struct {
	StudentID string                  `json:"student_id"`
	Summary   types.AttendanceSummary `json:"summary"`
	Counted   bool                    `json:"counted"`
}

func (s *Server) threshold() float64 {
	if s.opts.AtRiskThreshold > 0 {
		return s.opts.AtRiskThreshold
	}
	return grading.DefaultAtRiskThreshold
}

// markAttendance upserts one session's marks for a course, then sends each
// marked student a personalised notice with the updated summary.
func (s *Server) markAttendance(c echo.Context) error {
	var req attendanceRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	me := caller(c)
	courseID := c.Param("course")
	records := make([]*types.AttendanceRecord, 0, len(req.Marks))
	for _, mark := range req.Marks {
		r := &types.AttendanceRecord{
			StudentID:   mark.StudentID,
			CourseID:    courseID,
			SessionDate: req.SessionDate,
			Status:      mark.Status,
			MarkedBy:    me.ID,
		}
		if err := r.Validate(); err != nil {
			return err
		}
		records = append(records, r)
	}

	ctx := c.Request().Context()
	if err := s.opts.Attendance.StoreAttendance(ctx, records); err != nil {
		return err
	}

	views := make([]attendanceView, 0, len(records))
	notices := make([]types.Notice, 0, len(records))
	reloadFailed := false
	for _, r := range records {
		history, err := s.opts.Attendance.Attendance(ctx, r.StudentID, courseID)
		if err != nil {
			// The marks are committed; the summary is left uncounted.
			reloadFailed = true
			s.logger.Warn("attendance reload failed",
				slog.String("student", r.StudentID),
				slog.String("course", courseID),
				slog.Any("error", err))
		}
		summary, counted := grading.SummarizeAttendance(history, s.threshold())
		views = append(views, attendanceView{StudentID: r.StudentID, Summary: summary, Counted: counted})

		priority := types.PriorityLow
		body := fmt.Sprintf("You were marked %s in %s.", r.Status, courseID)
		if summary.AtRisk {
			priority = types.PriorityHigh
			body += fmt.Sprintf(" Your attendance rate is %.0f%%.", summary.Rate*100)
		}
		data, _ := json.Marshal(map[string]any{
			"course_id":    courseID,
			"session_date": r.SessionDate.Format(time.DateOnly),
			"status":       r.Status,
			"summary":      summary,
		})
		notices = append(notices, types.Notice{
			Recipient: r.StudentID,
			Type:      types.NotificationAttendance,
			Title:     "Attendance recorded",
			Body:      body,
			Priority:  priority,
			Data:      data,
		})
	}

	report, err := s.opts.Notifier.NotifyEach(ctx, me.ID, notices)
	summary := s.afterCommit(courseID, report, err)
	if reloadFailed {
		summary.Degraded = true
		if summary.Reason == "" {
			summary.Reason = reasonNotRecomputed
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"attendance": views, "notifications": summary})
}

func (s *Server) attendanceSummary(c echo.Context) error {
	studentID := c.Param("student")
	if !canRead(c, studentID) {
		return errForbidden
	}
	history, err := s.opts.Attendance.Attendance(c.Request().Context(), studentID, c.Param("course"))
	if err != nil {
		return err
	}
	summary, counted := grading.SummarizeAttendance(history, s.threshold())
	return c.JSON(http.StatusOK, attendanceView{StudentID: studentID, Summary: summary, Counted: counted})
}
