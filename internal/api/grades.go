package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"campuswire/internal/grading"
	"campuswire/pkg/types"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type assessmentRequest struct {
	StudentID string               `json:"student_id"`
	CourseID  string               `json:"course_id"`
	Type      types.AssessmentType `json:"type"`
	Score     float64              `json:"score"`
	MaxScore  float64              `json:"max_score"`
	Weight    float64              `json:"weight"`
}

// compositeView is a composite with its status. Score is null while the
// composite is undefined.
type compositeView struct {
	Score       *float64          `json:"score"`
	Status      types.GradeStatus `json:"status"`
	TotalWeight float64           `json:"total_weight"`
	Count       int               `json:"count"`
}

func viewOf(assessments []*types.Assessment) compositeView {
	grade, ok := grading.ComputeComposite(assessments)
	view := compositeView{Status: grading.StatusOf(grade, ok), Count: len(assessments)}
	if ok {
		view.Score = &grade.Score
		view.TotalWeight = grade.TotalWeight
	}
	return view
}

type gradeResponse struct {
	Assessment    *types.Assessment    `json:"assessment,omitempty"`
	Composite     compositeView        `json:"composite"`
	Notifications *notificationSummary `json:"notifications,omitempty"`
}

func (s *Server) recordAssessment(c echo.Context) error {
	var req assessmentRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	a := &types.Assessment{
		ID:        uuid.New().String(),
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Type:      req.Type,
		Score:     req.Score,
		MaxScore:  req.MaxScore,
		Weight:    req.Weight,
		CreatedAt: s.now(),
	}
	if err := a.Validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := s.opts.Assessments.StoreAssessment(ctx, a); err != nil {
		return err
	}
	view, summary := s.recompute(ctx, caller(c).ID, a.StudentID, a.CourseID, a.ID)
	return c.JSON(http.StatusCreated, gradeResponse{Assessment: a, Composite: view, Notifications: summary})
}

func (s *Server) deleteAssessment(c echo.Context) error {
	ctx := c.Request().Context()
	deleted, err := s.opts.Assessments.DeleteAssessment(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	view, summary := s.recompute(ctx, caller(c).ID, deleted.StudentID, deleted.CourseID, deleted.ID)
	return c.JSON(http.StatusOK, gradeResponse{Composite: view, Notifications: summary})
}

// recompute reloads the full assessment set after a mutation and tells the
// student about the new composite. The mutation is already committed, so a
// failed reload answers a pending composite with a degraded summary.
// FUNCTIONAL DISCOVERY: The composite is always computed over the whole
// stored set; an incremental update would drift once a grade is deleted
func (s *Server) recompute(ctx context.Context, from, studentID, courseID, assessmentID string) (compositeView, *notificationSummary) {
	set, err := s.opts.Assessments.Assessments(ctx, studentID, courseID)
	if err != nil {
		s.logger.Warn("composite reload failed",
			slog.String("student", studentID),
			slog.String("course", courseID),
			slog.Any("error", err))
		return compositeView{Status: types.GradePending}, &notificationSummary{Degraded: true, Reason: reasonNotRecomputed}
	}
	view := viewOf(set)

	body := fmt.Sprintf("Your grade in %s is pending.", courseID)
	if view.Score != nil {
		body = fmt.Sprintf("Your grade in %s is now %.2f/20 (%s).", courseID, *view.Score, view.Status)
	}
	data, _ := json.Marshal(map[string]any{
		"course_id":     courseID,
		"assessment_id": assessmentID,
		"composite":     view,
	})
	report, err := s.opts.Notifier.NotifyDirect(ctx, from, studentID, types.Notice{
		Type:     types.NotificationGrade,
		Title:    "Grade updated",
		Body:     body,
		Priority: types.PriorityNormal,
		Data:     data,
	})
	summary := s.afterCommit(assessmentID, report, err)
	return view, &summary
}

func (s *Server) compositeGrade(c echo.Context) error {
	studentID := c.Param("student")
	if !canRead(c, studentID) {
		return errForbidden
	}
	set, err := s.opts.Assessments.Assessments(c.Request().Context(), studentID, c.Param("course"))
	if err != nil {
		return err
	}
	if set == nil {
		set = []*types.Assessment{}
	}
	return c.JSON(http.StatusOK, echo.Map{"composite": viewOf(set), "assessments": set})
}
