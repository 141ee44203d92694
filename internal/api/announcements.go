package api

import (
	"encoding/json"
	"net/http"

	"campuswire/pkg/types"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type announcementRequest struct {
	Type     string               `json:"type" validate:"required,oneof=announcement exam_published"`
	Title    string               `json:"title" validate:"required,max=200"`
	Body     string               `json:"body" validate:"max=65536"`
	Priority types.Priority       `json:"priority" validate:"omitempty,oneof=low normal high"`
	Audience []types.AudienceRule `json:"audience" validate:"required,min=1,dive"`
	Data     json.RawMessage      `json:"data"`
}

type announcementResponse struct {
	Announcement  *types.Announcement `json:"announcement"`
	Notifications notificationSummary `json:"notifications"`
}

// createAnnouncement persists an announcement or exam publication and fans
// it out to the union of its audience rules. Once stored it always answers
// 201; a fan-out that failed in part or whole sets degraded.
func (s *Server) createAnnouncement(c echo.Context) error {
	var req announcementRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	for _, rule := range req.Audience {
		if err := rule.Validate(); err != nil {
			return err
		}
	}
	if req.Priority == "" {
		req.Priority = types.PriorityNormal
		if req.Type == types.NotificationExamPublished {
			req.Priority = types.PriorityHigh
		}
	}

	me := caller(c)
	announcement := &types.Announcement{
		ID:        uuid.New().String(),
		Author:    me.ID,
		Type:      req.Type,
		Title:     req.Title,
		Body:      req.Body,
		Priority:  req.Priority,
		Audience:  req.Audience,
		CreatedAt: s.now(),
	}
	ctx := c.Request().Context()
	if err := s.opts.Announcements.StoreAnnouncement(ctx, announcement); err != nil {
		return err
	}

	data := req.Data
	if len(data) == 0 {
		data, _ = json.Marshal(map[string]string{"announcement_id": announcement.ID})
	}
	report, err := s.opts.Notifier.NotifyAudience(ctx, me.ID, types.Notice{
		Type:     req.Type,
		Title:    req.Title,
		Body:     req.Body,
		Priority: req.Priority,
		Data:     data,
	}, req.Audience...)
	return c.JSON(http.StatusCreated, announcementResponse{
		Announcement:  announcement,
		Notifications: s.afterCommit(announcement.ID, report, err),
	})
}
