package api

import (
	"net/http"
	"strconv"

	"campuswire/pkg/types"

	"github.com/labstack/echo/v4"
)

const (
	defaultInboxLimit = 50
	maxInboxLimit     = 500
)

type notificationList struct {
	Notifications []*types.NotificationRecord `json:"notifications"`
}

// listNotifications returns the caller's inbox, newest first.
// Query: unread=true, limit=N (default 50, capped at 500).
func (s *Server) listNotifications(c echo.Context) error {
	limit := defaultInboxLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxInboxLimit)
	}
	unreadOnly, _ := strconv.ParseBool(c.QueryParam("unread"))

	records, err := s.opts.Notifications.ListForRecipient(c.Request().Context(), caller(c).ID, unreadOnly, limit)
	if err != nil {
		return err
	}
	if records == nil {
		records = []*types.NotificationRecord{}
	}
	return c.JSON(http.StatusOK, notificationList{Notifications: records})
}

func (s *Server) markNotificationRead(c echo.Context) error {
	if err := s.opts.Notifications.MarkRead(c.Request().Context(), c.Param("id"), caller(c).ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
