package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type presenceStatus struct {
	Identity    string `json:"identity"`
	Online      bool   `json:"online"`
	Connections int    `json:"connections"`
}

func (s *Server) presenceOf(c echo.Context) error {
	id := c.Param("id")
	return c.JSON(http.StatusOK, presenceStatus{
		Identity:    id,
		Online:      s.opts.Presence.IsOnline(id),
		Connections: s.opts.Presence.ConnectionCount(id),
	})
}

func (s *Server) onlineIdentities(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"identities": s.opts.Presence.OnlineIdentities()})
}
