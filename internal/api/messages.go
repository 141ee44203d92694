package api

import (
	"net/http"

	"campuswire/internal/messaging"
	"campuswire/pkg/types"

	"github.com/labstack/echo/v4"
)

type messageRequest struct {
	To   string `json:"to" validate:"required,max=50"`
	Body string `json:"body" validate:"required,max=65536"`
}

type messageResponse struct {
	Message       *types.Message      `json:"message"`
	Notifications notificationSummary `json:"notifications"`
}

// sendMessage answers 201 once the message is stored. A notification that
// could not be recorded only marks the summary degraded.
func (s *Server) sendMessage(c echo.Context) error {
	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	msg, report, err := s.opts.Messenger.Send(c.Request().Context(), caller(c), req.To, req.Body)
	if msg == nil {
		return err
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: msg, Notifications: s.afterCommit(msg.ID, report, err)})
}

func (s *Server) listConversations(c echo.Context) error {
	conversations, err := s.opts.Messenger.Conversations(c.Request().Context(), caller(c).ID)
	if err != nil {
		return err
	}
	if conversations == nil {
		conversations = []messaging.Conversation{}
	}
	return c.JSON(http.StatusOK, echo.Map{"conversations": conversations})
}

// readConversation marks every message from the counterpart to the caller
// read.
func (s *Server) readConversation(c echo.Context) error {
	marked, err := s.opts.Conversations.MarkConversationRead(c.Request().Context(), caller(c).ID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"marked": marked})
}
