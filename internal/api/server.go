// Package api exposes the presence queries, the notification inbox and the
// domain write paths that trigger fan-out over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"campuswire/internal/fanout"
	"campuswire/internal/messaging"
	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Notifier is the fan-out surface the write paths use.
type Notifier interface {
	NotifyDirect(ctx context.Context, from, to string, notice types.Notice) (fanout.Report, error)
	NotifyAudience(ctx context.Context, from string, notice types.Notice, rules ...types.AudienceRule) (fanout.Report, error)
	NotifyEach(ctx context.Context, from string, notices []types.Notice) (fanout.Report, error)
}

// Presence answers who is online.
type Presence interface {
	IsOnline(identityID string) bool
	ConnectionCount(identityID string) int
	OnlineIdentities() []string
	GetStats() map[string]int
}

// Messenger sends direct messages and folds conversations.
type Messenger interface {
	Send(ctx context.Context, sender types.Identity, to, body string) (*types.Message, fanout.Report, error)
	Conversations(ctx context.Context, identityID string) ([]messaging.Conversation, error)
}

// ConversationReader marks a conversation's incoming messages read.
type ConversationReader interface {
	MarkConversationRead(ctx context.Context, identityID, counterpart string) (int, error)
}

// HealthChecker reports backing store health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Options carries the server dependencies.
type Options struct {
	Verifier      interfaces.TokenVerifier
	Directory     interfaces.Directory
	Notifier      Notifier
	Presence      Presence
	Messenger     Messenger
	Conversations ConversationReader
	Notifications interfaces.NotificationStore
	Assessments   interfaces.AssessmentStore
	Attendance    interfaces.AttendanceStore
	Announcements interfaces.AnnouncementStore
	Health        HealthChecker
	// Gateway serves WebSocket handshakes on /ws when set.
	Gateway http.Handler

	AuthTimeout        time.Duration
	AtRiskThreshold    float64
	DisableRequestLogs bool
	AllowedOrigins     []string
	Logger             *slog.Logger
}

// Server is the HTTP API.
// ARCHITECTURAL DISCOVERY: HTTP layer only binds, authorizes and maps
// errors; every rule lives in the packages it calls
type Server struct {
	opts   Options
	app    *echo.Echo
	logger *slog.Logger
	now    func() time.Time
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// NewServer builds the echo application with all routes registered.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = 5 * time.Second
	}
	s := &Server{
		opts:   opts,
		app:    echo.New(),
		logger: opts.Logger.With(slog.String("component", "api")),
		now:    func() time.Time { return time.Now().UTC() },
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Validator = &requestValidator{validate: validator.New()}
	s.app.HTTPErrorHandler = s.errorHandler

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableRequestLogs {
		s.app.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogStatus:  true,
			LogURI:     true,
			LogMethod:  true,
			LogLatency: true,
			LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
				s.logger.Debug("request",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Duration("latency", v.Latency))
				return nil
			},
		}))
	}
	s.app.Use(middleware.Recover())
	if len(s.opts.AllowedOrigins) > 0 {
		s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: s.opts.AllowedOrigins}))
	}

	s.app.GET("/health", s.healthCheck)
	if s.opts.Gateway != nil {
		s.app.GET("/ws", echo.WrapHandler(s.opts.Gateway))
	}

	v1 := s.app.Group("/api/v1", s.authMiddleware)
	staff := staffOnly

	v1.GET("/presence", s.onlineIdentities, staff)
	v1.GET("/presence/:id", s.presenceOf)

	v1.GET("/notifications", s.listNotifications)
	v1.POST("/notifications/:id/read", s.markNotificationRead)

	v1.POST("/announcements", s.createAnnouncement, staff)

	v1.POST("/grades", s.recordAssessment, staff)
	v1.DELETE("/grades/:id", s.deleteAssessment, staff)
	v1.GET("/courses/:course/grades/:student", s.compositeGrade)

	v1.POST("/courses/:course/attendance", s.markAttendance, staff)
	v1.GET("/courses/:course/attendance/:student", s.attendanceSummary)

	v1.POST("/messages", s.sendMessage)
	v1.GET("/conversations", s.listConversations)
	v1.POST("/conversations/:id/read", s.readConversation)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Database  string         `json:"database"`
	Presence  map[string]int `json:"presence"`
}

func (s *Server) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Timestamp: s.now(), Database: "healthy"}
	if s.opts.Health != nil {
		if err := s.opts.Health.HealthCheck(ctx); err != nil {
			resp.Status = "unhealthy"
			resp.Database = "error: " + err.Error()
		}
	}
	if s.opts.Presence != nil {
		resp.Presence = s.opts.Presence.GetStats()
	}

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}

// notificationSummary is attached to every write that fans out.
type notificationSummary struct {
	fanout.Report
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
}

func summarize(report fanout.Report) notificationSummary {
	return notificationSummary{Report: report, Degraded: report.Degraded()}
}

// Reasons reported on a degraded summary.
const (
	reasonUnresolved    = "audience could not be resolved"
	reasonNotRecorded   = "notifications could not be recorded"
	reasonNotRecomputed = "aggregate could not be recomputed"
)

// afterCommit summarizes a fan-out that follows a committed domain record.
// The record stands whatever happened, so an error only degrades the summary.
// FUNCTIONAL DISCOVERY: Answering an error here would invite a retry that
// duplicates the record
func (s *Server) afterCommit(record string, report fanout.Report, err error) notificationSummary {
	summary := summarize(report)
	if err == nil {
		return summary
	}
	summary.Degraded = true
	switch {
	case errors.Is(err, fanout.ErrPartialPersistence):
	case errors.Is(err, fanout.ErrResolution):
		summary.Reason = reasonUnresolved
	default:
		summary.Reason = reasonNotRecorded
	}
	s.logger.Warn("record stored with degraded notifications",
		slog.String("record", record),
		slog.Any("error", err))
	return summary
}
