package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"campuswire/internal/presence"
	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

// Presence is the registry surface the gateway drives.
type Presence interface {
	Register(identity types.Identity, conn interfaces.Connection) bool
	Deregister(handle string) (identityID string, wentOffline bool)
	Broadcast(event string, payload any, except string) int
	ConnectionCount(identityID string) int
}

// Dispatcher accepts inbound client frames for asynchronous processing.
type Dispatcher interface {
	Dispatch(handle string, identity types.Identity, data []byte) error
}

// Config tunes the gateway transport.
type Config struct {
	SendBuffer      int
	WriteTimeout    time.Duration
	PongTimeout     time.Duration
	PingInterval    time.Duration
	AuthTimeout     time.Duration
	MaxMessageBytes int64
	AllowedOrigins  []string
}

// DefaultConfig returns the gateway defaults.
// TECHNICAL DISCOVERY: 60-second read deadline with 30-second ping interval
// gives reliable liveness detection on campus Wi-Fi
func DefaultConfig() Config {
	return Config{
		SendBuffer:      256,
		WriteTimeout:    5 * time.Second,
		PongTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		AuthTimeout:     5 * time.Second,
		MaxMessageBytes: 70 * 1024,
	}
}

// PresenceChange is the payload of presence.changed events.
type PresenceChange struct {
	Identity    string `json:"identity"`
	Online      bool   `json:"online"`
	Connections int    `json:"connections"`
}

// Handler is the connection gateway: it authenticates a handshake, registers
// the connection and pumps inbound frames to the dispatcher.
// ARCHITECTURAL DISCOVERY: Multi-stage validation (token -> identity -> upgrade
// -> registration) rejects bad handshakes with plain HTTP errors before any
// socket or registry state exists
type Handler struct {
	verifier   interfaces.TokenVerifier
	directory  interfaces.Directory
	presence   Presence
	dispatcher Dispatcher
	cfg        Config
	upgrader   websocket.Upgrader
	logger     *slog.Logger

	// active holds live connections by handle for CloseAll.
	active sync.Map
}

// NewHandler creates a gateway handler.
func NewHandler(verifier interfaces.TokenVerifier, directory interfaces.Directory, presence Presence, dispatcher Dispatcher, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		verifier:   verifier,
		directory:  directory,
		presence:   presence,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "gateway")),
	}
	h.upgrader = websocket.Upgrader{
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	return lo.Contains(h.cfg.AllowedOrigins, r.Header.Get("Origin"))
}

// ServeHTTP handles one WebSocket handshake.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, status, err := h.authenticate(r)
	if err != nil {
		h.logger.Info("handshake rejected",
			slog.String("remote", r.RemoteAddr),
			slog.Int("status", status),
			slog.Any("error", err))
		http.Error(w, http.StatusText(status), status)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	conn := NewConnection(ws, h.cfg.SendBuffer, h.cfg.WriteTimeout, h.cfg.PingInterval)
	if err := conn.Authenticate(identity); err != nil {
		_ = conn.Close()
		return
	}

	h.active.Store(conn.ID(), conn)
	h.presence.Register(identity, conn)
	if err := conn.Activate(); err != nil {
		// Closed between upgrade and registration.
		h.release(conn)
		return
	}

	h.presence.Broadcast(types.EventPresence, PresenceChange{
		Identity:    identity.ID,
		Online:      true,
		Connections: h.presence.ConnectionCount(identity.ID),
	}, conn.ID())

	h.logger.Info("connection active",
		slog.String("connection", conn.ID()),
		slog.String("identity", identity.ID),
		slog.String("role", string(identity.Role)))

	go h.readPump(conn)
}

// authenticate resolves the handshake credential to a directory identity,
// bounded by AuthTimeout. It returns the HTTP status to reply with on error.
func (h *Handler) authenticate(r *http.Request) (types.Identity, int, error) {
	token := bearerToken(r)
	if token == "" {
		return types.Identity{}, http.StatusUnauthorized, ErrMissingToken
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.AuthTimeout)
	defer cancel()

	claims, err := h.verifier.Verify(ctx, token)
	if err != nil {
		return types.Identity{}, http.StatusUnauthorized, err
	}

	identity, err := h.directory.FindIdentity(ctx, claims.UserID)
	switch {
	case errors.Is(err, interfaces.ErrIdentityNotFound):
		return types.Identity{}, http.StatusForbidden, err
	case errors.Is(err, context.DeadlineExceeded):
		return types.Identity{}, http.StatusUnauthorized, err
	case err != nil:
		return types.Identity{}, http.StatusServiceUnavailable, err
	}

	if !identity.Active {
		return types.Identity{}, http.StatusForbidden, ErrIdentityInactive
	}
	if claims.Role != "" && claims.Role != identity.Role {
		return types.Identity{}, http.StatusForbidden, ErrRoleMismatch
	}
	return identity, http.StatusOK, nil
}

// bearerToken reads the Authorization header first, then the access_token
// query parameter browsers have to use for WebSocket handshakes.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

// readPump owns the read side until the transport closes, then releases the
// connection.
func (h *Handler) readPump(conn *Connection) {
	defer h.release(conn)

	identity := conn.Identity()
	conn.conn.SetReadLimit(h.cfg.MaxMessageBytes)
	if err := conn.conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout)); err != nil {
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	})

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", slog.String("connection", conn.ID()), slog.Any("error", err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if err := h.dispatcher.Dispatch(conn.ID(), identity, data); err != nil {
			h.replyError(conn, err)
		}
	}
}

// release closes the transport and drops the connection from the registry,
// broadcasting offline presence when it was the identity's last connection.
func (h *Handler) release(conn *Connection) {
	_ = conn.Close()
	h.active.Delete(conn.ID())
	identityID, wentOffline := h.presence.Deregister(conn.ID())
	if identityID == "" {
		return
	}
	h.logger.Info("connection closed",
		slog.String("connection", conn.ID()),
		slog.String("identity", identityID),
		slog.Bool("offline", wentOffline))
	if wentOffline {
		h.presence.Broadcast(types.EventPresence, PresenceChange{Identity: identityID}, conn.ID())
	}
}

// CloseAll closes every live connection. Their read pumps then release them
// from the registry. It returns how many were closed.
func (h *Handler) CloseAll() int {
	closed := 0
	h.active.Range(func(_, value any) bool {
		_ = value.(*Connection).Close()
		closed++
		return true
	})
	return closed
}

func (h *Handler) replyError(conn *Connection, err error) {
	frame, encErr := presence.EncodeFrame(types.EventError, map[string]string{"error": err.Error()}, time.Now().UTC())
	if encErr != nil {
		return
	}
	conn.Send(frame)
}
