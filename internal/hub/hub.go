// Package hub dispatches inbound client events. Frames from one connection
// are handled in arrival order; unrelated connections proceed in parallel.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"campuswire/internal/fanout"
	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/cespare/xxhash/v2"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

var validate = validator.New()

// Presence is the registry surface inbound events act on.
type Presence interface {
	JoinRoom(handle, room string) error
	LeaveRoom(handle, room string) error
	Rooms(handle string) []string
	Deliver(room, event string, payload any) int
	SendTo(handle, event string, payload any) bool
}

// Directory confirms that a direct typing target exists.
type Directory interface {
	FindIdentity(ctx context.Context, id string) (types.Identity, error)
}

// Messenger persists and fans out a direct message.
type Messenger interface {
	Send(ctx context.Context, sender types.Identity, to, body string) (*types.Message, fanout.Report, error)
}

// Config sizes the dispatcher.
type Config struct {
	Workers    int
	QueueSize  int
	RateLimit  int
	RateWindow time.Duration
}

// DefaultConfig returns the dispatcher defaults.
func DefaultConfig() Config {
	return Config{Workers: 8, QueueSize: 256, RateLimit: 100, RateWindow: time.Minute}
}

// Inbound is one client frame waiting to be handled.
type Inbound struct {
	Handle   string
	Identity types.Identity
	Data     []byte
	Received time.Time
}

type sendMessagePayload struct {
	To   string `json:"to" validate:"required"`
	Body string `json:"body" validate:"required"`
}

// TypingPayload is pushed with typing events.
type TypingPayload struct {
	From   string `json:"from"`
	Room   string `json:"room,omitempty"`
	Typing bool   `json:"typing"`
}

// ErrorPayload is pushed back to a sender whose event failed.
type ErrorPayload struct {
	Event string `json:"event,omitempty"`
	Error string `json:"error"`
}

// Hub coordinates inbound client events.
// ARCHITECTURAL DISCOVERY: Queues are sharded by connection handle so each
// connection keeps FIFO order without a global loop serializing everyone
type Hub struct {
	queues    []chan *Inbound
	presence  Presence
	messenger Messenger
	directory Directory
	limiter   *RateLimiter
	logger    *slog.Logger

	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
}

// NewHub creates a dispatcher. Zero config fields take their defaults.
func NewHub(presence Presence, messenger Messenger, directory Directory, cfg Config, logger *slog.Logger) *Hub {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = def.RateWindow
	}
	if logger == nil {
		logger = slog.Default()
	}

	queues := make([]chan *Inbound, cfg.Workers)
	for i := range queues {
		queues[i] = make(chan *Inbound, cfg.QueueSize)
	}
	return &Hub{
		queues:    queues,
		presence:  presence,
		messenger: messenger,
		directory: directory,
		limiter:   NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
		logger:    logger.With(slog.String("component", "hub")),
	}
}

// Start launches the workers and the limiter janitor.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return ErrHubAlreadyRunning
	}
	h.running = true

	ctx, h.cancel = context.WithCancel(ctx)
	for _, queue := range h.queues {
		h.wg.Add(1)
		go h.worker(ctx, queue)
	}
	h.wg.Add(1)
	go h.janitor(ctx)

	h.logger.Info("hub started", slog.Int("workers", len(h.queues)))
	return nil
}

// Stop cancels the workers and waits for them. Queued frames are dropped.
func (h *Hub) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return ErrHubNotRunning
	}
	h.running = false
	h.cancel()
	h.mu.Unlock()

	h.wg.Wait()
	h.logger.Info("hub stopped")
	return nil
}

// Dispatch queues a raw client frame without blocking.
func (h *Hub) Dispatch(handle string, identity types.Identity, data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.running {
		return ErrHubNotRunning
	}
	if !gjson.ValidBytes(data) || !gjson.GetBytes(data, "event").Exists() {
		return ErrInvalidFrame
	}

	in := &Inbound{Handle: handle, Identity: identity, Data: data, Received: time.Now()}
	queue := h.queues[xxhash.Sum64String(handle)%uint64(len(h.queues))]
	// TECHNICAL DISCOVERY: Non-blocking send prevents a burst from stalling
	// the connection's read pump
	select {
	case queue <- in:
		return nil
	default:
		return ErrQueueFull
	}
}

// GetStats returns dispatcher statistics for monitoring and debugging.
func (h *Hub) GetStats() map[string]int {
	queued := 0
	for _, q := range h.queues {
		queued += len(q)
	}
	return map[string]int{
		"workers":             len(h.queues),
		"queued_events":       queued,
		"rate_limited_tracks": h.limiter.Tracked(),
	}
}

func (h *Hub) worker(ctx context.Context, queue <-chan *Inbound) {
	defer h.wg.Done()
	for {
		select {
		case in := <-queue:
			h.handle(ctx, in)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) janitor(ctx context.Context) {
	defer h.wg.Done()
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.limiter.Cleanup()
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handle(ctx context.Context, in *Inbound) {
	event := gjson.GetBytes(in.Data, "event").String()
	payload := gjson.GetBytes(in.Data, "payload")

	// FUNCTIONAL DISCOVERY: Rate limiting applied per identity before any
	// persistence to prevent spam
	if !h.limiter.Allow(in.Identity.ID) {
		h.reject(in, event, ErrRateLimitExceeded)
		return
	}

	var err error
	switch event {
	case types.ClientMessageSend:
		err = h.handleMessageSend(ctx, in, payload)
	case types.ClientTypingStart:
		err = h.handleTyping(ctx, in, payload, true)
	case types.ClientTypingStop:
		err = h.handleTyping(ctx, in, payload, false)
	case types.ClientRoomJoin:
		err = h.handleRoomJoin(in, payload)
	case types.ClientRoomLeave:
		err = h.handleRoomLeave(in, payload)
	default:
		err = ErrUnknownEvent
	}
	if err != nil {
		h.reject(in, event, err)
	}
}

func (h *Hub) handleMessageSend(ctx context.Context, in *Inbound, payload gjson.Result) error {
	var req sendMessagePayload
	if err := json.Unmarshal([]byte(payload.Raw), &req); err != nil {
		return ErrInvalidPayload
	}
	if err := validate.Struct(req); err != nil {
		return ErrInvalidPayload
	}

	// A stored message is acknowledged even when its notification was not
	// recorded.
	msg, report, err := h.messenger.Send(ctx, in.Identity, req.To, req.Body)
	if msg == nil {
		return err
	}
	h.presence.SendTo(in.Handle, types.EventMessageSent, map[string]any{
		"message_id": msg.ID,
		"to":         msg.To,
		"degraded":   report.Degraded() || err != nil,
	})
	return nil
}

// handleTyping relays a transient indicator. Nothing is persisted. A direct
// indicator needs a recipient known to the directory; a room indicator needs
// the sender in the room.
func (h *Hub) handleTyping(ctx context.Context, in *Inbound, payload gjson.Result, typing bool) error {
	if to := payload.Get("to").String(); to != "" {
		if to == in.Identity.ID {
			return ErrInvalidPayload
		}
		if _, err := h.directory.FindIdentity(ctx, to); err != nil {
			if errors.Is(err, interfaces.ErrIdentityNotFound) {
				return ErrUnknownRecipient
			}
			return fmt.Errorf("lookup recipient: %w", err)
		}
		h.presence.Deliver(types.UserRoom(to), types.EventTyping, TypingPayload{From: in.Identity.ID, Typing: typing})
		return nil
	}
	room := payload.Get("room").String()
	if room == "" {
		return ErrMissingTarget
	}
	if !lo.Contains(h.presence.Rooms(in.Handle), room) {
		return ErrNotInRoom
	}
	h.presence.Deliver(room, types.EventTyping, TypingPayload{From: in.Identity.ID, Room: room, Typing: typing})
	return nil
}

func (h *Hub) handleRoomJoin(in *Inbound, payload gjson.Result) error {
	room := payload.Get("room").String()
	if !CanJoin(in.Identity, room) {
		return ErrForbiddenRoom
	}
	if err := h.presence.JoinRoom(in.Handle, room); err != nil {
		return err
	}
	h.presence.SendTo(in.Handle, types.EventRoomJoined, map[string]string{"room": room})
	return nil
}

func (h *Hub) handleRoomLeave(in *Inbound, payload gjson.Result) error {
	room := payload.Get("room").String()
	if room == "" {
		return ErrInvalidPayload
	}
	if err := h.presence.LeaveRoom(in.Handle, room); err != nil {
		return err
	}
	h.presence.SendTo(in.Handle, types.EventRoomLeft, map[string]string{"room": room})
	return nil
}

// reject sends the failure back to the sender only.
func (h *Hub) reject(in *Inbound, event string, err error) {
	h.logger.Debug("inbound event rejected",
		slog.String("connection", in.Handle),
		slog.String("identity", in.Identity.ID),
		slog.String("event", event),
		slog.Any("error", err))
	h.presence.SendTo(in.Handle, types.EventError, ErrorPayload{Event: event, Error: err.Error()})
}

