// Package messaging handles direct messages: persist, push live to both
// parties, and record a notification for the recipient.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"campuswire/internal/fanout"
	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/google/uuid"
)

const previewLength = 140

// Notifier records and pushes a single-recipient notification.
type Notifier interface {
	NotifyDirect(ctx context.Context, from, to string, notice types.Notice) (fanout.Report, error)
}

// Deliverer pushes an event to a room.
type Deliverer interface {
	Deliver(room, event string, payload any) int
}

// Service sends direct messages.
type Service struct {
	store     interfaces.MessageStore
	directory interfaces.Directory
	notifier  Notifier
	deliverer Deliverer
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a messaging service.
func NewService(store interfaces.MessageStore, directory interfaces.Directory, notifier Notifier, deliverer Deliverer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		directory: directory,
		notifier:  notifier,
		deliverer: deliverer,
		logger:    logger.With(slog.String("component", "messaging")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Send persists a message from sender to to, pushes it to both parties'
// user rooms and records a notification for the recipient. The message is
// returned even when only the notification failed; that error wraps
// fanout.ErrPartialPersistence.
func (s *Service) Send(ctx context.Context, sender types.Identity, to, body string) (*types.Message, fanout.Report, error) {
	// ARCHITECTURAL DISCOVERY: Server controls message IDs and timestamps to
	// prevent client manipulation
	msg := &types.Message{
		ID:        uuid.New().String(),
		From:      sender.ID,
		To:        to,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := msg.Validate(); err != nil {
		return nil, fanout.Report{}, err
	}
	if to == sender.ID {
		return nil, fanout.Report{}, ErrSelfMessage
	}
	if _, err := s.directory.FindIdentity(ctx, to); err != nil {
		if errors.Is(err, interfaces.ErrIdentityNotFound) {
			return nil, fanout.Report{}, ErrRecipientNotFound
		}
		return nil, fanout.Report{}, fmt.Errorf("lookup recipient: %w", err)
	}

	// FUNCTIONAL DISCOVERY: Persist-then-route pattern ensures message
	// durability before delivery
	if err := s.store.StoreMessage(ctx, msg); err != nil {
		return nil, fanout.Report{}, fmt.Errorf("failed to persist message: %w", err)
	}

	s.deliverer.Deliver(types.UserRoom(to), types.EventMessage, msg)
	s.deliverer.Deliver(types.UserRoom(sender.ID), types.EventMessage, msg)

	data, _ := json.Marshal(map[string]string{"message_id": msg.ID, "from": sender.ID})
	report, err := s.notifier.NotifyDirect(ctx, sender.ID, to, types.Notice{
		Type:     types.NotificationMessage,
		Title:    "New message from " + displayName(sender),
		Body:     preview(body),
		Priority: types.PriorityNormal,
		Data:     data,
	})
	if err != nil {
		s.logger.Warn("message notification not recorded", slog.String("message", msg.ID), slog.Any("error", err))
	}
	return msg, report, err
}

// Conversations returns the conversation list of identityID.
func (s *Service) Conversations(ctx context.Context, identityID string) ([]Conversation, error) {
	messages, err := s.store.MessagesFor(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	return Conversations(identityID, messages), nil
}

func displayName(identity types.Identity) string {
	if identity.Name != "" {
		return identity.Name
	}
	return identity.ID
}

func preview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewLength {
		return body
	}
	return string(runes[:previewLength]) + "…"
}
