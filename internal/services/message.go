package services

import (
	"context"
	"strings"

	"github.com/messagely/apiserver/internal/apperr"
	"github.com/messagely/apiserver/internal/events"
	"github.com/messagely/apiserver/internal/logger"
	"github.com/messagely/apiserver/types"
)

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, msg types.Message) (types.Message, error)
	Get(ctx context.Context, id int64) (types.MessageDetail, error)
	MarkRead(ctx context.Context, id int64) (types.ReadReceipt, error)
}

// Notifier receives message lifecycle events.
type Notifier interface {
	Notify(ctx context.Context, event events.MessageEvent) error
}

// NewMessage carries the fields of a message to send.
type NewMessage struct {
	FromUsername string
	ToUsername   string
	Body         string
}

// MessageService encapsulates message exchange use-cases.
type MessageService struct {
	repo     MessageRepository
	notifier Notifier
	logger   *logger.Logger
}

// NewMessageService constructs a MessageService. notifier may be nil.
func NewMessageService(repo MessageRepository, notifier Notifier, log *logger.Logger) *MessageService {
	if log == nil {
		log = logger.Noop()
	}
	return &MessageService{
		repo:     repo,
		notifier: notifier,
		logger:   log,
	}
}

func (s *MessageService) Create(ctx context.Context, in NewMessage) (types.Message, error) {
	in.FromUsername = strings.TrimSpace(in.FromUsername)
	in.ToUsername = strings.TrimSpace(in.ToUsername)
	if in.FromUsername == "" || in.ToUsername == "" {
		return types.Message{}, apperr.Validation("from_username and to_username are required")
	}
	if strings.TrimSpace(in.Body) == "" {
		return types.Message{}, apperr.Validation("body is required")
	}

	msg, err := s.repo.Create(ctx, types.Message{
		FromUsername: in.FromUsername,
		ToUsername:   in.ToUsername,
		Body:         in.Body,
	})
	if err != nil {
		return types.Message{}, err
	}

	s.logger.InfoContext(ctx, "message created", "id", msg.ID, "from", msg.FromUsername, "to", msg.ToUsername)
	s.notify(ctx, events.Created(msg))
	return msg, nil
}

func (s *MessageService) Get(ctx context.Context, id int64) (types.MessageDetail, error) {
	return s.repo.Get(ctx, id)
}

// MarkRead stamps read_at. Calling it again keeps the first timestamp.
func (s *MessageService) MarkRead(ctx context.Context, id int64) (types.ReadReceipt, error) {
	return s.repo.MarkRead(ctx, id)
}

// GetFor returns the message if requester is its sender or recipient.
func (s *MessageService) GetFor(ctx context.Context, id int64, requester string) (types.MessageDetail, error) {
	detail, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.MessageDetail{}, err
	}
	if requester != detail.FromUser.Username && requester != detail.ToUser.Username {
		return types.MessageDetail{}, apperr.Forbidden("cannot read this message")
	}
	return detail, nil
}

// MarkReadFor marks the message read if requester is its recipient.
// The check runs before the update.
func (s *MessageService) MarkReadFor(ctx context.Context, id int64, requester string) (types.ReadReceipt, error) {
	detail, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.ReadReceipt{}, err
	}
	if requester != detail.ToUser.Username {
		return types.ReadReceipt{}, apperr.Forbidden("only the recipient can mark this message as read")
	}

	receipt, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return types.ReadReceipt{}, err
	}

	if detail.ReadAt == nil {
		s.logger.InfoContext(ctx, "message read", "id", receipt.ID, "by", requester)
		s.notify(ctx, events.Read(detail, receipt))
	}
	return receipt, nil
}

// notify is best-effort: the message is already stored.
func (s *MessageService) notify(ctx context.Context, event events.MessageEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish message event",
			"type", event.Type,
			"message_id", event.MessageID,
			"error", err)
	}
}
