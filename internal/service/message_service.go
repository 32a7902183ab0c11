package service

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"

	"chatroom-api/internal/domain"
	"chatroom-api/internal/repository"
)

// maxMessageLength bounds the text of a single chat message.
const maxMessageLength = 200

// MessageService appends to and reads the shared room's message log.
type MessageService interface {
	Append(ctx context.Context, member *domain.Member, text string) (*domain.Message, error)
	List(ctx context.Context, limit int) ([]domain.Message, error)
}

type messageService struct {
	messages repository.MessageRepository
}

func NewMessageService(messages repository.MessageRepository) MessageService {
	return &messageService{messages: messages}
}

// Append validates the text and stores the message under the authenticated
// member. The author is never taken from the request body.
func (s *messageService) Append(ctx context.Context, member *domain.Member, text string) (*domain.Message, error) {
	if err := (validation.Errors{
		"text": validation.Validate(text, validation.Required, validation.RuneLength(1, maxMessageLength)),
	}).Filter(); err != nil {
		return nil, err
	}

	message := &domain.Message{
		MemberID:       member.ID,
		MemberUsername: member.Username,
		Text:           text,
	}
	if _, err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// List returns the log oldest first. A positive limit truncates to the
// earliest N messages; any other value returns everything.
func (s *messageService) List(ctx context.Context, limit int) ([]domain.Message, error) {
	return s.messages.List(ctx, limit)
}
