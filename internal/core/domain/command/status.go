package command

import (
	"artcritic/internal/core/domain"
	"artcritic/internal/core/port"
	"artcritic/internal/core/service"
	"context"
	"fmt"
	"time"
)

type Status struct {
	sessions   SessionProvider
	textSender port.TextSender
	command    string
}

func NewStatus(sessions SessionProvider, textSender port.TextSender, command string) *Status {
	return &Status{sessions: sessions, textSender: textSender, command: command}
}

func (s *Status) GetCommand() string {
	return s.command
}

func (s *Status) Respond(ctx context.Context, _ time.Duration, message *domain.Message) error {
	state := s.sessions.Get(message.ChatID).State()

	_, err := s.textSender.SendMessageReply(ctx, message, service.Render(state, nil))
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
