package command

import (
	"artcritic/internal/core/domain"
	"artcritic/internal/core/port"
	"context"
	"fmt"
	"time"
)

type Remove struct {
	sessions   SessionProvider
	textSender port.TextSender
	command    string
}

func NewRemove(sessions SessionProvider, textSender port.TextSender, command string) *Remove {
	return &Remove{sessions: sessions, textSender: textSender, command: command}
}

func (r *Remove) GetCommand() string {
	return r.command
}

const nothingToRemove = "Nothing to remove."

func (r *Remove) Respond(ctx context.Context, _ time.Duration, message *domain.Message) error {
	controller := r.sessions.Get(message.ChatID)

	if controller.State().Phase == domain.Empty {
		_, err := r.textSender.SendMessageReply(ctx, message, nothingToRemove)
		if err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
		return nil
	}

	controller.Remove()

	return nil
}
