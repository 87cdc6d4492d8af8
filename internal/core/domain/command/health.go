package command

import (
	"artcritic/internal/core/domain"
	"artcritic/internal/core/port"
	"context"
	"fmt"
	"time"
)

type Health struct {
	checker    port.HealthChecker
	textSender port.TextSender
	command    string
}

func NewHealth(checker port.HealthChecker, textSender port.TextSender, command string) *Health {
	return &Health{checker: checker, textSender: textSender, command: command}
}

func (h *Health) GetCommand() string {
	return h.command
}

func (h *Health) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status := h.checker.CheckHealth(ctx)

	_, err := h.textSender.SendMessageReply(ctx, message, FormatHealth(status))
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func FormatHealth(status domain.HealthStatus) string {
	checked := status.CheckedAt.UTC().Format(time.RFC3339)

	if status.Message != "" {
		return fmt.Sprintf("Analysis service: %s (%s) at %s", status.State, status.Message, checked)
	}

	return fmt.Sprintf("Analysis service: %s at %s", status.State, checked)
}
