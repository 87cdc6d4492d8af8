package command

import (
	"artcritic/internal/core/domain"
	"artcritic/internal/core/port"
	"context"
	"fmt"
	"strings"
	"time"
)

type Help struct {
	registry port.CommandRegistry
	ts       port.TextSender
	command  string
}

func NewHelp(registry port.CommandRegistry, ts port.TextSender, command string) *Help {
	return &Help{
		registry: registry,
		ts:       ts,
		command:  command,
	}
}

func (h *Help) GetCommand() string {
	return h.command
}

var descriptions = map[string]string{
	"/select":   "choose an image by path or URL (or just send a photo)",
	"/remove":   "discard the selected image",
	"/critique": "ask for a critique of the selected image",
	"/health":   "check whether the analysis service is reachable",
	"/status":   "show the current submission state",
}

func (h *Help) Respond(ctx context.Context, _ time.Duration, message *domain.Message) error {
	sb := &strings.Builder{}

	_, err := sb.WriteString("Upload your artwork and receive an AI-generated critique. Available commands:\n\n")
	if err != nil {
		return fmt.Errorf("failed to construct response: %w", err)
	}

	for _, cmd := range h.registry.ListCommands() {
		desc, ok := descriptions[cmd]
		if !ok {
			continue
		}

		_, err = fmt.Fprintf(sb, " %s - %s\n", cmd, desc)
		if err != nil {
			return fmt.Errorf("failed to construct response: %w", err)
		}
	}

	_, err = h.ts.SendMessageReply(ctx, message, sb.String())
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
