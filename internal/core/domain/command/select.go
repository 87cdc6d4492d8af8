package command

import (
	"artcritic/internal/core/domain"
	"artcritic/internal/core/port"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

type Select struct {
	loader     port.ImageLoader
	sessions   SessionProvider
	textSender port.TextSender
	command    string
}

func NewSelect(loader port.ImageLoader, sessions SessionProvider, textSender port.TextSender,
	command string) *Select {
	return &Select{loader: loader, sessions: sessions, textSender: textSender, command: command}
}

func (s *Select) GetCommand() string {
	return s.command
}

func (s *Select) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", s.GetCommand()).
		Logger()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ref := message.ImageRef
	if ref == "" {
		ref = ParseCommandArgs(message.Text)
	}

	if ref == "" {
		_ = s.textSender.NotifyAndReturnError(ctx, errors.New("usage: /select <path or url>"), message)
		return nil
	}

	l.Info().Bool("attachment", message.ImageRef != "").Msg("handling request")

	asset, err := s.loader.Load(ctx, ref)
	if err != nil {
		l.Warn().Err(err).Msg("could not load image")
		return s.textSender.NotifyAndReturnError(ctx, fmt.Errorf("failed to load image: %w", err), message)
	}

	select {
	case <-s.sessions.Get(message.ChatID).Select(asset):
	case <-ctx.Done():
		l.Debug().Msg("stopped waiting for normalization")
	}

	return nil
}
