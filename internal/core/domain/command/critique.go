package command

import (
	"artcritic/internal/core/domain"
	"artcritic/internal/core/port"
	"artcritic/internal/core/service"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

type Critique struct {
	sessions   SessionProvider
	textSender port.TextSender
	limiter    service.Limiter
	command    string
}

func NewCritique(sessions SessionProvider, textSender port.TextSender, limiter service.Limiter,
	command string) *Critique {
	return &Critique{sessions: sessions, textSender: textSender, limiter: limiter, command: command}
}

func (c *Critique) GetCommand() string {
	return c.command
}

func (c *Critique) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", c.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !c.limiter.TryAdd(ctx, message.ChatID) {
		l.Debug().Msg("daily limit reached")
		return nil
	}

	controller := c.sessions.Get(message.ChatID)

	done, err := controller.Generate()
	if err != nil {
		c.limiter.Refund(message.ChatID)
	}
	switch {
	case errors.Is(err, domain.ErrNoImage):
		_ = c.textSender.NotifyAndReturnError(ctx, errors.New("select an image first"), message)
		return nil
	case errors.Is(err, domain.ErrSubmissionInFlight):
		_ = c.textSender.NotifyAndReturnError(ctx, errors.New("a critique is already being generated"), message)
		return nil
	case err != nil:
		return c.textSender.NotifyAndReturnError(ctx, fmt.Errorf("could not start critique: %w", err), message)
	}

	actionCtx, stop := context.WithCancel(ctx)
	defer stop()
	go c.textSender.SendChatAction(actionCtx, message.ChatID, domain.Analyzing)

	select {
	case <-done:
		l.Debug().Str("phase", controller.State().Phase.String()).Msg("submission settled")
	case <-ctx.Done():
		l.Debug().Msg("stopped waiting for submission")
	}

	return nil
}
