package sender

import (
	"artcritic/internal/core/domain"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

// Console prints replies to a terminal.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	ids int
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) SendMessageReply(_ context.Context, _ *domain.Message, text string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.out, "%s\n\n", text); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
	}
	c.ids++

	return c.ids, nil
}

// SendChatAction is a no-op on a terminal; progress is reported through state
// updates instead.
func (c *Console) SendChatAction(_ context.Context, _ int64, _ domain.Action) {}

func (c *Console) NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error {
	log.Debug().Err(err).Msg("command failed")

	if _, sendErr := c.SendMessageReply(ctx, message, fmt.Sprintf("Error: %s", err)); sendErr != nil {
		return sendErr
	}

	return err
}
