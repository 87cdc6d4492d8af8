package handler

import (
	"artcritic/internal/core/domain"
	"artcritic/internal/core/domain/command"
	"artcritic/internal/core/port"
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ConsoleChatID identifies the single session of the terminal front end.
const ConsoleChatID int64 = 1

const quitCommand = "/quit"

type Console struct {
	commandRegistry port.CommandRegistry
	timeout         time.Duration
	selectCommand   string
	nextID          int
}

func NewConsole(commandRegistry port.CommandRegistry, timeout time.Duration, selectCommand string) *Console {
	return &Console{commandRegistry: commandRegistry, timeout: timeout, selectCommand: selectCommand}
}

// Run reads commands line by line until in is exhausted, /quit is entered or
// ctx is done. A line that is not a command is taken as an image to select.
// Commands run one at a time in input order.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errs:
					if err != nil {
						return fmt.Errorf("error reading input: %w", err)
					}
				default:
				}
				return nil
			}

			if c.handleLine(ctx, line) {
				return nil
			}
		}
	}
}

// handleLine dispatches a single input line and reports whether to quit.
func (c *Console) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, "/") {
		line = c.selectCommand + " " + line
	}

	cmd := command.ParseCommand(line)
	if cmd == quitCommand {
		return true
	}

	commandHandler, err := c.commandRegistry.Get(cmd)
	if err != nil {
		log.Warn().Str("command", cmd).Msg("unknown command, try /help")
		return false
	}

	c.nextID++
	message := &domain.Message{
		ID:     c.nextID,
		ChatID: ConsoleChatID,
		Text:   line,
	}

	if err := commandHandler.Respond(ctx, c.timeout, message); err != nil {
		log.Debug().Err(err).Str("command", cmd).Msg("command returned error")
	}

	return false
}
