package handler

import (
	"artcritic/internal/core/domain"
	"artcritic/internal/core/domain/command"
	"artcritic/internal/core/port"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// FileResolver turns Telegram file IDs into download links.
type FileResolver interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

type Telegram struct {
	commandRegistry port.CommandRegistry
	timeout         time.Duration
	selectCommand   string
	wg              sync.WaitGroup
}

// NewTelegram builds the update handler. Images sent without a command
// caption are routed to selectCommand.
func NewTelegram(commandRegistry port.CommandRegistry, timeout time.Duration, selectCommand string) *Telegram {
	return &Telegram{commandRegistry: commandRegistry, timeout: timeout, selectCommand: selectCommand}
}

// Handle matches bot.HandlerFunc.
func (t *Telegram) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	var files FileResolver
	if b != nil {
		files = b
	}

	t.dispatch(ctx, files, update)
}

func (t *Telegram) dispatch(ctx context.Context, files FileResolver, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}
	msg := update.Message

	text := msg.Text
	fileID := imageFileID(msg)
	if fileID != "" {
		text = msg.Caption
		if !strings.HasPrefix(text, "/") {
			text = t.selectCommand
		}
	}

	log.Debug().Str("message", text).Int64("chatId", msg.Chat.ID).Msg("received command")

	cmd := stripBotName(command.ParseCommand(text))
	commandHandler, err := t.commandRegistry.Get(cmd)
	if err != nil {
		log.Debug().Str("command", cmd).Msg("no handler for command")
		return
	}

	message := &domain.Message{
		ID:       msg.ID,
		ChatID:   msg.Chat.ID,
		Text:     text,
		Username: getUserNameOrFirstName(msg.From),
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		if fileID != "" {
			ref, err := resolveFile(ctx, files, fileID)
			if err != nil {
				log.Error().Err(err).Str("fileId", fileID).Msg("error getting file from telegram api")
				return
			}
			message.ImageRef = ref
		}

		if err := commandHandler.Respond(ctx, t.timeout, message); err != nil {
			log.Err(err).Str("command", cmd).Msg("failed to respond to command")
		}
	}()
}

// Wait blocks until all dispatched commands have returned.
func (t *Telegram) Wait() {
	t.wg.Wait()
}

func resolveFile(ctx context.Context, files FileResolver, fileID string) (string, error) {
	if files == nil {
		return "", fmt.Errorf("no file resolver for %s", fileID)
	}

	f, err := files.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return "", err
	}

	return files.FileDownloadLink(f), nil
}

// imageFileID returns the file carrying an image, if the message has one.
// Photos are preferred over documents.
func imageFileID(msg *models.Message) string {
	if len(msg.Photo) > 0 {
		return findLargestImage(msg.Photo)
	}

	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID
	}

	return ""
}

func findLargestImage(photos []models.PhotoSize) string {
	best := photos[0]
	for _, photo := range photos[1:] {
		if photo.Width*photo.Height > best.Width*best.Height {
			best = photo
		}
	}

	return best.FileID
}

// stripBotName turns "/critique@artbot" into "/critique".
func stripBotName(cmd string) string {
	name, _, _ := strings.Cut(cmd, "@")
	return name
}

func getUserNameOrFirstName(user *models.User) string {
	if user == nil {
		return ""
	}

	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}
