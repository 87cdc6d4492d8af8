package sender

import (
	"artcritic/internal/core/domain"
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// TelegramMessageLimit is the maximum length of a single Telegram text message.
const TelegramMessageLimit = 4096

const ChatActionInterval = 5 * time.Second

type TelegramBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

type Telegram struct {
	bot            TelegramBot
	actionInterval time.Duration
}

func NewTelegram(b TelegramBot) *Telegram {
	return &Telegram{bot: b, actionInterval: ChatActionInterval}
}

// SendMessageReply sends text to the chat, split into as many messages as
// needed. Only the first chunk quotes the original message. The ID of the last
// sent message is returned.
func (s *Telegram) SendMessageReply(ctx context.Context, message *domain.Message, text string) (int, error) {
	var lastID int

	for i, chunk := range splitText(text, TelegramMessageLimit) {
		params := &bot.SendMessageParams{
			ChatID: message.ChatID,
			Text:   chunk,
		}
		if i == 0 && message.ID != 0 {
			params.ReplyParameters = &models.ReplyParameters{
				MessageID: message.ID,
				ChatID:    message.ChatID,
			}
		}

		sent, err := s.bot.SendMessage(ctx, params)
		if err != nil {
			return lastID, fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
		}
		if sent != nil {
			lastID = sent.ID
		}
	}

	return lastID, nil
}

func (s *Telegram) NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error {
	log.Error().Err(err).Int64("chatId", message.ChatID).Msg("command failed")

	if _, sendErr := s.SendMessageReply(ctx, message, fmt.Sprintf("Error: %s", err)); sendErr != nil {
		log.Error().Err(sendErr).Msg("failed to send error notification")
		return sendErr
	}

	return err
}

// SendChatAction repeats the chat action until ctx is done, since Telegram
// clears it after a few seconds.
func (s *Telegram) SendChatAction(ctx context.Context, chatID int64, action domain.Action) {
	l := log.With().Int64("chatId", chatID).Str("action", string(action)).Logger()
	l.Debug().Msg("starting action routine")

	ticker := time.NewTicker(s.actionInterval)
	defer ticker.Stop()

	for {
		_, err := s.bot.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			// Telegram has no closer match for a running analysis
			Action: models.ChatActionTyping,
		})
		if err != nil {
			l.Err(err).Msg("error sending chat action")
			return
		}

		select {
		case <-ctx.Done():
			l.Debug().Msg("done, stopping action routine")
			return
		case <-ticker.C:
		}
	}
}

// splitText cuts text into chunks of at most limit bytes without breaking
// UTF-8 sequences.
func splitText(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}

	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
