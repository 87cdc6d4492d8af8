package service

import (
	"artcritic/internal/core/domain"
	"artcritic/internal/core/port"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Presenter turns controller updates into chat messages.
type Presenter struct {
	sender port.TextSender
}

func NewPresenter(sender port.TextSender) *Presenter {
	return &Presenter{sender: sender}
}

// Observer returns an Observer that reports every update to the given chat.
func (p *Presenter) Observer(ctx context.Context, chatID int64) Observer {
	return func(state domain.SubmissionState, err error) {
		text := Render(state, err)
		if text == "" {
			return
		}

		_, sendErr := p.sender.SendMessageReply(ctx, &domain.Message{ChatID: chatID}, text)
		if sendErr != nil {
			log.Warn().Err(sendErr).Int64("chatId", chatID).Msg("failed to present state")
		}
	}
}

const (
	uploadFailed = "Could not use that file: %s"
	noImage      = "No image selected. Send an image or use /select <path or url>."
	imageReady   = "Image ready (%dx%d). Use /critique to analyze it."
	analyzing    = "Analyzing..."
	critique     = "AI Critique\n\n%s"
)

// Render formats a state for display. Upload failures take precedence.
func Render(state domain.SubmissionState, err error) string {
	if err != nil {
		return fmt.Sprintf(uploadFailed, describeUploadError(err))
	}

	switch state.Phase {
	case domain.Empty:
		return noImage
	case domain.Ready:
		if state.Image == nil {
			return noImage
		}
		return fmt.Sprintf(imageReady, state.Image.Width, state.Image.Height)
	case domain.Submitting:
		return analyzing
	case domain.Succeeded:
		return fmt.Sprintf(critique, state.Critique)
	case domain.Failed:
		return state.Error
	}

	return ""
}

func describeUploadError(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedMedia):
		return "it is not an image."
	case errors.Is(err, domain.ErrDecode):
		return "the image is corrupt or in an unsupported format."
	default:
		return "the upload failed."
	}
}
