package command

import "artcritic/internal/core/service"

// SessionProvider hands out the controller that belongs to a chat.
type SessionProvider interface {
	Get(chatID int64) *service.Controller
}
