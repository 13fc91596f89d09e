package notify

import (
	"context"

	"storefront/internal/models"
)

type htmlSender interface {
	SendHTML(ctx context.Context, text string) error
}

// TelegramRelay renders the order as an HTML message for a Telegram chat.
type TelegramRelay struct {
	bot htmlSender
}

func NewTelegramRelay(bot htmlSender) *TelegramRelay {
	return &TelegramRelay{bot: bot}
}

func (r *TelegramRelay) Send(ctx context.Context, order models.Order) error {
	text, err := RenderOrderMessage(order)
	if err != nil {
		return err
	}
	return r.bot.SendHTML(ctx, text)
}
