package notify

import (
	"context"
	"fmt"

	"github.com/missionctl/taskrelay/internal/domain"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// TelegramNotifier sends task notifications to a single operator chat.
// The destination is injected, not hard-coded; multi-recipient fan-out is
// out of scope.
type TelegramNotifier struct {
	bot    *telego.Bot
	chatID int64
}

// NewTelegramNotifier creates a notifier for the given bot token and
// destination chat.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := telego.NewBot(token, telego.WithDefaultLogger(false, true))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// Notify renders and sends the task message. Channel API errors are wrapped
// in ErrSendFailed with the upstream payload preserved in the error text.
func (n *TelegramNotifier) Notify(ctx context.Context, task *domain.Task) (MessageRef, error) {
	msg, err := n.bot.SendMessage(ctx, tu.Message(tu.ID(n.chatID), RenderMessage(task)))
	if err != nil {
		return MessageRef{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return MessageRef{MessageID: msg.MessageID}, nil
}
