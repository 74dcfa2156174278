package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Run delivers cycle reports and long-polls for commands and button presses.
// Blocks until ctx is cancelled.
func (t *TelegramNotifier) Run(ctx context.Context) error {
	go t.deliver(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := t.bot.GetUpdatesChan(u)
	t.log.Info("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			t.log.Info("telegram polling stopped")
			return nil
		case upd, ok := <-updates:
			if !ok {
				// Keep delivering reports until ctx ends.
				updates = nil
				continue
			}
			t.handleUpdate(ctx, upd)
		}
	}
}

func (t *TelegramNotifier) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if cb := upd.CallbackQuery; cb != nil {
		t.handleCallback(ctx, cb)
		return
	}

	msg := upd.Message
	if msg == nil || msg.Chat == nil || msg.Chat.ID != t.chatID {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}
	t.log.Info("received command", zap.String("command", text))
	if reply := t.commands.HandleCommand(ctx, text); reply != "" {
		if err := t.Send(reply); err != nil {
			t.log.Error("send reply", zap.Error(err))
		}
	}
}

func (t *TelegramNotifier) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Stops the spinner on the pressed button.
	_, _ = t.bot.Request(tgbotapi.NewCallback(cb.ID, ""))

	if cb.Message == nil || cb.Message.Chat == nil || cb.Message.Chat.ID != t.chatID {
		return
	}
	approve, id, ok := parseCallback(cb.Data)
	if !ok {
		t.log.Warn("unknown callback", zap.String("data", cb.Data))
		return
	}

	reply := t.commands.Review(ctx, id, approve)
	edit := tgbotapi.NewEditMessageText(t.chatID, cb.Message.MessageID, cb.Message.Text+"\n\n"+reply)
	if _, err := t.bot.Request(edit); err != nil {
		t.log.Error("update review prompt", zap.Int64("decision_id", id), zap.Error(err))
	}
}
