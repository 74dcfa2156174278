package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"YieldSentinel/internal/model"
	"YieldSentinel/internal/scheduler"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// DecisionReader loads a decision by id.
type DecisionReader interface {
	GetDecision(ctx context.Context, id int64) (model.Decision, bool, error)
}

// reportQueueSize bounds the cycle reports waiting for delivery.
const reportQueueSize = 16

// TelegramNotifier sends cycle reports and review prompts to one chat and
// answers commands from it.
type TelegramNotifier struct {
	bot       *tgbotapi.BotAPI
	chatID    int64
	commands  *Commands
	decisions DecisionReader
	reports   chan scheduler.CycleReport
	log       *zap.Logger
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken string, chatID int64, proxyURL string, commands *Commands, decisions DecisionReader, log *zap.Logger) (*TelegramNotifier, error) {
	return newTelegramNotifier(botToken, tgbotapi.APIEndpoint, chatID, proxyURL, commands, decisions, log)
}

func newTelegramNotifier(botToken, endpoint string, chatID int64, proxyURL string, commands *Commands, decisions DecisionReader, log *zap.Logger) (*TelegramNotifier, error) {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	client := &http.Client{
		Timeout:   45 * time.Second,
		Transport: transport,
	}
	bot, err := tgbotapi.NewBotAPIWithClient(botToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return &TelegramNotifier{
		bot:       bot,
		chatID:    chatID,
		commands:  commands,
		decisions: decisions,
		reports:   make(chan scheduler.CycleReport, reportQueueSize),
		log:       log.Named("telegram"),
	}, nil
}

// Send sends an HTML message to the configured chat.
func (t *TelegramNotifier) Send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := time.Duration(1<<uint(i)) * time.Second
		t.log.Warn("telegram send failed",
			zap.Int("attempt", i+1), zap.Int("max_attempts", maxRetries+1),
			zap.Duration("backoff", backoff), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// SendDecision posts a decision with approve and reject buttons.
func (t *TelegramNotifier) SendDecision(d model.Decision) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatDecision(d))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Approve", callbackData(callbackApprove, d.ID)),
		tgbotapi.NewInlineKeyboardButtonData("❌ Reject", callbackData(callbackReject, d.ID)),
	))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send decision %d: %w", d.ID, err)
	}
	return nil
}

// ObserveCycle queues a finished cycle for delivery by Run. It never waits
// on the network; when the queue is full the report is dropped.
func (t *TelegramNotifier) ObserveCycle(_ context.Context, r scheduler.CycleReport) {
	select {
	case t.reports <- r:
	default:
		t.log.Warn("report queue full, dropping cycle report", zap.Time("started", r.Started))
	}
}

// deliver sends queued reports until ctx is cancelled.
func (t *TelegramNotifier) deliver(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-t.reports:
			t.sendReport(ctx, r)
		}
	}
}

// sendReport posts the cycle summary and prompts for every decision it queued.
func (t *TelegramNotifier) sendReport(ctx context.Context, r scheduler.CycleReport) {
	if err := t.SendWithRetry(ctx, FormatCycleReport(r), 2); err != nil {
		t.log.Error("send cycle report", zap.Error(err))
	}
	for _, res := range r.Results {
		for _, id := range res.Queued {
			if ctx.Err() != nil {
				return
			}
			d, found, err := t.decisions.GetDecision(ctx, id)
			if err != nil || !found {
				t.log.Error("load queued decision", zap.Int64("decision_id", id), zap.Error(err))
				continue
			}
			if err := t.SendDecision(d); err != nil {
				t.log.Error("send review prompt", zap.Int64("decision_id", id), zap.Error(err))
			}
		}
	}
}
