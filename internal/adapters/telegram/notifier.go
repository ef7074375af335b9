package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"helios/internal/services/rebalance"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

// Config contains configuration for the Telegram notifier
type Config struct {
	BotToken string
	ChatID   int64
}

// Notifier delivers rebalance reports to a Telegram chat. Implements the
// rebalance controller's Notifier.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *logger.Logger
}

// NewNotifier creates a Telegram notifier
func NewNotifier(cfg Config) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "telegram bot token not configured")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, errors.Wrap(err, "create telegram bot")
	}

	return &Notifier{
		bot:    bot,
		chatID: cfg.ChatID,
		log:    logger.Get().With("component", "telegram_notifier"),
	}, nil
}

// SendRebalanceReport formats and sends one cycle report
func (n *Notifier) SendRebalanceReport(ctx context.Context, report *rebalance.CycleReport) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatRebalanceReport(report))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		return errors.Wrap(err, "send telegram message")
	}

	n.log.Debugw("Sent rebalance report", "portfolio_id", report.Portfolio.ID)
	return nil
}
