// Package notify sends Telegram digests about completed scrape runs.
package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"paris_events/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier sends run digests to a single Telegram chat. A nil Notifier is
// valid and sends nothing, so callers can run without a configured bot.
type Notifier struct {
	api    telegramAPI
	chatID int64
	log    *slog.Logger
}

// New creates a Notifier for the given bot token and target chat.
func New(token string, chatID int64, log *slog.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Notifier{api: api, chatID: chatID, log: log}, nil
}

// RunDigest sends a one-line summary of a finished scrape run.
func (n *Notifier) RunDigest(run *model.ScrapeRun, src model.Source) {
	if n == nil {
		return
	}
	n.SendMessage(FormatRunDigest(run, src))
}

// FormatRunDigest renders the digest text for one scrape run.
func FormatRunDigest(run *model.ScrapeRun, src model.Source) string {
	return fmt.Sprintf("[%s] found %d, added %d, updated %d, merged %d, errors %d",
		src.Name, run.Found, run.Added, run.Updated, run.Merged, run.Errors)
}

// SendMessage sends a text message to the configured chat.
func (n *Notifier) SendMessage(text string) {
	if n == nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := n.api.Send(msg); err != nil {
		n.log.Error("send message", "chat_id", n.chatID, "error", err)
	}
}
