// Package notify delivers swap outcome notifications over Telegram.
package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/openbridge/swapd/config"
	"github.com/openbridge/swapd/db"
)

// Telegram sends outcome messages to the configured chat. A nil *Telegram is
// a valid no-op notifier, so callers never branch on configuration.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	cfg    *config.Config
}

// New connects the bot. Returns (nil, nil) when no token is configured.
func New(cfg *config.Config) (*Telegram, error) {
	if cfg.TelegramToken == "" {
		return nil, nil
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("connecting telegram bot: %w", err)
	}
	log.Printf("Notifier authorized as @%s", api.Self.UserName)

	return &Telegram{
		api:    api,
		chatID: cfg.TelegramChatID,
		cfg:    cfg,
	}, nil
}

// SwapSucceeded announces a completed swap.
func (t *Telegram) SwapSucceeded(record db.Swap) {
	if t == nil {
		return
	}
	text := fmt.Sprintf("*Swap Complete*\n%s %s (%s) -> %s (%s)\nTx: `%s`\n[View on Explorer](%s)",
		record.Amount, record.FromSymbol, record.FromNetwork,
		record.ToSymbol, record.ToNetwork,
		record.TxHash, t.cfg.ExplorerTxURL(record.FromNetwork, record.TxHash))
	t.send(text)
}

// SwapFailed announces a failed swap with the classified reason.
func (t *Telegram) SwapFailed(record db.Swap, reason string) {
	if t == nil {
		return
	}
	text := fmt.Sprintf("*Swap Failed*\n%s %s (%s) -> %s (%s)\n%s",
		record.Amount, record.FromSymbol, record.FromNetwork,
		record.ToSymbol, record.ToNetwork, reason)
	if record.TxHash != "" {
		text += fmt.Sprintf("\nTx: `%s`\n[View on Explorer](%s)",
			record.TxHash, t.cfg.ExplorerTxURL(record.FromNetwork, record.TxHash))
	}
	t.send(text)
}

func (t *Telegram) send(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "Markdown"
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		log.Printf("Notifier: error sending message: %v", err)
	}
}
