package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const (
	notifyAttempts = 3
	notifyRetryGap = 2 * time.Second
	notifyTimeout  = 10 * time.Second
)

// TelegramSource adapts the Telegram getUpdates API to the loop's
// UpdateSource contract.
type TelegramSource struct {
	bot *telego.Bot
}

func NewTelegramSource(bot *telego.Bot) *TelegramSource {
	return &TelegramSource{bot: bot}
}

func (s *TelegramSource) PollUpdates(ctx context.Context, offset, timeoutSec int) ([]Update, error) {
	raw, err := s.bot.GetUpdates(ctx, &telego.GetUpdatesParams{
		Offset:  offset,
		Timeout: timeoutSec,
	})
	if err != nil {
		return nil, fmt.Errorf("getUpdates failed: %w", err)
	}

	updates := make([]Update, 0, len(raw))
	for _, u := range raw {
		update := Update{ID: u.UpdateID}
		// Non-message updates keep their id so the cursor advances past
		// them, but carry no chat to route to.
		if u.Message != nil {
			update.ChatID = strconv.FormatInt(u.Message.Chat.ID, 10)
			update.Text = u.Message.Text
			if u.Message.From != nil {
				update.Username = u.Message.From.Username
			}
		}
		updates = append(updates, update)
	}
	return updates, nil
}

// TelegramNotifier sends outbound messages fire-and-forget: each call
// returns immediately and retries in the background. Failures are logged
// and never reach the ingestion loop.
type TelegramNotifier struct {
	bot *telego.Bot
}

func NewTelegramNotifier(bot *telego.Bot) *TelegramNotifier {
	return &TelegramNotifier{bot: bot}
}

func (n *TelegramNotifier) Notify(ctx context.Context, chatID, text string) {
	n.send(chatID, text, "")
}

func (n *TelegramNotifier) NotifyMarkdown(ctx context.Context, chatID, text string) {
	n.send(chatID, text, telego.ModeMarkdown)
}

func (n *TelegramNotifier) send(chatID, text, parseMode string) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		log.Printf("Cannot notify chat %q: %v", chatID, err)
		return
	}

	go func() {
		var lastErr error
		for attempt := 1; attempt <= notifyAttempts; attempt++ {
			// Delivery outlives the caller's context on purpose: a
			// shutdown mid-send should not drop the reply.
			sendCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			msg := tu.Message(tu.ID(id), text)
			if parseMode != "" {
				msg = msg.WithParseMode(parseMode)
			}
			_, lastErr = n.bot.SendMessage(sendCtx, msg)
			cancel()
			if lastErr == nil {
				return
			}
			time.Sleep(notifyRetryGap)
		}
		log.Printf("Failed to notify chat %d after %d attempts: %v", id, notifyAttempts, lastErr)
	}()
}
