package bot

import "context"

// Update is one normalized event from the platform feed. ChatID is empty for
// update kinds the bot does not handle (edits, callbacks); those still carry
// an ID so the cursor can advance past them.
type Update struct {
	ID       int
	ChatID   string
	Username string
	Text     string
}

// UpdateSource long-polls the platform for updates with id >= offset.
type UpdateSource interface {
	PollUpdates(ctx context.Context, offset, timeoutSec int) ([]Update, error)
}

// Handler processes a single update. Errors are logged by the loop and the
// update is not retried.
type Handler interface {
	HandleUpdate(ctx context.Context, update Update) error
}

// CursorStore persists the loop's offset so a restart resumes after the last
// attempted update.
type CursorStore interface {
	Load(ctx context.Context) (int, error)
	Save(ctx context.Context, offset int) error
}

// Notifier delivers outbound messages. Delivery is best effort and must
// never block ingestion; implementations retry on their own.
type Notifier interface {
	Notify(ctx context.Context, chatID, text string)
	NotifyMarkdown(ctx context.Context, chatID, text string)
}
