package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"referral-bot/internal/bot"
	"referral-bot/internal/store"
)

const (
	cycleInterval  = 30 * time.Second
	recipientLimit = 10000
	dedupTTL       = 7 * 24 * time.Hour
)

// Broadcaster fans pending broadcasts out to every account. A Redis key per
// (broadcast, recipient) marks delivery attempts so a restart mid-broadcast
// does not message anyone twice.
type Broadcaster struct {
	Store    *store.Store
	Redis    *redis.Client
	Notifier bot.Notifier
}

func NewBroadcaster(st *store.Store, rdb *redis.Client, notifier bot.Notifier) *Broadcaster {
	return &Broadcaster{
		Store:    st,
		Redis:    rdb,
		Notifier: notifier,
	}
}

func (b *Broadcaster) Start(ctx context.Context) {
	ticker := time.NewTicker(cycleInterval)
	defer ticker.Stop()
	log.Println("Broadcast worker started")

	// Run once at start
	b.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Broadcast worker stopped")
			return
		case <-ticker.C:
			b.runCycle(ctx)
		}
	}
}

func (b *Broadcaster) runCycle(ctx context.Context) {
	pending, err := b.Store.PendingBroadcasts()
	if err != nil {
		log.Printf("Error querying pending broadcasts: %v", err)
		return
	}

	for _, broadcast := range pending {
		if err := b.deliver(ctx, broadcast.ID, broadcast.MessageText); err != nil {
			log.Printf("Error delivering broadcast %s: %v", broadcast.ID, err)
			continue
		}
		if err := b.Store.MarkBroadcastCompleted(broadcast.ID); err != nil {
			log.Printf("Failed to mark broadcast %s completed: %v", broadcast.ID, err)
		}
	}
}

func (b *Broadcaster) deliver(ctx context.Context, broadcastID, text string) error {
	users, err := b.Store.ListAccounts(recipientLimit)
	if err != nil {
		return err
	}

	for _, user := range users {
		if !user.IsActive {
			continue
		}

		key := fmt.Sprintf("broadcast_sent_%s_%s", broadcastID, user.ExternalID)
		exists, err := b.Redis.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("failed to check dedup key: %w", err)
		}
		if exists != 0 {
			continue
		}

		b.Notifier.Notify(ctx, user.ExternalID, text)
		b.Redis.Set(ctx, key, "true", dedupTTL)

		if err := b.Store.IncrementBroadcastSent(broadcastID); err != nil {
			log.Printf("Failed to bump sent count for %s: %v", broadcastID, err)
		}
	}
	return nil
}
