package bot

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"
)

// Loop is the single sequential consumer of the platform update feed. It
// long-polls with the current offset, dispatches each update in ascending id
// order, and advances the durable cursor to id+1 after every attempted
// update. A handler failure is logged and skipped; the cursor still moves,
// so nothing is redelivered. Only a poll transport failure holds the offset
// back: the loop sleeps a fixed backoff and polls again.
type Loop struct {
	source     UpdateSource
	handler    Handler
	cursor     CursorStore
	timeoutSec int
	backoff    time.Duration
}

func NewLoop(source UpdateSource, handler Handler, cursor CursorStore, timeoutSec, backoffSec int) *Loop {
	return &Loop{
		source:     source,
		handler:    handler,
		cursor:     cursor,
		timeoutSec: timeoutSec,
		backoff:    time.Duration(backoffSec) * time.Second,
	}
}

// Run polls until ctx is canceled. Shutdown finishes the update in flight
// and returns between iterations.
func (l *Loop) Run(ctx context.Context) error {
	offset, err := l.cursor.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ingestion cursor: %w", err)
	}
	log.Printf("Ingestion loop started at offset %d", offset)

	for {
		if ctx.Err() != nil {
			log.Println("Ingestion loop stopped")
			return nil
		}

		updates, err := l.source.PollUpdates(ctx, offset, l.timeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("Ingestion loop stopped")
				return nil
			}
			log.Printf("Polling error: %v", err)
			l.sleep(ctx)
			continue
		}

		sort.Slice(updates, func(i, j int) bool { return updates[i].ID < updates[j].ID })

		for _, update := range updates {
			if ctx.Err() != nil {
				log.Println("Ingestion loop stopped")
				return nil
			}

			l.dispatch(ctx, update)

			offset = update.ID + 1
			if err := l.cursor.Save(ctx, offset); err != nil {
				log.Printf("Failed to persist cursor %d: %v", offset, err)
			}
		}
	}
}

// dispatch isolates one update: neither a handler error nor a panic may
// abort the batch or kill the loop.
func (l *Loop) dispatch(ctx context.Context, update Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic while handling update %d: %v", update.ID, r)
		}
	}()

	if err := l.handler.HandleUpdate(ctx, update); err != nil {
		log.Printf("Error handling update %d: %v", update.ID, err)
	}
}

func (l *Loop) sleep(ctx context.Context) {
	timer := time.NewTimer(l.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
