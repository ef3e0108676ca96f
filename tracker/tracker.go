// Package tracker drives pending swap records to their terminal status by
// polling each record's provider.
package tracker

import (
	"context"
	"log"
	"time"

	"github.com/openbridge/swapd/db"
	"github.com/openbridge/swapd/swap"
)

const pollInterval = 15 * time.Second

// Notifier receives terminal-status notifications. Matches the executor's
// notifier so one Telegram instance serves both.
type Notifier interface {
	SwapSucceeded(record db.Swap)
	SwapFailed(record db.Swap, reason string)
}

type Tracker struct {
	store     *db.Store
	providers map[string]swap.Provider
	notifier  Notifier
}

func New(store *db.Store, providers map[string]swap.Provider, notifier Notifier) *Tracker {
	return &Tracker{
		store:     store,
		providers: providers,
		notifier:  notifier,
	}
}

func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	// Run once immediately on start
	t.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Tracker stopped")
			return
		case <-ticker.C:
			t.poll(ctx)
		}
	}
}

func (t *Tracker) poll(ctx context.Context) {
	pending, err := t.store.ListPendingSwaps(ctx)
	if err != nil {
		log.Printf("Tracker: error listing pending swaps: %v", err)
		return
	}

	if len(pending) == 0 {
		return
	}

	log.Printf("Tracker: checking %d pending swap(s)", len(pending))

	for _, record := range pending {
		select {
		case <-ctx.Done():
			return
		default:
		}

		provider, ok := t.providers[record.Provider]
		if !ok {
			log.Printf("Tracker: swap %d references unknown provider %q", record.ID, record.Provider)
			continue
		}

		status, err := provider.CheckStatus(ctx, record.TxHash, record.ExternalID)
		if err != nil {
			log.Printf("Tracker: error checking swap %d (tx %s): %v", record.ID, record.TxHash, err)
			continue
		}

		log.Printf("Tracker: swap %d status = %s", record.ID, status)

		switch status {
		case "completed":
			t.finalize(ctx, record, "success")
		case "failed":
			t.finalize(ctx, record, "failed")
		}
	}
}

func (t *Tracker) finalize(ctx context.Context, record db.Swap, status string) {
	if err := t.store.UpdateSwapStatus(ctx, db.UpdateSwapStatusParams{
		Status: status,
		ID:     record.ID,
	}); err != nil {
		log.Printf("Tracker: error updating swap %d: %v", record.ID, err)
		return
	}
	log.Printf("Tracker: swap %d %s", record.ID, status)

	record.Status = status
	if t.notifier == nil {
		return
	}
	if status == "success" {
		t.notifier.SwapSucceeded(record)
	} else {
		t.notifier.SwapFailed(record, "Swap did not complete. Funds may be refunded automatically.")
	}
}
