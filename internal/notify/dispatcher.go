package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/PriceAlerts/internal/storage"
	"github.com/Alias1177/PriceAlerts/models"
)

// KeyPending is the storage key of the pending-delivery queue
const KeyPending = "pending_alerts"

// DefaultMaxAttempts is the number of failed flushes after which an entry is dropped
const DefaultMaxAttempts = 10

// Deliverer sends a notification to one full address
type Deliverer interface {
	Deliver(ctx context.Context, address string, n models.AlertNotification) error
}

// FlushResult counts the outcome of one flush
type FlushResult struct {
	Delivered int
	Retrying  int
	Dropped   int
}

// Dispatcher is the pending-delivery queue. Each flush broadcasts every
// entry to all subscribers; an entry is delivered only if every send in
// that flush succeeds. Failed entries are kept until they reach
// maxAttempts failures, then dropped.
// It is owned by a single agent and is not safe for concurrent use.
type Dispatcher struct {
	pending     []models.PendingDelivery
	deliverer   Deliverer
	maxAttempts int
	logger      zerolog.Logger
}

func NewDispatcher(deliverer Deliverer, maxAttempts int) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Dispatcher{
		deliverer:   deliverer,
		maxAttempts: maxAttempts,
		logger:      log.With().Str("component", "dispatcher").Logger(),
	}
}

// Enqueue adds notifications with zero attempts
func (d *Dispatcher) Enqueue(now time.Time, ns ...models.AlertNotification) {
	for _, n := range ns {
		d.pending = append(d.pending, models.PendingDelivery{
			Notification: n,
			LastAttempt:  now.UTC(),
		})
	}
}

func (d *Dispatcher) Len() int {
	return len(d.pending)
}

// Pending returns a copy of the queue
func (d *Dispatcher) Pending() []models.PendingDelivery {
	return append([]models.PendingDelivery(nil), d.pending...)
}

// Flush attempts every pending entry once. With no subscribers or nothing
// pending it does nothing and no attempt is counted.
func (d *Dispatcher) Flush(ctx context.Context, subscribers []string, now time.Time) FlushResult {
	var res FlushResult
	if len(d.pending) == 0 || len(subscribers) == 0 {
		return res
	}

	var remaining []models.PendingDelivery
	for _, entry := range d.pending {
		success := true
		for _, address := range subscribers {
			if err := d.deliverer.Deliver(ctx, address, entry.Notification); err != nil {
				d.logger.Error().Err(err).
					Str("address", address).
					Str("alert_id", entry.Notification.AlertID).
					Msg("Failed to send alert")
				success = false
				continue
			}
			d.logger.Debug().
				Str("address", address).
				Str("alert_id", entry.Notification.AlertID).
				Msg("Alert sent")
		}

		if success {
			res.Delivered++
			continue
		}

		entry.Attempts++
		entry.LastAttempt = now.UTC()
		if entry.Attempts >= d.maxAttempts {
			res.Dropped++
			d.logger.Warn().
				Int("attempts", entry.Attempts).
				Str("symbol", entry.Notification.Symbol).
				Msgf("Dropping alert after %d failed attempts: %s", entry.Attempts, entry.Notification.Message)
			continue
		}
		res.Retrying++
		remaining = append(remaining, entry)
	}

	d.pending = remaining
	return res
}

func (d *Dispatcher) Load(ctx context.Context, store storage.KeyedStore) error {
	var pending []models.PendingDelivery
	ok, err := storage.LoadJSON(ctx, store, KeyPending, &pending)
	if err != nil || !ok {
		return err
	}
	d.pending = pending
	return nil
}

func (d *Dispatcher) Save(ctx context.Context, store storage.KeyedStore) error {
	pending := d.pending
	if pending == nil {
		pending = []models.PendingDelivery{}
	}
	return storage.SaveJSON(ctx, store, KeyPending, pending)
}
