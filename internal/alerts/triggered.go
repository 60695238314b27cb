package alerts

import (
	"context"

	"github.com/Alias1177/PriceAlerts/internal/storage"
	"github.com/Alias1177/PriceAlerts/models"
)

// KeyTriggered is the storage key of the triggered-alert log
const KeyTriggered = "triggered_alerts"

// DefaultTriggeredLogSize bounds the triggered-alert log
const DefaultTriggeredLogSize = 100

// TriggeredLog keeps the most recent notifications, oldest first
type TriggeredLog struct {
	size    int
	entries []models.AlertNotification
}

func NewTriggeredLog(size int) *TriggeredLog {
	if size <= 0 {
		size = DefaultTriggeredLogSize
	}
	return &TriggeredLog{size: size}
}

// Append records notifications, keeping only the newest size entries
func (l *TriggeredLog) Append(ns ...models.AlertNotification) {
	l.entries = append(l.entries, ns...)
	if over := len(l.entries) - l.size; over > 0 {
		l.entries = append([]models.AlertNotification(nil), l.entries[over:]...)
	}
}

func (l *TriggeredLog) Len() int {
	return len(l.entries)
}

// Recent returns up to limit of the newest entries, oldest first.
// A non-positive limit returns everything.
func (l *TriggeredLog) Recent(limit int) []models.AlertNotification {
	start := 0
	if limit > 0 && limit < len(l.entries) {
		start = len(l.entries) - limit
	}
	out := make([]models.AlertNotification, len(l.entries)-start)
	copy(out, l.entries[start:])
	return out
}

func (l *TriggeredLog) Load(ctx context.Context, store storage.KeyedStore) error {
	var entries []models.AlertNotification
	ok, err := storage.LoadJSON(ctx, store, KeyTriggered, &entries)
	if err != nil || !ok {
		return err
	}
	l.entries = nil
	l.Append(entries...)
	return nil
}

func (l *TriggeredLog) Save(ctx context.Context, store storage.KeyedStore) error {
	entries := l.entries
	if entries == nil {
		entries = []models.AlertNotification{}
	}
	return storage.SaveJSON(ctx, store, KeyTriggered, entries)
}
