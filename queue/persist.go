package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/kv"
	"github.com/eringen/pubqueue/logger"
)

// DefaultKey is the storage key of the queue snapshot.
const DefaultKey = "content-creation-queue"

// Adapter persists queue snapshots as JSON in a kv.Store. It never returns
// errors: a failed write is logged and dropped, a failed read yields an
// empty queue.
type Adapter struct {
	kv  kv.Store
	key string
	log logger.Logger
}

// NewAdapter stores snapshots under key (DefaultKey when empty).
func NewAdapter(store kv.Store, key string, log logger.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	return &Adapter{kv: store, key: key, log: logger.OrNop(log).With(logger.String("key", key))}
}

// Load returns the stored snapshot. Items left in StatusSaving by an
// interrupted process come back as drafts, and date fields are turned back
// into time.Time values.
func (a *Adapter) Load(ctx context.Context) []Item {
	raw, err := a.kv.Get(ctx, a.key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		a.log.Error("load queue", logger.Err(err))
		return nil
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		a.log.Error("decode queue snapshot", logger.Err(err))
		return nil
	}

	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if it.ID == "" || !it.Type.Valid() {
			a.log.Warn("dropping unusable queue item", logger.String("id", it.ID), logger.String("type", string(it.Type)))
			continue
		}
		if _, dup := seen[it.ID]; dup {
			a.log.Warn("dropping duplicate queue item", logger.String("id", it.ID))
			continue
		}
		seen[it.ID] = struct{}{}
		if it.Status == StatusSaving || !it.Status.Valid() {
			it.Status = StatusDraft
		}
		if it.Status != StatusError {
			it.Error = ""
		}
		if it.FormData == nil {
			it.FormData = content.Defaults(it.Type)
		}
		restoreDates(it)
		out = append(out, it)
	}
	return out
}

// Save writes the full snapshot.
func (a *Adapter) Save(ctx context.Context, items []Item) {
	if items == nil {
		items = []Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		a.log.Error("encode queue snapshot", logger.Err(err))
		return
	}
	if err := a.kv.Put(ctx, a.key, raw); err != nil {
		a.log.Error("save queue", logger.Err(err), logger.Int("items", len(items)))
	}
}

func restoreDates(it Item) {
	for _, name := range content.Lookup(it.Type).FieldsOfKind(content.KindDate) {
		s, ok := it.FormData[name].(string)
		if !ok || s == "" {
			continue
		}
		if t, ok := ParseDate(s); ok {
			it.FormData[name] = t
		}
	}
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ParseDate accepts the date encodings produced by JSON and HTML date inputs.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
