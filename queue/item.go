// Package queue stages content items for creation. A Store owns the ordered
// list of items and the active selection and writes every committed change
// through a Persister.
package queue

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eringen/pubqueue/content"
)

// Status is the submission state of an item.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusError  Status = "error"
)

// Valid reports whether s is one of the four known states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSaving, StatusSaved, StatusError:
		return true
	}
	return false
}

// Pending reports whether an item in state s still needs submitting.
func (s Status) Pending() bool {
	return s == StatusDraft || s == StatusError
}

// Item is one staged, not yet created content entity.
type Item struct {
	ID        string         `json:"id"`
	Type      content.Type   `json:"type"`
	FormData  map[string]any `json:"formData"`
	Status    Status         `json:"status"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func newItem(t content.Type, now time.Time) *Item {
	return &Item{
		ID:        newID(now),
		Type:      t,
		FormData:  content.Defaults(t),
		Status:    StatusDraft,
		CreatedAt: now,
	}
}

// newID is a millisecond timestamp plus a random suffix.
func newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}

// clone copies the item and its top-level form data so callers cannot
// mutate store state through a returned value.
func (it *Item) clone() Item {
	c := *it
	c.FormData = maps.Clone(it.FormData)
	return c
}

// Title derives a display title from the title or name field, falling back
// to "New <Label>".
func Title(it Item) string {
	for _, key := range []string{"title", "name"} {
		if s, ok := it.FormData[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	if it.Type.Valid() {
		return "New " + content.Lookup(it.Type).Singular
	}
	return "New item"
}

// Counts tallies items by status.
type Counts struct {
	Total  int `json:"total"`
	Draft  int `json:"draft"`
	Saving int `json:"saving"`
	Saved  int `json:"saved"`
	Error  int `json:"error"`
}
