// Package listing filters, sorts and selects content entries for the admin
// list views. Every function is pure and returns new slices.
package listing

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/eringen/pubqueue/content"
)

// All is the sentinel for an unset criterion.
const All = "ALL"

// Filters narrows a list of entries. Empty strings and All skip a
// criterion; nil bounds are open.
type Filters struct {
	Search     string
	Status     string
	ResourceID string
	CategoryID string
	From       *time.Time
	To         *time.Time
}

func active(v string) bool {
	return v != "" && v != All
}

// Filter returns the entries matching every active criterion.
func Filter(entries []content.Entry, f Filters) []content.Entry {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]content.Entry, 0, len(entries))
	for _, e := range entries {
		if search != "" && !matchesSearch(e, search) {
			continue
		}
		if active(f.Status) && e.Status != f.Status {
			continue
		}
		if active(f.ResourceID) && e.ResourceID != f.ResourceID {
			continue
		}
		if active(f.CategoryID) && e.CategoryID != f.CategoryID {
			continue
		}
		if f.From != nil && e.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && e.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesSearch(e content.Entry, term string) bool {
	for _, s := range []string{e.DisplayTitle(), e.Summary()} {
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

// Direction is a sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sortable fields.
const (
	FieldTitle       = "title"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
	FieldPublishedAt = "publishedAt"
	FieldViews       = "views"
	FieldLikes       = "likes"
)

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.English, collate.IgnoreCase)
)

// compareStrings is locale aware. collate.Collator is not safe for
// concurrent use.
func compareStrings(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}

func timeKey(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixNano()
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func comparator(field string) func(a, b content.Entry) int {
	switch field {
	case FieldTitle, "name":
		return func(a, b content.Entry) int { return compareStrings(a.DisplayTitle(), b.DisplayTitle()) }
	case FieldCreatedAt:
		return func(a, b content.Entry) int { return compareInt64(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano()) }
	case FieldUpdatedAt:
		return func(a, b content.Entry) int { return compareInt64(a.UpdatedAt.UnixNano(), b.UpdatedAt.UnixNano()) }
	case FieldPublishedAt:
		return func(a, b content.Entry) int { return compareInt64(timeKey(a.PublishedAt), timeKey(b.PublishedAt)) }
	case FieldViews:
		return func(a, b content.Entry) int { return a.Views - b.Views }
	case FieldLikes:
		return func(a, b content.Entry) int { return a.Likes - b.Likes }
	}
	return nil
}

// Sort returns a stably sorted copy of entries. Unknown fields keep the
// input order.
func Sort(entries []content.Entry, field string, dir Direction) []content.Entry {
	out := make([]content.Entry, len(entries))
	copy(out, entries)
	cmp := comparator(field)
	if cmp == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// ParseDirection maps query values to a Direction, defaulting to Desc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(s, string(Asc)) {
		return Asc
	}
	return Desc
}
