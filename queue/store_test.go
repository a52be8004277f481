package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pubqueue/content"
)

// recorder is a Persister that keeps every snapshot it was handed.
type recorder struct {
	mu        sync.Mutex
	initial   []Item
	snapshots [][]Item
}

func (r *recorder) Load(context.Context) []Item { return r.initial }

func (r *recorder) Save(_ context.Context, items []Item) {
	r.mu.Lock()
	r.snapshots = append(r.snapshots, items)
	r.mu.Unlock()
}

func (r *recorder) last() []Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

func newTestStore(t *testing.T) (*Store, *recorder) {
	t.Helper()
	rec := &recorder{}
	return NewStore(context.Background(), rec), rec
}

func TestAddItemInitialisesDraft(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &recorder{}
	s := NewStore(context.Background(), rec, WithClock(func() time.Time { return now }))

	id := s.AddItem(content.Blog)

	it, ok := s.Item(id)
	require.True(t, ok)
	assert.Equal(t, content.Blog, it.Type)
	assert.Equal(t, StatusDraft, it.Status)
	assert.Equal(t, now, it.CreatedAt)
	assert.Equal(t, "draft", it.FormData["status"])
	assert.Equal(t, id, s.ActiveID())
	require.Len(t, rec.last(), 1)
	assert.Equal(t, id, rec.last()[0].ID)
}

func TestIDsStayUniqueAcrossAddRemove(t *testing.T) {
	s, _ := newTestStore(t)
	types := content.All()
	for i := 0; i < 200; i++ {
		id := s.AddItem(types[i%len(types)])
		if i%3 == 0 {
			s.RemoveItem(id)
		}
	}
	seen := map[string]bool{}
	for _, it := range s.Items() {
		assert.Falsef(t, seen[it.ID], "duplicate id %s", it.ID)
		seen[it.ID] = true
	}
}

func TestRemoveActiveReselectsFirst(t *testing.T) {
	s, _ := newTestStore(t)
	a := s.AddItem(content.Blog)
	b := s.AddItem(content.Video)
	c := s.AddItem(content.Author)
	require.Equal(t, c, s.ActiveID())

	s.RemoveItem(c)
	assert.Equal(t, a, s.ActiveID())

	require.True(t, s.SetActive(b))
	s.RemoveItem(a)
	assert.Equal(t, b, s.ActiveID(), "removing an inactive item keeps the selection")
}

func TestRemoveOnlyItemClearsActive(t *testing.T) {
	s, rec := newTestStore(t)
	id := s.AddItem(content.Course)
	s.RemoveItem(id)

	_, ok := s.Active()
	assert.False(t, ok)
	assert.Empty(t, s.ActiveID())
	assert.Empty(t, rec.last())
}

func TestUpdateFormDataShallowMerge(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.AddItem(content.Blog)
	require.NoError(t, s.UpdateFormData(id, map[string]any{"title": "Hello"}))
	require.NoError(t, s.UpdateFormData(id, map[string]any{"foo": "bar"}))

	it, _ := s.Item(id)
	assert.Equal(t, "bar", it.FormData["foo"])
	assert.Equal(t, "Hello", it.FormData["title"])
	assert.Equal(t, "draft", it.FormData["status"])
	assert.Len(t, it.FormData, len(content.Defaults(content.Blog))+1)

	assert.ErrorIs(t, s.UpdateFormData("nope", map[string]any{"a": 1}), ErrItemNotFound)
}

func TestReturnedItemsAreCopies(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.AddItem(content.Blog)
	it, _ := s.Item(id)
	it.FormData["title"] = "mutated"
	it.Status = StatusSaved

	again, _ := s.Item(id)
	assert.Equal(t, "", again.FormData["title"])
	assert.Equal(t, StatusDraft, again.Status)
}

func TestUpdateStatusKeepsErrorOnlyForErrorState(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.AddItem(content.Article)

	require.NoError(t, s.UpdateStatus(id, StatusError, "Validation failed"))
	it, _ := s.Item(id)
	assert.Equal(t, "Validation failed", it.Error)

	require.NoError(t, s.UpdateStatus(id, StatusSaving, "ignored"))
	it, _ = s.Item(id)
	assert.Equal(t, StatusSaving, it.Status)
	assert.Empty(t, it.Error)
}

func TestClearSavedReselects(t *testing.T) {
	s, _ := newTestStore(t)
	a := s.AddItem(content.Blog)
	b := s.AddItem(content.Blog)
	c := s.AddItem(content.Blog)
	require.NoError(t, s.UpdateStatus(a, StatusSaved, ""))
	require.NoError(t, s.UpdateStatus(c, StatusSaved, ""))

	assert.Equal(t, 2, s.ClearSaved())
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, b, items[0].ID)
	assert.Equal(t, b, s.ActiveID())
}

func TestClearAll(t *testing.T) {
	s, rec := newTestStore(t)
	s.AddItem(content.Blog)
	s.AddItem(content.Video)
	s.ClearAll()

	assert.Empty(t, s.Items())
	assert.Empty(t, s.ActiveID())
	assert.NotNil(t, rec.last())
	assert.Empty(t, rec.last())
}

func TestCounts(t *testing.T) {
	s, _ := newTestStore(t)
	a := s.AddItem(content.Blog)
	b := s.AddItem(content.Blog)
	c := s.AddItem(content.Blog)
	s.AddItem(content.Blog)
	s.UpdateStatus(a, StatusSaved, "")
	s.UpdateStatus(b, StatusError, "boom")
	s.UpdateStatus(c, StatusSaving, "")

	assert.Equal(t, Counts{Total: 4, Draft: 1, Saving: 1, Saved: 1, Error: 1}, s.Counts())
}

func TestTitleFallback(t *testing.T) {
	it := Item{Type: content.Resource, FormData: map[string]any{"name": "  "}}
	assert.Equal(t, "New Resource", Title(it))

	it.FormData["name"] = "React"
	assert.Equal(t, "React", Title(it))

	blog := Item{Type: content.Blog, FormData: map[string]any{"title": "Hello World"}}
	assert.Equal(t, "Hello World", Title(blog))
}

func TestPersistHappensAfterCommit(t *testing.T) {
	s, rec := newTestStore(t)
	id := s.AddItem(content.Blog)
	s.UpdateFormData(id, map[string]any{"title": "After"})

	snap := rec.last()
	require.Len(t, snap, 1)
	assert.Equal(t, "After", snap[0].FormData["title"])
}

func TestNewStoreSelectsFirstLoadedItem(t *testing.T) {
	rec := &recorder{initial: []Item{
		{ID: "1-a", Type: content.Blog, Status: StatusDraft, FormData: map[string]any{}},
		{ID: "2-b", Type: content.Video, Status: StatusError, Error: "x", FormData: map[string]any{}},
	}}
	s := NewStore(context.Background(), rec)
	assert.Equal(t, "1-a", s.ActiveID())
	assert.Len(t, s.Items(), 2)
}

func TestClosedStoreDiscardsMutations(t *testing.T) {
	s, rec := newTestStore(t)
	id := s.AddItem(content.Blog)
	saves := len(rec.snapshots)
	s.Close()

	assert.NoError(t, s.UpdateStatus(id, StatusSaved, ""))
	assert.Empty(t, s.AddItem(content.Blog))
	it, _ := s.Item(id)
	assert.Equal(t, StatusDraft, it.Status)
	assert.Equal(t, saves, len(rec.snapshots))
	assert.True(t, s.Closed())
}

func TestClaimOnlyPendingItems(t *testing.T) {
	s, rec := newTestStore(t)
	draft := s.AddItem(content.Blog)
	failed := s.AddItem(content.Blog)
	require.NoError(t, s.UpdateStatus(failed, StatusError, "boom"))

	it, err := s.Claim(draft)
	require.NoError(t, err)
	assert.Equal(t, StatusSaving, it.Status)
	assert.Equal(t, StatusSaving, rec.last()[0].Status)

	_, err = s.Claim(draft)
	assert.ErrorIs(t, err, ErrNotPending)

	it, err = s.Claim(failed)
	require.NoError(t, err)
	assert.Empty(t, it.Error)

	require.NoError(t, s.UpdateStatus(failed, StatusSaved, ""))
	_, err = s.Claim(failed)
	assert.ErrorIs(t, err, ErrNotPending)

	_, err = s.Claim("missing")
	assert.ErrorIs(t, err, ErrItemNotFound)

	s.Close()
	_, err = s.Claim(draft)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClaimIsExclusiveUnderContention(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.AddItem(content.Blog)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Claim(id); err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, won)
}
