package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/kv"
)

type failingKV struct{ kv.Memory }

func (*failingKV) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (*failingKV) Put(context.Context, string, []byte) error {
	return errors.New("disk on fire")
}

func TestAdapterMissingKeyIsEmpty(t *testing.T) {
	a := NewAdapter(kv.NewMemory(), "", nil)
	assert.Empty(t, a.Load(context.Background()))
}

func TestAdapterCorruptDataIsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	require.NoError(t, mem.Put(ctx, DefaultKey, []byte("{not json")))

	assert.Empty(t, NewAdapter(mem, "", nil).Load(ctx))
}

func TestAdapterStorageFailuresAreSwallowed(t *testing.T) {
	a := NewAdapter(&failingKV{}, "", nil)
	assert.NotPanics(t, func() {
		a.Save(context.Background(), []Item{{ID: "1", Type: content.Blog}})
	})
	assert.Empty(t, a.Load(context.Background()))
}

func TestAdapterRoundTripNormalisesSaving(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(kv.NewMemory(), "", nil)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	published := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	a.Save(ctx, []Item{
		{ID: "1-a", Type: content.Blog, Status: StatusSaving, CreatedAt: created,
			FormData: map[string]any{"title": "In flight", "publishedAt": published}},
		{ID: "2-b", Type: content.Video, Status: StatusError, Error: "Validation failed", CreatedAt: created,
			FormData: map[string]any{"title": "Broken"}},
		{ID: "3-c", Type: content.Experience, Status: StatusSaved, Error: "stale", CreatedAt: created,
			FormData: map[string]any{"startDate": "2020-06-01"}},
	})

	items := a.Load(ctx)
	require.Len(t, items, 3)

	assert.Equal(t, StatusDraft, items[0].Status)
	assert.True(t, created.Equal(items[0].CreatedAt))
	pub, ok := items[0].FormData["publishedAt"].(time.Time)
	require.True(t, ok, "publishedAt should be restored as time.Time")
	assert.True(t, published.Equal(pub))

	assert.Equal(t, StatusError, items[1].Status)
	assert.Equal(t, "Validation failed", items[1].Error)

	assert.Empty(t, items[2].Error)
	start, ok := items[2].FormData["startDate"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2020, start.Year())
}

func TestAdapterDropsUnusableItems(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	require.NoError(t, mem.Put(ctx, DefaultKey, []byte(`[
		{"id":"1","type":"blogs","status":"draft","formData":{}},
		{"id":"1","type":"blogs","status":"draft","formData":{}},
		{"id":"","type":"blogs","status":"draft"},
		{"id":"2","type":"podcasts","status":"draft"},
		{"id":"3","type":"authors","status":"weird"}
	]`)))

	items := NewAdapter(mem, "", nil).Load(ctx)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "3", items[1].ID)
	assert.Equal(t, StatusDraft, items[1].Status)
	assert.NotNil(t, items[1].FormData)
}

func TestStoreSurvivesReload(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()

	s := NewStore(ctx, NewAdapter(mem, "", nil))
	id := s.AddItem(content.Article)
	require.NoError(t, s.UpdateFormData(id, map[string]any{"title": "Persisted"}))
	require.NoError(t, s.UpdateStatus(id, StatusSaving, ""))

	reloaded := NewStore(ctx, NewAdapter(mem, "", nil))
	it, ok := reloaded.Item(id)
	require.True(t, ok)
	assert.Equal(t, "Persisted", it.FormData["title"])
	assert.Equal(t, StatusDraft, it.Status)
	assert.Equal(t, id, reloaded.ActiveID())
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2024-05-06", "2024-05-06T10:30", "2024-05-06T10:30:00Z"} {
		got, ok := ParseDate(in)
		require.Truef(t, ok, "ParseDate(%q)", in)
		assert.Equal(t, 2024, got.Year())
	}
	_, ok := ParseDate("yesterday")
	assert.False(t, ok)
}
