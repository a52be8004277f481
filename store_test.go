package pubqueue

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/submit"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "content.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// prepared runs the submission pipeline's payload shaping over a form.
func prepared(t content.Type, form map[string]any) map[string]any {
	data := content.Defaults(t)
	for k, v := range form {
		data[k] = v
	}
	payload, _ := submit.Prepare(t, data)
	return payload
}

func TestCreateBlog(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	e, err := s.Create(ctx, content.Blog, prepared(content.Blog, map[string]any{
		"title":   "Hello World",
		"content": "# Hi",
		"tags":    "Go, Web",
		"status":  "published",
	}))
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, content.Blog, e.Type)
	assert.Equal(t, "hello-world", e.Slug)
	assert.Equal(t, "Hello World", e.DisplayTitle())
	assert.Equal(t, []string{"go", "web"}, e.Tags)
	assert.Equal(t, "# Hi", e.Body)
	assert.True(t, e.Published())
	require.NotNil(t, e.PublishedAt)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestCreateDraftHasNoPublishDate(t *testing.T) {
	s := setupTestStore(t)
	e, err := s.Create(context.Background(), content.Article, prepared(content.Article, map[string]any{
		"title":   "Draft",
		"content": "body",
	}))
	require.NoError(t, err)
	assert.Equal(t, "draft", e.Status)
	assert.Nil(t, e.PublishedAt)
}

func TestCreateValidation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, content.Blog, prepared(content.Blog, map[string]any{"title": "  "}))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "title: cannot be blank")
	assert.Contains(t, err.Error(), "content: cannot be blank")

	_, err = s.Create(ctx, content.Blog, prepared(content.Blog, map[string]any{
		"title": "x", "content": "y", "status": "bogus",
	}))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "status: must be one of draft, published, archived")

	_, err = s.Create(ctx, content.Course, prepared(content.Course, map[string]any{
		"title": "Go 101", "description": "d", "price": "cheap",
	}))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "price: must be a number")

	_, err = s.Create(ctx, content.Experience, prepared(content.Experience, map[string]any{
		"title": "Engineer", "company": "Acme", "startDate": "someday",
	}))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "startDate: must be a valid date")

	entries, err := s.ListEntries(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateWithoutStatusFieldPublishes(t *testing.T) {
	s := setupTestStore(t)
	e, err := s.Create(context.Background(), content.Experience, prepared(content.Experience, map[string]any{
		"title": "Engineer", "company": "Acme", "startDate": "2024-02-01",
	}))
	require.NoError(t, err)
	assert.True(t, e.Published())
	assert.Empty(t, e.Slug, "experiences have no slug")
	assert.Equal(t, false, e.Data["current"])
}

func TestCreateDuplicateSlug(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	form := map[string]any{"title": "Same", "content": "c"}

	_, err := s.Create(ctx, content.Blog, prepared(content.Blog, form))
	require.NoError(t, err)
	_, err = s.Create(ctx, content.Blog, prepared(content.Blog, form))
	require.ErrorIs(t, err, ErrDuplicateSlug)

	// Slugs are unique per type only.
	_, err = s.Create(ctx, content.Article, prepared(content.Article, form))
	require.NoError(t, err)
}

func TestCreatorsCoverEveryType(t *testing.T) {
	s := setupTestStore(t)
	creators := s.Creators()
	for _, typ := range content.All() {
		assert.Contains(t, creators, typ)
	}

	created, err := creators[content.Resource](context.Background(), prepared(content.Resource, map[string]any{"name": "React"}))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "react", created.Fields["slug"])
}

func TestSEOUpsert(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.GetSEO(ctx, content.Blog, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	rec := submit.SEORecord{EntityType: content.Blog, EntityID: "e1", Data: map[string]any{"metaTitle": "One"}}
	require.NoError(t, s.UpsertSEO(ctx, rec))
	rec.Data = map[string]any{"metaTitle": "Two"}
	require.NoError(t, s.UpsertSEO(ctx, rec))

	got, err := s.GetSEO(ctx, content.Blog, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Two", got["metaTitle"])
}

func TestListAndDeleteEntries(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	a, err := s.Create(ctx, content.Blog, prepared(content.Blog, map[string]any{"title": "A", "content": "c", "status": "published", "tags": "go"}))
	require.NoError(t, err)
	b, err := s.Create(ctx, content.Blog, prepared(content.Blog, map[string]any{"title": "B", "content": "c"}))
	require.NoError(t, err)
	r, err := s.Create(ctx, content.Resource, prepared(content.Resource, map[string]any{"name": "React"}))
	require.NoError(t, err)
	require.NoError(t, s.UpsertSEO(ctx, submit.SEORecord{EntityType: content.Blog, EntityID: a.ID, Data: map[string]any{"metaTitle": "A"}}))

	all, err := s.ListEntries(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{r.ID, b.ID, a.ID}, entryIDs(all), "newest first")

	blogs, err := s.ListEntries(ctx, content.Blog)
	require.NoError(t, err)
	assert.Len(t, blogs, 2)

	published, err := s.ListPublished(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, r.ID}, entryIDs(published))

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, tags)

	n, err := s.DeleteEntries(ctx, []string{a.ID, "missing", b.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.GetEntry(ctx, a.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetSEO(ctx, content.Blog, a.ID)
	require.ErrorIs(t, err, ErrNotFound, "seo goes with its entry")
}

func TestViewsAndLikes(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	e, err := s.Create(ctx, content.Video, prepared(content.Video, map[string]any{"title": "Clip", "videoUrl": "https://example.com/v"}))
	require.NoError(t, err)

	require.NoError(t, s.IncrementViews(ctx, e.ID))
	require.NoError(t, s.IncrementViews(ctx, e.ID))
	likes, err := s.Like(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)

	got, err := s.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Views)
	assert.Equal(t, 1, got.Likes)

	_, err = s.Like(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestImages(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	img := Image{Filename: "a.jpg", OriginalName: "A.png", Width: 10, Height: 5, Size: 123, UploadedAt: "2026-01-01T00:00:00Z"}
	require.NoError(t, s.SaveImage(ctx, img))

	exists, err := s.ImageExists(ctx, "a.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	images, err := s.ListImages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Image{img}, images)

	require.NoError(t, s.DeleteImage(ctx, "a.jpg"))
	images, err = s.ListImages(ctx)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"go", "web"}, ParseTags(",go,web,"))
	assert.Nil(t, ParseTags(","))
	assert.Nil(t, ParseTags(""))
}

func TestEntryCache(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	c := NewEntryCache(s, time.Hour)

	_, err := s.Create(ctx, content.Blog, prepared(content.Blog, map[string]any{"title": "Go", "content": "c", "status": "published", "tags": "go"}))
	require.NoError(t, err)

	entries, err := c.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = s.Create(ctx, content.Article, prepared(content.Article, map[string]any{"title": "Web", "content": "c", "status": "published", "tags": "web"}))
	require.NoError(t, err)
	entries, err = c.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "served from cache until invalidated")

	c.Invalidate()
	entries, err = c.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	tagged, err := c.List(ctx, " WEB ")
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, content.Article, tagged[0].Type)

	blogs, err := c.List(ctx, "", content.Blog)
	require.NoError(t, err)
	require.Len(t, blogs, 1)

	got, err := c.Get(ctx, content.Article, "web")
	require.NoError(t, err)
	assert.Equal(t, "Web", got.Title)

	_, err = c.Get(ctx, content.Blog, "web")
	require.ErrorIs(t, err, ErrNotFound)
}
