package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pubqueue/content"
)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 12, 0, 0, 0, time.UTC)
}

func fixtures() []content.Entry {
	pub := day(9)
	return []content.Entry{
		{ID: "1", Type: content.Blog, Title: "Learning React", Status: "published", ResourceID: "r1", CategoryID: "c1", CreatedAt: day(1), Views: 10, Likes: 3, PublishedAt: &pub},
		{ID: "2", Type: content.Article, Title: "Go concurrency", Excerpt: "Channels beyond react patterns", Status: "draft", ResourceID: "r2", CategoryID: "c1", CreatedAt: day(5), Views: 50},
		{ID: "3", Type: content.Resource, Name: "Kubernetes", Description: "Orchestration", Status: "published", ResourceID: "r1", CategoryID: "c2", CreatedAt: day(10), Views: 10},
		{ID: "4", Type: content.Video, Title: "apple pie", Status: "archived", CreatedAt: day(15), Likes: 8},
	}
}

func ids(entries []content.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestFilterSearch(t *testing.T) {
	got := Filter(fixtures(), Filters{Search: "REACT"})
	assert.Equal(t, []string{"1", "2"}, ids(got))

	got = Filter(fixtures(), Filters{Search: "orchestr"})
	assert.Equal(t, []string{"3"}, ids(got), "description is searched for name-based types")
}

func TestFilterAllSentinelSkips(t *testing.T) {
	got := Filter(fixtures(), Filters{Status: All, ResourceID: All, CategoryID: ""})
	assert.Len(t, got, 4)
}

func TestFilterCombinesCriteria(t *testing.T) {
	got := Filter(fixtures(), Filters{Status: "published", ResourceID: "r1"})
	assert.Equal(t, []string{"1", "3"}, ids(got))

	got = Filter(fixtures(), Filters{Status: "published", CategoryID: "c2"})
	assert.Equal(t, []string{"3"}, ids(got))
}

func TestFilterDateRangeInclusive(t *testing.T) {
	from, to := day(5), day(10)
	got := Filter(fixtures(), Filters{From: &from, To: &to})
	assert.Equal(t, []string{"2", "3"}, ids(got))

	got = Filter(fixtures(), Filters{From: &to})
	assert.Equal(t, []string{"3", "4"}, ids(got))
}

func TestSortTitle(t *testing.T) {
	asc := Sort(fixtures(), FieldTitle, Asc)
	assert.Equal(t, []string{"4", "2", "3", "1"}, ids(asc))

	desc := Sort(fixtures(), FieldTitle, Desc)
	assert.Equal(t, []string{"1", "3", "2", "4"}, ids(desc))
}

func TestSortIsStableForEqualKeys(t *testing.T) {
	got := Sort(fixtures(), FieldViews, Asc)
	assert.Equal(t, []string{"4", "1", "3", "2"}, ids(got))

	got = Sort(fixtures(), FieldViews, Desc)
	assert.Equal(t, []string{"2", "1", "3", "4"}, ids(got))
}

func TestSortMissingValuesActAsZero(t *testing.T) {
	got := Sort(fixtures(), FieldPublishedAt, Desc)
	assert.Equal(t, "1", got[0].ID)

	got = Sort(fixtures(), FieldLikes, Desc)
	assert.Equal(t, []string{"4", "1", "2", "3"}, ids(got))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	in := fixtures()
	Sort(in, FieldCreatedAt, Desc)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(in))

	got := Sort(in, "bogus", Asc)
	assert.Equal(t, ids(in), ids(got))
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Asc, ParseDirection("ASC"))
	assert.Equal(t, Desc, ParseDirection(""))
}

func TestSelectionToggle(t *testing.T) {
	var s Selection
	order := []string{"a", "b", "c", "d", "e"}

	s.Toggle("b", order, false)
	assert.True(t, s.Has("b"))
	s.Toggle("b", order, false)
	assert.False(t, s.Has("b"))
	assert.Equal(t, 0, s.Len())
}

func TestSelectionRange(t *testing.T) {
	var s Selection
	order := []string{"a", "b", "c", "d", "e"}

	s.Toggle("d", order, false)
	s.Toggle("b", order, true)
	assert.Equal(t, []string{"b", "c", "d"}, s.IDs(order))

	s.Toggle("e", order, true)
	assert.Equal(t, []string{"b", "c", "d", "e"}, s.IDs(order))
}

func TestSelectionRangeWithoutAnchorToggles(t *testing.T) {
	var s Selection
	order := []string{"a", "b"}
	s.Toggle("b", order, true)
	require.Equal(t, 1, s.Len())

	s.SelectAll(order)
	assert.Equal(t, 2, s.Len())
	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.IDs(order))
}
