package pubqueue

import (
	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/listing"
	"github.com/eringen/pubqueue/queue"
)

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	Keywords    string
	JSONLD      string
}

// Image is an uploaded media asset.
type Image struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}

// Dashboard is the admin list view of persisted entries.
type Dashboard struct {
	Entries   []content.Entry
	Type      content.Type // "" lists every type
	Filters   listing.Filters
	SortField string
	SortDir   listing.Direction
	Selected  []string
	Message   string
	CSRFToken string
}

// QueueRow is one queue item prepared for display.
type QueueRow struct {
	Item   queue.Item
	Title  string
	Label  string
	Active bool
}

// QueuePage is the admin staging view.
type QueuePage struct {
	Rows      []QueueRow
	Active    *QueueRow
	Fields    []content.Field
	Counts    queue.Counts
	Types     []content.Definition
	Message   string
	CSRFToken string
}
