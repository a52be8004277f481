package content

import "time"

// Entry is a persisted content item as shown by list views and public pages.
// Types without a title use Name; types without an excerpt use Description.
type Entry struct {
	ID          string
	Type        Type
	Slug        string
	Title       string
	Name        string
	Excerpt     string
	Description string
	Body        string
	Tags        []string
	Status      string
	ResourceID  string
	CategoryID  string
	Views       int
	Likes       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
	Data        map[string]any
}

// DisplayTitle returns Title, falling back to Name.
func (e Entry) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}
	return e.Name
}

// Summary returns Excerpt, falling back to Description.
func (e Entry) Summary() string {
	if e.Excerpt != "" {
		return e.Excerpt
	}
	return e.Description
}

// Published reports whether the entry is publicly visible.
func (e Entry) Published() bool {
	return e.Status == "published"
}
