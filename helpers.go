package pubqueue

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/markdown"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// EntryPath is the public path of an entry.
func EntryPath(e content.Entry) string {
	return "/" + string(e.Type) + "/" + url.PathEscape(e.Slug) + "/"
}

// FilterRelated finds entries that share at least one tag with current.
func FilterRelated(current content.Entry, entries []content.Entry) []content.Entry {
	tagSet := make(map[string]struct{})
	for _, t := range current.Tags {
		if tag := normalizeTag(t); tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	var related []content.Entry
	for _, e := range entries {
		if e.ID == current.ID {
			continue
		}
		for _, t := range e.Tags {
			if _, ok := tagSet[normalizeTag(t)]; ok {
				related = append(related, e)
				break
			}
		}
	}
	return related
}

// JoinTags joins tags with ", ".
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// schemaType maps a content type to its schema.org type.
func schemaType(t content.Type) string {
	switch t {
	case content.Blog:
		return "BlogPosting"
	case content.Article:
		return "Article"
	case content.Course:
		return "Course"
	case content.Video:
		return "VideoObject"
	case content.Author:
		return "Person"
	default:
		return "CreativeWork"
	}
}

// EntryJsonLD returns a JSON-LD string describing a published entry.
func EntryJsonLD(e content.Entry, cfg SiteConfig) string {
	entryURL := BuildURL(cfg.URL, string(e.Type), e.Slug)
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       schemaType(e.Type),
		"name":        e.DisplayTitle(),
		"description": e.Summary(),
		"url":         entryURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   entryURL,
		},
	}
	if e.Type == content.Blog || e.Type == content.Article {
		data["headline"] = e.DisplayTitle()
	}
	if e.PublishedAt != nil {
		data["datePublished"] = e.PublishedAt.Format("2006-01-02")
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	if len(e.Tags) > 0 {
		data["keywords"] = strings.Join(e.Tags, ", ")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// EntryMeta builds page metadata for an entry. Values from its SEO record
// win over the entry's own title and summary.
func EntryMeta(e content.Entry, seo map[string]any, cfg SiteConfig) PageMeta {
	meta := PageMeta{
		Title:       e.DisplayTitle(),
		Description: e.Summary(),
		URL:         BuildURL(cfg.URL, string(e.Type), e.Slug),
		OGType:      "article",
		Keywords:    JoinTags(e.Tags),
		JSONLD:      EntryJsonLD(e, cfg),
	}
	meta.Image = DataURL(e, "featuredImage")
	if meta.Image == "" {
		meta.Image = DataURL(e, "thumbnailUrl")
	}
	if v := seoString(seo, "metaTitle"); v != "" {
		meta.Title = v
	}
	if v := seoString(seo, "metaDescription"); v != "" {
		meta.Description = v
	}
	if v := markdown.SafeURL(seoString(seo, "ogImage")); v != "" {
		meta.Image = v
	}
	switch kw := seo["keywords"].(type) {
	case string:
		if strings.TrimSpace(kw) != "" {
			meta.Keywords = kw
		}
	case []any:
		var words []string
		for _, w := range kw {
			if s, ok := w.(string); ok && s != "" {
				words = append(words, s)
			}
		}
		if len(words) > 0 {
			meta.Keywords = JoinTags(words)
		}
	}
	return meta
}

// DataURL returns the URL stored under key in the entry data, or "" when
// it is missing or not a safe link target.
func DataURL(e content.Entry, key string) string {
	s, _ := e.Data[key].(string)
	return markdown.SafeURL(s)
}

func seoString(seo map[string]any, key string) string {
	s, _ := seo[key].(string)
	return strings.TrimSpace(s)
}
