package views

import (
	"html/template"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/eringen/pubqueue"
	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/markdown"
	"github.com/eringen/pubqueue/queue"
)

var funcs = template.FuncMap{
	"date":           formatDate,
	"entryPath":      pubqueue.EntryPath,
	"dataURL":        pubqueue.DataURL,
	"markdown":       renderMarkdown,
	"jsonld":         func(s string) template.JS { return template.JS(s) },
	"selected":       func(ids []string, id string) bool { return slices.Contains(ids, id) },
	"adminURL":       adminURL,
	"queueURL":       queueURL,
	"mediaDeleteURL": mediaDeleteURL,
	"fields":         fieldViews,
}

// formatDate accepts time.Time or *time.Time and returns YYYY-MM-DD.
func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(time.DateOnly)
	case *time.Time:
		if t == nil {
			return ""
		}
		return formatDate(*t)
	}
	return ""
}

// renderMarkdown trusts goldmark output because raw HTML is not enabled.
func renderMarkdown(md string) template.HTML {
	return template.HTML(markdown.String(md))
}

func adminURL(path, query string) template.URL {
	if query == "" {
		return template.URL(path)
	}
	return template.URL(path + "?" + query)
}

func queueURL(id, action string) template.URL {
	return template.URL("/admin/queue/" + url.PathEscape(id) + "/" + action + "/")
}

func mediaDeleteURL(filename string) template.URL {
	return template.URL("/admin/media/" + url.PathEscape(filename) + "/delete/")
}

// seoInput is one input of the SEO fieldset.
type seoInput struct {
	Key   string
	Label string
	Value string
}

var seoLabels = []seoInput{
	{Key: "metaTitle", Label: "Meta title"},
	{Key: "metaDescription", Label: "Meta description"},
	{Key: "ogImage", Label: "Social image"},
	{Key: "keywords", Label: "Keywords"},
}

// fieldView is a form field with its current value rendered for an input.
type fieldView struct {
	Field   content.Field
	Kind    string
	Text    string
	Checked bool
	SEO     []seoInput
}

func fieldViews(it queue.Item, fields []content.Field) []fieldView {
	views := make([]fieldView, 0, len(fields))
	for _, f := range fields {
		v := fieldView{Field: f, Kind: string(f.Kind)}
		raw := it.FormData[f.Name]
		switch f.Kind {
		case content.KindSEO:
			seo, _ := raw.(map[string]any)
			for _, in := range seoLabels {
				in.Value = inputText(seo[in.Key])
				v.SEO = append(v.SEO, in)
			}
		case content.KindBool:
			v.Checked, _ = raw.(bool)
		default:
			v.Text = inputText(raw)
		}
		views = append(views, v)
	}
	return views
}

func inputText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time, *time.Time:
		return formatDate(x)
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			parts = append(parts, inputText(p))
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
