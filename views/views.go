// Package views provides the default HTML pages of a pubqueue site.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/pubqueue"
	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/listing"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

var statuses = []string{"draft", "published", "archived"}

var sortFields = []string{
	listing.FieldCreatedAt,
	listing.FieldUpdatedAt,
	listing.FieldPublishedAt,
	listing.FieldTitle,
	listing.FieldViews,
	listing.FieldLikes,
}

// page is the data every template receives. Only the fields a page uses
// are set.
type page struct {
	Site pubqueue.SiteConfig
	Meta pubqueue.PageMeta
	CSRF string

	Entries   []content.Entry
	Tags      []string
	ActiveTag string

	Entry   content.Entry
	Related []content.Entry

	ShowError bool

	D          pubqueue.Dashboard
	Types      []content.Definition
	Statuses   []string
	SortFields []string

	P pubqueue.QueuePage

	Images []pubqueue.Image
}

// New returns the default view set for site.
func New(site pubqueue.SiteConfig) pubqueue.ViewFuncs {
	adminMeta := func(title string) pubqueue.PageMeta {
		return pubqueue.PageMeta{Title: title + " | " + site.Name}
	}
	return pubqueue.ViewFuncs{
		Home: func(entries []content.Entry, activeTag string, tags []string, meta pubqueue.PageMeta) templ.Component {
			return render("home", page{Site: site, Meta: meta, Entries: entries, Tags: tags, ActiveTag: activeTag})
		},
		Entry: func(entry content.Entry, related []content.Entry, meta pubqueue.PageMeta) templ.Component {
			return render("entry", page{Site: site, Meta: meta, Entry: entry, Related: related})
		},
		AdminLogin: func(showError bool, csrfToken string) templ.Component {
			return render("login", page{Site: site, Meta: adminMeta("Log in"), ShowError: showError, CSRF: csrfToken})
		},
		AdminDashboard: func(d pubqueue.Dashboard) templ.Component {
			return render("dashboard", page{
				Site:       site,
				Meta:       adminMeta("Content"),
				CSRF:       d.CSRFToken,
				D:          d,
				Types:      definitions(),
				Statuses:   statuses,
				SortFields: sortFields,
			})
		},
		AdminQueue: func(p pubqueue.QueuePage) templ.Component {
			return render("queue", page{Site: site, Meta: adminMeta("Queue"), CSRF: p.CSRFToken, P: p})
		},
		AdminMedia: func(images []pubqueue.Image, csrfToken string) templ.Component {
			return render("media", page{Site: site, Meta: adminMeta("Media"), CSRF: csrfToken, Images: images})
		},
		NotFound: func() templ.Component {
			return render("notfound", page{Site: site, Meta: adminMeta("Not found")})
		},
		ServerError: func() templ.Component {
			return render("servererror", page{Site: site, Meta: adminMeta("Error")})
		},
	}
}

func render(name string, p page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, name, p)
	})
}

func definitions() []content.Definition {
	types := content.All()
	defs := make([]content.Definition, 0, len(types))
	for _, t := range types {
		defs = append(defs, content.Lookup(t))
	}
	return defs
}
