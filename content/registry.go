// Package content describes the content types managed by pubqueue: their
// labels, typed form schemas and the default form values a new draft starts with.
package content

import (
	"fmt"
	"strings"
)

// Type identifies one of the content kinds. The set is closed.
type Type string

const (
	Blog       Type = "blogs"
	Article    Type = "articles"
	Course     Type = "courses"
	Video      Type = "videos"
	Resource   Type = "resources"
	Experience Type = "experiences"
	Author     Type = "authors"
)

// Kind is the value shape of a form field.
type Kind string

const (
	KindText      Kind = "text"
	KindRichText  Kind = "richtext"
	KindSlug      Kind = "slug"
	KindTags      Kind = "tags"
	KindNumber    Kind = "number"
	KindBool      Kind = "bool"
	KindDate      Kind = "date"
	KindSelect    Kind = "select"
	KindReference Kind = "reference"
	KindSEO       Kind = "seo"
)

// Field describes one form field of a content type.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
	Default  any
	Options  []string // KindSelect only
}

// Definition is the schema of one content type.
type Definition struct {
	Type     Type
	Singular string
	Plural   string
	Fields   []Field
	SEO      bool
}

// Status values shared by publishable content.
var statusOptions = []string{"draft", "published", "archived"}

var seoField = Field{Name: "seo", Label: "SEO", Kind: KindSEO}

var registry = map[Type]Definition{
	Blog: {
		Type: Blog, Singular: "Blog", Plural: "Blogs", SEO: true,
		Fields: []Field{
			{Name: "title", Label: "Title", Kind: KindText, Required: true},
			{Name: "slug", Label: "Slug", Kind: KindSlug},
			{Name: "excerpt", Label: "Excerpt", Kind: KindText},
			{Name: "content", Label: "Content", Kind: KindRichText, Required: true},
			{Name: "tags", Label: "Tags", Kind: KindTags},
			{Name: "status", Label: "Status", Kind: KindSelect, Required: true, Default: "draft", Options: statusOptions},
			{Name: "featuredImage", Label: "Featured image", Kind: KindText},
			{Name: "authorId", Label: "Author", Kind: KindReference},
			{Name: "resourceId", Label: "Resource", Kind: KindReference},
			{Name: "categoryId", Label: "Category", Kind: KindReference},
			{Name: "publishedAt", Label: "Published at", Kind: KindDate},
			seoField,
		},
	},
	Article: {
		Type: Article, Singular: "Article", Plural: "Articles", SEO: true,
		Fields: []Field{
			{Name: "title", Label: "Title", Kind: KindText, Required: true},
			{Name: "slug", Label: "Slug", Kind: KindSlug},
			{Name: "excerpt", Label: "Excerpt", Kind: KindText},
			{Name: "content", Label: "Content", Kind: KindRichText, Required: true},
			{Name: "tags", Label: "Tags", Kind: KindTags},
			{Name: "status", Label: "Status", Kind: KindSelect, Required: true, Default: "draft", Options: statusOptions},
			{Name: "readingTime", Label: "Reading time (min)", Kind: KindNumber},
			{Name: "authorId", Label: "Author", Kind: KindReference},
			{Name: "resourceId", Label: "Resource", Kind: KindReference},
			{Name: "categoryId", Label: "Category", Kind: KindReference},
			{Name: "publishedAt", Label: "Published at", Kind: KindDate},
			seoField,
		},
	},
	Course: {
		Type: Course, Singular: "Course", Plural: "Courses", SEO: true,
		Fields: []Field{
			{Name: "title", Label: "Title", Kind: KindText, Required: true},
			{Name: "slug", Label: "Slug", Kind: KindSlug},
			{Name: "description", Label: "Description", Kind: KindRichText, Required: true},
			{Name: "price", Label: "Price", Kind: KindNumber},
			{Name: "level", Label: "Level", Kind: KindSelect, Default: "beginner", Options: []string{"beginner", "intermediate", "advanced"}},
			{Name: "durationHours", Label: "Duration (hours)", Kind: KindNumber},
			{Name: "tags", Label: "Tags", Kind: KindTags},
			{Name: "status", Label: "Status", Kind: KindSelect, Required: true, Default: "draft", Options: statusOptions},
			{Name: "instructorId", Label: "Instructor", Kind: KindReference},
			{Name: "resourceId", Label: "Resource", Kind: KindReference},
			{Name: "categoryId", Label: "Category", Kind: KindReference},
			seoField,
		},
	},
	Video: {
		Type: Video, Singular: "Video", Plural: "Videos", SEO: true,
		Fields: []Field{
			{Name: "title", Label: "Title", Kind: KindText, Required: true},
			{Name: "slug", Label: "Slug", Kind: KindSlug},
			{Name: "description", Label: "Description", Kind: KindRichText},
			{Name: "videoUrl", Label: "Video URL", Kind: KindText, Required: true},
			{Name: "thumbnailUrl", Label: "Thumbnail URL", Kind: KindText},
			{Name: "durationSeconds", Label: "Duration (s)", Kind: KindNumber},
			{Name: "tags", Label: "Tags", Kind: KindTags},
			{Name: "status", Label: "Status", Kind: KindSelect, Required: true, Default: "draft", Options: statusOptions},
			{Name: "resourceId", Label: "Resource", Kind: KindReference},
			{Name: "categoryId", Label: "Category", Kind: KindReference},
			seoField,
		},
	},
	Resource: {
		Type: Resource, Singular: "Resource", Plural: "Resources", SEO: true,
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: KindText, Required: true},
			{Name: "slug", Label: "Slug", Kind: KindSlug},
			{Name: "description", Label: "Description", Kind: KindText},
			{Name: "icon", Label: "Icon", Kind: KindText},
			{Name: "color", Label: "Color", Kind: KindText, Default: "#3b82f6"},
			{Name: "order", Label: "Order", Kind: KindNumber, Default: "0"},
			{Name: "status", Label: "Status", Kind: KindSelect, Required: true, Default: "published", Options: statusOptions},
			seoField,
		},
	},
	Experience: {
		Type: Experience, Singular: "Experience", Plural: "Experiences",
		Fields: []Field{
			{Name: "title", Label: "Role", Kind: KindText, Required: true},
			{Name: "company", Label: "Company", Kind: KindText, Required: true},
			{Name: "location", Label: "Location", Kind: KindText},
			{Name: "startDate", Label: "Start date", Kind: KindDate, Required: true},
			{Name: "endDate", Label: "End date", Kind: KindDate},
			{Name: "current", Label: "Current position", Kind: KindBool, Default: false},
			{Name: "description", Label: "Description", Kind: KindRichText},
			{Name: "tags", Label: "Skills", Kind: KindTags},
			{Name: "order", Label: "Order", Kind: KindNumber, Default: "0"},
		},
	},
	Author: {
		Type: Author, Singular: "Author", Plural: "Authors",
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: KindText, Required: true},
			{Name: "slug", Label: "Slug", Kind: KindSlug},
			{Name: "email", Label: "Email", Kind: KindText},
			{Name: "bio", Label: "Bio", Kind: KindRichText},
			{Name: "avatarUrl", Label: "Avatar URL", Kind: KindText},
			{Name: "website", Label: "Website", Kind: KindText},
			{Name: "twitter", Label: "Twitter", Kind: KindText},
		},
	},
}

// order is the display order of the closed type set.
var order = []Type{Blog, Article, Course, Video, Resource, Experience, Author}

// All returns every content type in display order.
func All() []Type {
	out := make([]Type, len(order))
	copy(out, order)
	return out
}

// Lookup returns the definition of t. Types come from a closed set, so an
// unknown type is a programming error and panics.
func Lookup(t Type) Definition {
	def, ok := registry[t]
	if !ok {
		panic(fmt.Sprintf("content: unknown type %q", string(t)))
	}
	return def
}

// Valid reports whether t belongs to the closed set.
func (t Type) Valid() bool {
	_, ok := registry[t]
	return ok
}

// Parse validates untrusted input (form values, CLI arguments) as a Type.
// Singular spellings such as "blog" are accepted.
func Parse(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if t := Type(s); t.Valid() {
		return t, nil
	}
	if t := Type(s + "s"); t.Valid() {
		return t, nil
	}
	return "", fmt.Errorf("content: unknown type %q", s)
}

// Defaults returns a new default form-data map for t.
func Defaults(t Type) map[string]any {
	def := Lookup(t)
	data := make(map[string]any, len(def.Fields))
	for _, f := range def.Fields {
		data[f.Name] = f.zeroValue()
	}
	return data
}

func (f Field) zeroValue() any {
	if f.Default != nil {
		return f.Default
	}
	switch f.Kind {
	case KindBool:
		return false
	case KindSEO:
		return map[string]any{"metaTitle": "", "metaDescription": "", "ogImage": "", "keywords": ""}
	default:
		return ""
	}
}

// Field returns the descriptor named name.
func (d Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// OptionalFields lists the fields a create request may omit when blank.
// It is derived from the schema so it cannot drift from the required flags.
func (d Definition) OptionalFields() []string {
	var names []string
	for _, f := range d.Fields {
		if !f.Required && f.Kind != KindSEO {
			names = append(names, f.Name)
		}
	}
	return names
}

// RequiredFields lists the fields a create request must carry.
func (d Definition) RequiredFields() []string {
	var names []string
	for _, f := range d.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// FieldsOfKind returns the names of fields with kind k.
func (d Definition) FieldsOfKind(k Kind) []string {
	var names []string
	for _, f := range d.Fields {
		if f.Kind == k {
			names = append(names, f.Name)
		}
	}
	return names
}

// TitleField is "title" for titled types and "name" for the others.
func (d Definition) TitleField() string {
	if _, ok := d.Field("title"); ok {
		return "title"
	}
	return "name"
}
