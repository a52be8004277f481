package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsCoverEveryType(t *testing.T) {
	for _, typ := range All() {
		def := Lookup(typ)
		data := Defaults(typ)
		for _, f := range def.Fields {
			_, ok := data[f.Name]
			assert.Truef(t, ok, "%s: default missing for %q", typ, f.Name)
		}
		assert.NotEmpty(t, def.Singular)
		assert.NotEmpty(t, def.Plural)
	}
}

func TestDefaultsAreFreshMaps(t *testing.T) {
	a := Defaults(Blog)
	b := Defaults(Blog)
	a["title"] = "changed"
	a["seo"].(map[string]any)["metaTitle"] = "changed"

	assert.Equal(t, "", b["title"])
	assert.Equal(t, "", b["seo"].(map[string]any)["metaTitle"])
	assert.Equal(t, "draft", b["status"])
}

func TestLookupUnknownTypePanics(t *testing.T) {
	assert.Panics(t, func() { Lookup(Type("podcasts")) })
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"blogs", Blog, false},
		{"Blog", Blog, false},
		{" course ", Course, false},
		{"authors", Author, false},
		{"podcast", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			assert.Errorf(t, err, "Parse(%q)", tt.in)
			continue
		}
		require.NoErrorf(t, err, "Parse(%q)", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestOptionalFieldsDerivedFromSchema(t *testing.T) {
	def := Lookup(Blog)
	optional := def.OptionalFields()

	assert.Contains(t, optional, "resourceId")
	assert.Contains(t, optional, "excerpt")
	assert.NotContains(t, optional, "title")
	assert.NotContains(t, optional, "content")
	assert.NotContains(t, optional, "seo")

	for _, name := range def.RequiredFields() {
		assert.NotContains(t, optional, name)
	}
}

func TestTitleField(t *testing.T) {
	assert.Equal(t, "title", Lookup(Article).TitleField())
	assert.Equal(t, "name", Lookup(Resource).TitleField())
	assert.Equal(t, "name", Lookup(Author).TitleField())
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"My Cool Post!", "my-cool-post"},
		{"  Leading/Trailing --", "leading-trailing"},
		{"Hello   World", "hello-world"},
		{"---", ""},
		{"Go 1.24 release", "go-1-24-release"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, Slugify(tt.input), "Slugify(%q)", tt.input)
	}
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"go", "web dev"}, SplitTags(" go, ,web dev ,"))
	assert.Nil(t, SplitTags(""))
}
