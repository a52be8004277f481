package submit

import (
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/queue"
)

// noneSentinel is the value select inputs use for "no selection".
const noneSentinel = "none"

// Prepare turns staged form data into a create payload for type t. The
// nested "seo" object is returned separately. Optional fields left blank
// are omitted; blank required fields are kept so the creator rejects them.
func Prepare(t content.Type, formData map[string]any) (payload, seo map[string]any) {
	def := content.Lookup(t)
	payload = maps.Clone(formData)
	if payload == nil {
		payload = map[string]any{}
	}

	if raw, ok := payload["seo"]; ok {
		delete(payload, "seo")
		if m, ok := raw.(map[string]any); ok {
			seo = maps.Clone(m)
		}
	}

	if s, ok := payload["tags"].(string); ok {
		payload["tags"] = content.SplitTags(s)
	}

	if slug, _ := payload["slug"].(string); strings.TrimSpace(slug) == "" {
		if title := firstText(payload, "title", "name"); title != "" {
			payload["slug"] = content.Slugify(title)
		}
	}

	for _, name := range def.OptionalFields() {
		v, ok := payload[name]
		if !ok {
			continue
		}
		if s, isStr := v.(string); isStr && (strings.TrimSpace(s) == "" || s == noneSentinel) {
			delete(payload, name)
		}
	}

	coerce(def, payload)
	return payload, seo
}

func firstText(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// coerce converts string form values to the scalar type their field kind
// declares. Values that do not parse are left untouched for the creator to
// reject.
func coerce(def content.Definition, payload map[string]any) {
	for _, f := range def.Fields {
		s, ok := payload[f.Name].(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		switch f.Kind {
		case content.KindNumber:
			if s == "" {
				continue
			}
			if n, err := strconv.ParseFloat(s, 64); err == nil {
				payload[f.Name] = n
			}
		case content.KindBool:
			switch strings.ToLower(s) {
			case "on", "true", "1", "yes":
				payload[f.Name] = true
			case "", "off", "false", "0", "no":
				payload[f.Name] = false
			}
		case content.KindDate:
			if t, ok := queue.ParseDate(s); ok {
				payload[f.Name] = t.UTC()
			}
		}
	}
}

// hasValue reports whether any SEO field carries a non-blank value.
func hasValue(seo map[string]any) bool {
	for _, v := range seo {
		switch x := v.(type) {
		case nil:
		case string:
			if strings.TrimSpace(x) != "" {
				return true
			}
		case []any:
			if len(x) > 0 {
				return true
			}
		case []string:
			if len(x) > 0 {
				return true
			}
		case time.Time:
			if !x.IsZero() {
				return true
			}
		default:
			return true
		}
	}
	return false
}
