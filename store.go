package pubqueue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/submit"
)

var (
	// ErrNotFound is returned when a requested entry, SEO record or image
	// does not exist.
	ErrNotFound = errors.New("pubqueue: not found")
	// ErrValidation wraps the field errors of a rejected create.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateSlug is returned when a type already has an entry with the slug.
	ErrDuplicateSlug = errors.New("slug already exists")
)

// Store wraps a SQLite database holding created entries, their SEO
// metadata and the media library.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed during writes; busy_timeout makes writers
	// wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS entries (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    slug TEXT,
    title TEXT NOT NULL,
    status TEXT NOT NULL,
    resource_id TEXT NOT NULL DEFAULT '',
    category_id TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT ',',
    data TEXT NOT NULL,
    views INTEGER NOT NULL DEFAULT 0,
    likes INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    published_at TEXT,
    UNIQUE (type, slug)
);
CREATE INDEX IF NOT EXISTS entries_status ON entries (status, published_at);
CREATE TABLE IF NOT EXISTS seo (
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    data TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (entity_type, entity_id)
);
CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

// validate checks a prepared payload against the schema of t.
func validate(def content.Definition, data map[string]any) error {
	errs := validation.Errors{}
	for _, f := range def.Fields {
		if f.Kind == content.KindSEO {
			continue
		}
		v := data[f.Name]
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		var rules []validation.Rule
		if f.Required {
			rules = append(rules, validation.Required)
		}
		switch f.Kind {
		case content.KindSelect:
			opts := make([]any, len(f.Options))
			for i, o := range f.Options {
				opts[i] = o
			}
			rules = append(rules, validation.In(opts...).Error("must be one of "+strings.Join(f.Options, ", ")))
		case content.KindNumber:
			rules = append(rules, validation.By(isNumber))
		case content.KindDate:
			rules = append(rules, validation.By(isDate))
		}
		errs[f.Name] = validation.Validate(v, rules...)
	}
	if err := errs.Filter(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func isNumber(v any) error {
	switch v.(type) {
	case nil, float64, int, int64:
		return nil
	case string:
		if v == "" {
			return nil
		}
	}
	return validation.NewError("validation_is_number", "must be a number")
}

func isDate(v any) error {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if !t.IsZero() {
			return nil
		}
	case string:
		if t == "" {
			return nil
		}
	}
	return validation.NewError("validation_is_date", "must be a valid date")
}

func str(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return strings.TrimSpace(s)
}

func joinTags(v any) string {
	var tags []string
	switch t := v.(type) {
	case []string:
		tags = t
	case []any:
		for _, x := range t {
			if s, ok := x.(string); ok {
				tags = append(tags, s)
			}
		}
	case string:
		tags = content.SplitTags(t)
	}
	normalized := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			normalized = append(normalized, t)
		}
	}
	return "," + strings.Join(normalized, ",") + ","
}

// Create validates data against the schema of t and inserts a new entry.
// Types without a status field are published immediately.
func (s *Store) Create(ctx context.Context, t content.Type, data map[string]any) (content.Entry, error) {
	def := content.Lookup(t)
	if err := validate(def, data); err != nil {
		return content.Entry{}, err
	}

	now := s.now().UTC()
	status := str(data, "status")
	if _, ok := def.Field("status"); !ok {
		status = "published"
	}
	var publishedAt *time.Time
	if pt, ok := data["publishedAt"].(time.Time); ok {
		pt = pt.UTC()
		publishedAt = &pt
	} else if status == "published" {
		publishedAt = &now
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return content.Entry{}, fmt.Errorf("pubqueue: encode entry: %w", err)
	}
	id := uuid.NewString()
	slug := str(data, "slug")
	if _, ok := def.Field("slug"); !ok {
		slug = ""
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO entries
        (id, type, slug, title, status, resource_id, category_id, tags, data, created_at, updated_at, published_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(t), nullString(slug), firstNonEmpty(str(data, "title"), str(data, "name")), status,
		str(data, "resourceId"), str(data, "categoryId"), joinTags(data["tags"]), string(raw),
		formatTime(now), formatTime(now), nullTime(publishedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return content.Entry{}, fmt.Errorf("%w: %s %q", ErrDuplicateSlug, def.Singular, slug)
		}
		return content.Entry{}, fmt.Errorf("pubqueue: insert entry: %w", err)
	}
	return s.GetEntry(ctx, id)
}

// Creators returns one create operation per content type, backed by Create.
func (s *Store) Creators() map[content.Type]submit.CreateFunc {
	out := make(map[content.Type]submit.CreateFunc)
	for _, t := range content.All() {
		out[t] = func(ctx context.Context, data map[string]any) (submit.Created, error) {
			e, err := s.Create(ctx, t, data)
			if err != nil {
				return submit.Created{}, err
			}
			return submit.Created{ID: e.ID, Fields: map[string]any{"slug": e.Slug}}, nil
		}
	}
	return out
}

// UpsertSEO stores the SEO metadata of an entity, replacing any previous record.
func (s *Store) UpsertSEO(ctx context.Context, rec submit.SEORecord) error {
	raw, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("pubqueue: encode seo: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO seo (entity_type, entity_id, data, updated_at) VALUES (?, ?, ?, ?)
        ON CONFLICT (entity_type, entity_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(rec.EntityType), rec.EntityID, string(raw), formatTime(s.now()))
	return err
}

// GetSEO returns the SEO metadata of an entity.
func (s *Store) GetSEO(ctx context.Context, t content.Type, id string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM seo WHERE entity_type = ? AND entity_id = ?`, string(t), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("pubqueue: decode seo: %w", err)
	}
	return out, nil
}

const entryColumns = `id, type, slug, title, status, resource_id, category_id, tags, data, views, likes, created_at, updated_at, published_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (content.Entry, error) {
	var (
		e                content.Entry
		typ, label, tags string
		raw              string
		created, updated string
		slug, published  sql.NullString
	)
	if err := row.Scan(&e.ID, &typ, &slug, &label, &e.Status, &e.ResourceID, &e.CategoryID,
		&tags, &raw, &e.Views, &e.Likes, &created, &updated, &published); err != nil {
		return content.Entry{}, err
	}
	e.Type = content.Type(typ)
	e.Slug = slug.String
	e.Tags = ParseTags(tags)
	e.CreatedAt = parseTime(created)
	e.UpdatedAt = parseTime(updated)
	if published.Valid {
		pt := parseTime(published.String)
		e.PublishedAt = &pt
	}
	e.Data = map[string]any{}
	if err := json.Unmarshal([]byte(raw), &e.Data); err != nil {
		return content.Entry{}, fmt.Errorf("pubqueue: decode entry %s: %w", e.ID, err)
	}
	e.Title = str(e.Data, "title")
	e.Name = str(e.Data, "name")
	e.Excerpt = str(e.Data, "excerpt")
	e.Description = str(e.Data, "description")
	e.Body = firstNonEmpty(str(e.Data, "content"), str(e.Data, "description"), str(e.Data, "bio"))
	return e, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]content.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []content.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetEntry returns an entry by id regardless of status (for admin).
func (s *Store) GetEntry(ctx context.Context, id string) (content.Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return content.Entry{}, ErrNotFound
	}
	return e, err
}

// ListEntries returns every entry of type t, or of every type when t is
// empty, newest first.
func (s *Store) ListEntries(ctx context.Context, t content.Type) ([]content.Entry, error) {
	if t == "" {
		return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY created_at DESC`)
	}
	return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM entries WHERE type = ? ORDER BY created_at DESC`, string(t))
}

// ListPublished returns every published entry, most recently published first.
func (s *Store) ListPublished(ctx context.Context) ([]content.Entry, error) {
	return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM entries WHERE status = 'published' ORDER BY published_at DESC, created_at DESC`)
}

// ListTags returns a sorted, deduplicated slice of all tags from published entries.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM entries WHERE status = 'published'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range ParseTags(tags) {
			set[t] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// DeleteEntries removes the given entries and their SEO records and
// returns how many entries were removed.
func (s *Store) DeleteEntries(ctx context.Context, ids []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	removed := 0
	for _, id := range ids {
		var typ string
		err := tx.QueryRowContext(ctx, `SELECT type FROM entries WHERE id = ?`, id).Scan(&typ)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM seo WHERE entity_type = ? AND entity_id = ?`, typ, id); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
			return 0, err
		}
		removed++
	}
	return removed, tx.Commit()
}

// IncrementViews bumps the view counter of an entry.
func (s *Store) IncrementViews(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE entries SET views = views + 1 WHERE id = ?`, id)
	return err
}

// Like bumps the like counter of an entry and returns the new count.
func (s *Store) Like(ctx context.Context, id string) (int, error) {
	var likes int
	err := s.db.QueryRowContext(ctx, `UPDATE entries SET likes = likes + 1 WHERE id = ? RETURNING likes`, id).Scan(&likes)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return likes, err
}

// SaveImage records the metadata of an uploaded image.
func (s *Store) SaveImage(ctx context.Context, img Image) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO images (filename, original_name, width, height, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UploadedAt)
	return err
}

// ListImages returns every image, newest first.
func (s *Store) ListImages(ctx context.Context) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename, original_name, width, height, size, uploaded_at FROM images ORDER BY uploaded_at DESC, filename`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UploadedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// ImageExists reports whether filename is already recorded.
func (s *Store) ImageExists(ctx context.Context, filename string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images WHERE filename = ?`, filename).Scan(&n)
	return n > 0, err
}

// DeleteImage removes the metadata of an image.
func (s *Store) DeleteImage(ctx context.Context, filename string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE filename = ?`, filename)
	return err
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
