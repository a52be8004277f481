package pubqueue

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/listing"
	"github.com/eringen/pubqueue/logger"
	"github.com/eringen/pubqueue/mention"
	"github.com/eringen/pubqueue/queue"
)

// selections keeps one dashboard selection per admin session.
type selections struct {
	mu        sync.Mutex
	bySession map[string]*listing.Selection
	seen      map[string]time.Time
}

func newSelections() *selections {
	return &selections{
		bySession: make(map[string]*listing.Selection),
		seen:      make(map[string]time.Time),
	}
}

// with runs fn on the selection of sid while holding the lock.
func (s *selections) with(sid string, fn func(*listing.Selection)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, ok := s.bySession[sid]
	if !ok {
		sel = &listing.Selection{}
		s.bySession[sid] = sel
	}
	s.seen[sid] = time.Now()
	fn(sel)
}

func (s *selections) end(sid string) {
	s.mu.Lock()
	delete(s.bySession, sid)
	delete(s.seen, sid)
	s.mu.Unlock()
}

// sweep drops selections last touched before cutoff.
func (s *selections) sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for sid, at := range s.seen {
		if at.Before(cutoff) {
			delete(s.bySession, sid)
			delete(s.seen, sid)
			n++
		}
	}
	return n
}

func (s *selections) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bySession)
}

// sweepSessions forgets per-session state of sessions idle since before
// cutoff.
func (a *App) sweepSessions(cutoff time.Time) {
	m := a.mentions.Sweep(cutoff)
	s := a.selections.sweep(cutoff)
	if m+s > 0 {
		a.log.Debug("expired admin session state dropped", logger.Int("mention_caches", m), logger.Int("selections", s))
	}
}

// janitor sweeps expired session state until ctx is done.
func (a *App) janitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.sweepSessions(now.Add(-sessionMaxAge))
		}
	}
}

func (a *App) handleAdmin(c echo.Context) error {
	if !a.isAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	d, err := a.dashboard(c)
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(d))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		a.loginLimiter.Reset(ip)
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.log.Warn("admin login failed", logger.String("ip", ip))
	return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
}

func (a *App) handleAdminLogout(c echo.Context) error {
	if sid := SessionID(c); sid != "" {
		a.mentions.End(sid)
		a.selections.end(sid)
	}
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// dashboard builds the admin list from the request's query parameters:
// type, q, status, resource, category, from, to, sort and dir.
func (a *App) dashboard(c echo.Context) (Dashboard, error) {
	d := Dashboard{
		SortField: c.QueryParam("sort"),
		SortDir:   listing.ParseDirection(c.QueryParam("dir")),
		Message:   c.QueryParam("msg"),
		CSRFToken: CsrfToken(c),
		Filters: listing.Filters{
			Search:     c.QueryParam("q"),
			Status:     c.QueryParam("status"),
			ResourceID: c.QueryParam("resource"),
			CategoryID: c.QueryParam("category"),
		},
	}
	if d.SortField == "" {
		d.SortField = listing.FieldCreatedAt
	}
	if raw := c.QueryParam("type"); raw != "" && raw != listing.All {
		t, err := content.Parse(raw)
		if err != nil {
			return d, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		d.Type = t
	}
	if t, ok := queue.ParseDate(c.QueryParam("from")); ok {
		d.Filters.From = &t
	}
	if raw := c.QueryParam("to"); raw != "" {
		if t, ok := queue.ParseDate(raw); ok {
			// A bare date includes the whole day.
			if len(raw) == len("2006-01-02") {
				t = t.Add(24*time.Hour - time.Nanosecond)
			}
			d.Filters.To = &t
		}
	}

	entries, err := a.Store.ListEntries(c.Request().Context(), d.Type)
	if err != nil {
		return d, err
	}
	sid := SessionID(c)
	a.rememberMentions(sid, entries)

	d.Entries = listing.Sort(listing.Filter(entries, d.Filters), d.SortField, d.SortDir)
	order := entryIDs(d.Entries)
	a.selections.with(sid, func(sel *listing.Selection) {
		d.Selected = sel.IDs(order)
	})
	return d, nil
}

// rememberMentions records display metadata for entries so mention tokens
// in queued drafts resolve without another lookup.
func (a *App) rememberMentions(sid string, entries []content.Entry) {
	cache := a.mentions.For(sid)
	for _, e := range entries {
		icon, _ := e.Data["icon"].(string)
		color, _ := e.Data["color"].(string)
		cache.Put(e.Type, e.ID, mention.Meta{Label: e.DisplayTitle(), Icon: icon, Color: color})
	}
}

func entryIDs(entries []content.Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

// backToDashboard redirects to the list with the filters of the current
// request preserved.
func backToDashboard(c echo.Context, msg string) error {
	q := c.QueryParams()
	q.Del("msg")
	if msg != "" {
		q.Set("msg", msg)
	}
	target := "/admin/"
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// handleSelectToggle flips the "id" form value. With "extend" set the
// range from the previous toggle is selected, in the list's current order.
func (a *App) handleSelectToggle(c echo.Context) error {
	d, err := a.dashboard(c)
	if err != nil {
		return err
	}
	order := entryIDs(d.Entries)
	id := c.FormValue("id")
	extend := c.FormValue("extend") != ""
	a.selections.with(SessionID(c), func(sel *listing.Selection) {
		sel.Toggle(id, order, extend)
	})
	return backToDashboard(c, "")
}

func (a *App) handleSelectAll(c echo.Context) error {
	d, err := a.dashboard(c)
	if err != nil {
		return err
	}
	a.selections.with(SessionID(c), func(sel *listing.Selection) {
		sel.SelectAll(entryIDs(d.Entries))
	})
	return backToDashboard(c, "")
}

func (a *App) handleSelectNone(c echo.Context) error {
	a.selections.with(SessionID(c), func(sel *listing.Selection) {
		sel.Clear()
	})
	return backToDashboard(c, "")
}

// handleBulkDelete removes every selected entry that is visible under the
// current filters.
func (a *App) handleBulkDelete(c echo.Context) error {
	d, err := a.dashboard(c)
	if err != nil {
		return err
	}
	if len(d.Selected) == 0 {
		return backToDashboard(c, "Nothing selected")
	}
	n, err := a.Store.DeleteEntries(c.Request().Context(), d.Selected)
	if err != nil {
		return err
	}
	a.selections.with(SessionID(c), func(sel *listing.Selection) {
		sel.Clear()
	})
	a.Cache.Invalidate()
	a.log.Info("entries deleted", logger.Int("count", n))
	return backToDashboard(c, fmt.Sprintf("Deleted %d %s", n, plural(n, "entry", "entries")))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// QueryString re-encodes the filter parameters of a dashboard for form actions.
func (d Dashboard) QueryString() string {
	q := url.Values{}
	if d.Type != "" {
		q.Set("type", string(d.Type))
	}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("q", d.Filters.Search)
	set("status", d.Filters.Status)
	set("resource", d.Filters.ResourceID)
	set("category", d.Filters.CategoryID)
	if d.Filters.From != nil {
		set("from", d.Filters.From.Format("2006-01-02"))
	}
	if d.Filters.To != nil {
		set("to", d.Filters.To.Format("2006-01-02"))
	}
	set("sort", d.SortField)
	set("dir", string(d.SortDir))
	return q.Encode()
}
