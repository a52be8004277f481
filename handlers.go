package pubqueue

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/logger"
)

// homeTypes are the types listed on the home page and in the feed.
var homeTypes = []content.Type{content.Blog, content.Article}

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	tag := c.QueryParam("tag")
	entries, err := a.Cache.List(ctx, tag, homeTypes...)
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags(ctx)
	if err != nil {
		return err
	}
	meta := PageMeta{
		Title:       a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL),
		OGType:      "website",
		JSONLD:      WebsiteJsonLD(a.Config),
	}
	return Render(c, a.Views.Home(entries, tag, tags, meta))
}

// lookupEntry resolves the :type/:slug route params to a published entry.
func (a *App) lookupEntry(c echo.Context) (content.Entry, error) {
	t, err := content.Parse(c.Param("type"))
	if err != nil {
		return content.Entry{}, ErrNotFound
	}
	return a.Cache.Get(c.Request().Context(), t, c.Param("slug"))
}

func (a *App) handleEntry(c echo.Context) error {
	ctx := c.Request().Context()
	entry, err := a.lookupEntry(c)
	if errors.Is(err, ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	if err != nil {
		return err
	}

	seo, err := a.Store.GetSEO(ctx, entry.Type, entry.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		a.log.Warn("load seo failed", logger.String("entry", entry.ID), logger.Err(err))
	}
	if err := a.Store.IncrementViews(ctx, entry.ID); err != nil {
		a.log.Warn("count view failed", logger.String("entry", entry.ID), logger.Err(err))
	}

	all, err := a.Cache.List(ctx, "", entry.Type)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Entry(entry, FilterRelated(entry, all), EntryMeta(entry, seo, a.Config)))
}

func (a *App) handleLike(c echo.Context) error {
	entry, err := a.lookupEntry(c)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, apiError{Error: "not found"})
	}
	if err != nil {
		return err
	}
	likes, err := a.Store.Like(c.Request().Context(), entry.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"likes": likes})
}

func (a *App) handleSitemap(c echo.Context) error {
	entries, err := a.Cache.List(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, entries)
}

func (a *App) handleFeed(c echo.Context) error {
	entries, err := a.Cache.List(c.Request().Context(), "", homeTypes...)
	if err != nil {
		return err
	}
	return a.renderRSS(c, entries)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound && !isAPI(c) {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.log.Error("server error", logger.String("uri", c.Request().RequestURI), logger.Err(err))
		if isAPI(c) {
			_ = jsonError(c, code, "internal error")
			return
		}
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
