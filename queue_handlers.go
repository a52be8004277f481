package pubqueue

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/mention"
	"github.com/eringen/pubqueue/queue"
	"github.com/eringen/pubqueue/submit"
)

// queueState is the JSON view of the whole queue.
type queueState struct {
	Items    []queue.Item `json:"items"`
	ActiveID string       `json:"activeId"`
	Counts   queue.Counts `json:"counts"`
}

type saveAllResult struct {
	Attempted int      `json:"attempted"`
	Succeeded int      `json:"succeeded"`
	Failed    []string `json:"failed"`
	Summary   string   `json:"summary"`
}

func (a *App) queueState() queueState {
	items := a.Queue.Items()
	if items == nil {
		items = []queue.Item{}
	}
	return queueState{Items: items, ActiveID: a.Queue.ActiveID(), Counts: a.Queue.Counts()}
}

func newSaveAllResult(r submit.Report) saveAllResult {
	failed := r.Failed
	if failed == nil {
		failed = []string{}
	}
	return saveAllResult{Attempted: r.Attempted, Succeeded: r.Succeeded, Failed: failed, Summary: r.String()}
}

func (a *App) handleQueueState(c echo.Context) error {
	return c.JSON(http.StatusOK, a.queueState())
}

func (a *App) handleQueueAdd(c echo.Context) error {
	var req struct {
		Type     string         `json:"type"`
		FormData map[string]any `json:"formData"`
	}
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	t, err := content.Parse(req.Type)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	id := a.Queue.AddItem(t)
	if id == "" {
		return jsonError(c, http.StatusServiceUnavailable, "queue is closed")
	}
	if len(req.FormData) > 0 {
		if err := a.Queue.UpdateFormData(id, req.FormData); err != nil {
			return err
		}
	}
	it, _ := a.Queue.Item(id)
	return c.JSON(http.StatusCreated, it)
}

func (a *App) handleQueueUpdate(c echo.Context) error {
	id := c.Param("id")
	var fields map[string]any
	if err := new(echo.DefaultBinder).BindBody(c, &fields); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if err := a.Queue.UpdateFormData(id, fields); err != nil {
		if errors.Is(err, queue.ErrItemNotFound) {
			return jsonError(c, http.StatusNotFound, err.Error())
		}
		return err
	}
	it, _ := a.Queue.Item(id)
	return c.JSON(http.StatusOK, it)
}

func (a *App) handleQueueRemove(c echo.Context) error {
	id := c.Param("id")
	if _, ok := a.Queue.Item(id); !ok {
		return jsonError(c, http.StatusNotFound, queue.ErrItemNotFound.Error())
	}
	a.Queue.RemoveItem(id)
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleQueueActivate(c echo.Context) error {
	if !a.Queue.SetActive(c.Param("id")) {
		return jsonError(c, http.StatusNotFound, queue.ErrItemNotFound.Error())
	}
	return c.JSON(http.StatusOK, a.queueState())
}

// handleQueueSave submits one item. A rejected create answers 422 with
// the item, whose status and error now reflect the failure. An item that
// is already saving or saved answers 409.
func (a *App) handleQueueSave(c echo.Context) error {
	id := c.Param("id")
	err := a.Submit.SaveItem(c.Request().Context(), id)
	switch {
	case errors.Is(err, queue.ErrItemNotFound):
		return jsonError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, queue.ErrNotPending):
		return jsonError(c, http.StatusConflict, err.Error())
	case errors.Is(err, queue.ErrClosed):
		return jsonError(c, http.StatusServiceUnavailable, err.Error())
	}
	it, _ := a.Queue.Item(id)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, struct {
			Error string     `json:"error"`
			Item  queue.Item `json:"item"`
		}{err.Error(), it})
	}
	return c.JSON(http.StatusOK, it)
}

func (a *App) handleQueueSaveAll(c echo.Context) error {
	r := a.Submit.SaveAll(c.Request().Context())
	return c.JSON(http.StatusOK, newSaveAllResult(r))
}

func (a *App) handleQueueClearSaved(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]int{"removed": a.Queue.ClearSaved()})
}

func (a *App) handleQueueClear(c echo.Context) error {
	a.Queue.ClearAll()
	return c.NoContent(http.StatusNoContent)
}

// Form-driven routes behind the /admin/queue/ page.

func (a *App) handleQueuePage(c echo.Context) error {
	cache := a.mentions.For(SessionID(c))
	p := QueuePage{
		Counts:    a.Queue.Counts(),
		Message:   c.QueryParam("msg"),
		CSRFToken: CsrfToken(c),
	}
	for _, t := range content.All() {
		p.Types = append(p.Types, content.Lookup(t))
	}
	activeID := a.Queue.ActiveID()
	for _, it := range a.Queue.Items() {
		title := queue.Title(it)
		p.Rows = append(p.Rows, QueueRow{
			Item:   it,
			Title:  title,
			Label:  mention.Expand(title, cache),
			Active: it.ID == activeID,
		})
	}
	for i := range p.Rows {
		if p.Rows[i].Active {
			p.Active = &p.Rows[i]
			p.Fields = content.Lookup(p.Rows[i].Item.Type).Fields
		}
	}
	return Render(c, a.Views.AdminQueue(p))
}

func backToQueue(c echo.Context, msg string) error {
	target := "/admin/queue/"
	if msg != "" {
		target += "?msg=" + url.QueryEscape(msg)
	}
	return c.Redirect(http.StatusSeeOther, target)
}

func (a *App) handleQueueFormAdd(c echo.Context) error {
	t, err := content.Parse(c.FormValue("type"))
	if err != nil {
		return backToQueue(c, "Unknown content type")
	}
	a.Queue.AddItem(t)
	return backToQueue(c, "")
}

func (a *App) handleQueueFormActivate(c echo.Context) error {
	a.Queue.SetActive(c.Param("id"))
	return backToQueue(c, "")
}

// formFields reads the fields of def from a submitted form. Unchecked
// checkboxes are absent from the form and read as false.
func formFields(c echo.Context, def content.Definition) map[string]any {
	fields := make(map[string]any, len(def.Fields))
	for _, f := range def.Fields {
		switch f.Kind {
		case content.KindSEO:
			seo := map[string]any{}
			for _, k := range seoKeys {
				seo[k] = c.FormValue("seo." + k)
			}
			fields[f.Name] = seo
		case content.KindBool:
			fields[f.Name] = c.FormValue(f.Name) != ""
		default:
			fields[f.Name] = c.FormValue(f.Name)
		}
	}
	return fields
}

var seoKeys = []string{"metaTitle", "metaDescription", "ogImage", "keywords"}

func (a *App) handleQueueFormUpdate(c echo.Context) error {
	id := c.Param("id")
	it, ok := a.Queue.Item(id)
	if !ok {
		return backToQueue(c, "Item not found")
	}
	if err := a.Queue.UpdateFormData(id, formFields(c, content.Lookup(it.Type))); err != nil {
		return err
	}
	if c.FormValue("save") != "" {
		return a.handleQueueFormSave(c)
	}
	return backToQueue(c, "Draft updated")
}

func (a *App) handleQueueFormSave(c echo.Context) error {
	id := c.Param("id")
	if err := a.Submit.SaveItem(c.Request().Context(), id); err != nil {
		return backToQueue(c, "Save failed: "+err.Error())
	}
	it, _ := a.Queue.Item(id)
	return backToQueue(c, queue.Title(it)+" created")
}

func (a *App) handleQueueFormRemove(c echo.Context) error {
	a.Queue.RemoveItem(c.Param("id"))
	return backToQueue(c, "")
}

func (a *App) handleQueueFormSaveAll(c echo.Context) error {
	r := a.Submit.SaveAll(c.Request().Context())
	return backToQueue(c, "Save all: "+r.String())
}

func (a *App) handleQueueFormClearSaved(c echo.Context) error {
	n := a.Queue.ClearSaved()
	if n == 0 {
		return backToQueue(c, "No saved items to clear")
	}
	return backToQueue(c, "Cleared saved items")
}

func (a *App) handleQueueFormClear(c echo.Context) error {
	a.Queue.ClearAll()
	return backToQueue(c, "Queue cleared")
}
