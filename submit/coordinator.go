// Package submit sends staged queue items to the per-type create operations
// and records the outcome back into the queue.
package submit

import (
	"context"
	"errors"
	"fmt"

	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/logger"
	"github.com/eringen/pubqueue/queue"
)

// ErrNoCreator is recorded when no create operation is registered for a type.
var ErrNoCreator = errors.New("submit: no creator registered")

// Created is the result of a successful create.
type Created struct {
	ID     string
	Fields map[string]any
}

// CreateFunc persists one new entity of a single content type. It is
// expected to validate required fields and fail with a readable error.
type CreateFunc func(ctx context.Context, data map[string]any) (Created, error)

// SEORecord is the metadata attached to a freshly created entity.
type SEORecord struct {
	EntityType content.Type
	EntityID   string
	Data       map[string]any
}

// SEOUpserter attaches search and social metadata to an entity.
type SEOUpserter interface {
	UpsertSEO(ctx context.Context, rec SEORecord) error
}

// Coordinator saves queue items one at a time.
type Coordinator struct {
	queue    *queue.Store
	creators map[content.Type]CreateFunc
	seo      SEOUpserter
	log      logger.Logger
}

// New returns a Coordinator over q. seo may be nil.
func New(q *queue.Store, creators map[content.Type]CreateFunc, seo SEOUpserter, log logger.Logger) *Coordinator {
	return &Coordinator{queue: q, creators: creators, seo: seo, log: logger.OrNop(log)}
}

// SaveItem submits the item with the given id. Only draft and errored
// items are submitted; others fail with queue.ErrNotPending. A create
// failure is stored on the item as StatusError and also returned. An SEO
// failure is logged only.
func (c *Coordinator) SaveItem(ctx context.Context, id string) error {
	_, err := c.save(ctx, id)
	return err
}

// save reports whether the item was claimed, i.e. whether a create was
// attempted for it.
func (c *Coordinator) save(ctx context.Context, id string) (bool, error) {
	it, err := c.queue.Claim(id)
	if err != nil {
		return false, err
	}
	log := c.log.With(logger.String("item", id), logger.String("type", string(it.Type)))

	payload, seo := Prepare(it.Type, it.FormData)

	create, ok := c.creators[it.Type]
	if !ok {
		err := fmt.Errorf("%w for %s", ErrNoCreator, it.Type)
		c.finish(log, id, queue.StatusError, err.Error())
		return true, err
	}

	created, err := create(ctx, payload)
	if err != nil {
		log.Warn("create failed", logger.Err(err))
		c.finish(log, id, queue.StatusError, err.Error())
		return true, err
	}

	if c.seo != nil && content.Lookup(it.Type).SEO && hasValue(seo) {
		rec := SEORecord{EntityType: it.Type, EntityID: created.ID, Data: seo}
		if err := c.seo.UpsertSEO(ctx, rec); err != nil {
			log.Warn("seo upsert failed", logger.String("entity", created.ID), logger.Err(err))
		}
	}

	if err := c.finish(log, id, queue.StatusSaved, ""); err != nil {
		return true, fmt.Errorf("entity %s created but %w", created.ID, err)
	}
	log.Info("queue item saved", logger.String("entity", created.ID))
	return true, nil
}

// finish records the outcome of a save. The item may have been removed
// while its create was running.
func (c *Coordinator) finish(log logger.Logger, id string, status queue.Status, errMsg string) error {
	err := c.queue.UpdateStatus(id, status, errMsg)
	if err != nil {
		log.Warn("queue item gone before save finished", logger.String("status", string(status)), logger.Err(err))
	}
	return err
}

// Report summarises a SaveAll run.
type Report struct {
	Attempted int
	Succeeded int
	Failed    []string
}

// String renders the report as "X/Y succeeded".
func (r Report) String() string {
	return fmt.Sprintf("%d/%d succeeded", r.Succeeded, r.Attempted)
}

// Partial reports whether some attempted items failed.
func (r Report) Partial() bool {
	return r.Succeeded < r.Attempted
}

// SaveAll saves every draft or errored item in queue order, one after the
// other, and keeps going past failures. Items removed or claimed by another
// save in the meantime are skipped. A cancelled ctx or a closed queue stops
// the run before the next item starts.
func (c *Coordinator) SaveAll(ctx context.Context) Report {
	var pending []string
	for _, it := range c.queue.Items() {
		if it.Status.Pending() {
			pending = append(pending, it.ID)
		}
	}

	var r Report
	for _, id := range pending {
		if ctx.Err() != nil {
			break
		}
		claimed, err := c.save(ctx, id)
		if errors.Is(err, queue.ErrClosed) {
			break
		}
		if !claimed {
			continue
		}
		r.Attempted++
		if err != nil {
			r.Failed = append(r.Failed, id)
			continue
		}
		r.Succeeded++
	}
	if r.Partial() {
		c.log.Warn("bulk save incomplete", logger.String("result", r.String()))
	}
	return r
}
