package queue

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/logger"
)

var (
	// ErrItemNotFound is returned when an id is not in the queue.
	ErrItemNotFound = errors.New("queue: item not found")
	// ErrNotPending is returned by Claim for items already saving or saved.
	ErrNotPending = errors.New("queue: item is not pending")
	// ErrClosed is returned by Claim after Close.
	ErrClosed = errors.New("queue: store closed")
)

// Persister receives a full snapshot after every committed change and
// returns the last snapshot on startup.
type Persister interface {
	Load(ctx context.Context) []Item
	Save(ctx context.Context, items []Item)
}

type discard struct{}

func (discard) Load(context.Context) []Item { return nil }
func (discard) Save(context.Context, []Item) {}

// Store is the in-memory queue state machine. All methods are safe for
// concurrent use.
type Store struct {
	mu       sync.Mutex
	items    []*Item
	activeID string
	closed   bool

	persist Persister
	log     logger.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for queue events.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = logger.OrNop(l) }
}

// WithClock overrides time.Now for item timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore loads the persisted snapshot from p and selects its first item.
// A nil Persister keeps the queue in memory only.
func NewStore(ctx context.Context, p Persister, opts ...Option) *Store {
	if p == nil {
		p = discard{}
	}
	s := &Store{persist: p, log: logger.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	for _, it := range p.Load(ctx) {
		s.items = append(s.items, &it)
	}
	if len(s.items) > 0 {
		s.activeID = s.items[0].ID
	}
	return s
}

// commit persists the current state. Callers hold s.mu.
func (s *Store) commit() {
	s.persist.Save(context.Background(), s.snapshot())
}

func (s *Store) snapshot() []Item {
	out := make([]Item, len(s.items))
	for i, it := range s.items {
		out[i] = it.clone()
	}
	return out
}

func (s *Store) index(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// AddItem appends a new draft of type t initialised with the type's
// defaults, makes it active and returns its id.
func (s *Store) AddItem(t content.Type) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ""
	}
	it := newItem(t, s.now())
	for s.index(it.ID) >= 0 {
		it.ID = newID(it.CreatedAt)
	}
	s.items = append(s.items, it)
	s.activeID = it.ID
	s.commit()
	s.log.Debug("queue item added", logger.String("id", it.ID), logger.String("type", string(t)))
	return it.ID
}

// RemoveItem deletes id. Removing the active item selects the first
// remaining item, or nothing when the queue becomes empty.
func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if s.closed || i < 0 {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	if s.activeID == id {
		s.reselect()
	}
	s.commit()
}

func (s *Store) reselect() {
	s.activeID = ""
	if len(s.items) > 0 {
		s.activeID = s.items[0].ID
	}
}

// UpdateFormData shallow-merges fields into the item's form data. No
// validation happens here.
func (s *Store) UpdateFormData(id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	i := s.index(id)
	if i < 0 {
		return ErrItemNotFound
	}
	it := s.items[i]
	if it.FormData == nil {
		it.FormData = make(map[string]any, len(fields))
	}
	maps.Copy(it.FormData, fields)
	s.commit()
	return nil
}

// UpdateStatus sets the item's status. errMsg is kept only for StatusError.
func (s *Store) UpdateStatus(id string, status Status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	i := s.index(id)
	if i < 0 {
		return ErrItemNotFound
	}
	it := s.items[i]
	it.Status = status
	it.Error = ""
	if status == StatusError {
		it.Error = errMsg
	}
	s.commit()
	return nil
}

// Claim moves a draft or errored item to StatusSaving and returns a copy
// of it. Items that are already saving or saved are refused with
// ErrNotPending, so one item is never submitted twice at once.
func (s *Store) Claim(id string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Item{}, ErrClosed
	}
	i := s.index(id)
	if i < 0 {
		return Item{}, ErrItemNotFound
	}
	it := s.items[i]
	if !it.Status.Pending() {
		return Item{}, fmt.Errorf("%w: %s", ErrNotPending, it.Status)
	}
	it.Status = StatusSaving
	it.Error = ""
	s.commit()
	return it.clone(), nil
}

// ClearSaved drops every saved item and returns how many were removed.
func (s *Store) ClearSaved() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	kept := s.items[:0]
	for _, it := range s.items {
		if it.Status != StatusSaved {
			kept = append(kept, it)
		}
	}
	removed := len(s.items) - len(kept)
	for i := len(kept); i < len(s.items); i++ {
		s.items[i] = nil
	}
	s.items = kept
	if s.index(s.activeID) < 0 {
		s.reselect()
	}
	s.commit()
	return removed
}

// ClearAll empties the queue.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.items = nil
	s.activeID = ""
	s.commit()
}

// SetActive selects id for editing. It reports false if id is unknown.
func (s *Store) SetActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.index(id) < 0 {
		return false
	}
	s.activeID = id
	return true
}

// Active returns the selected item.
func (s *Store) Active() (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(s.activeID); i >= 0 {
		return s.items[i].clone(), true
	}
	return Item{}, false
}

// ActiveID returns the selected id, or "" when the queue is empty.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Item returns a copy of the item with the given id.
func (s *Store) Item(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.items[i].clone(), true
	}
	return Item{}, false
}

// Items returns a copy of the queue in order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Counts tallies the queue by status.
func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := Counts{Total: len(s.items)}
	for _, it := range s.items {
		switch it.Status {
		case StatusDraft:
			c.Draft++
		case StatusSaving:
			c.Saving++
		case StatusSaved:
			c.Saved++
		case StatusError:
			c.Error++
		}
	}
	return c
}

// Close detaches the store from its owner. Later mutations, including
// status updates from saves still in flight, are discarded.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether Close has been called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
