package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/timshannon/badgerhold/v4"
)

// record is the badgerhold value type; the type name prefixes every key.
type record struct {
	Key       string `badgerhold:"key"`
	Value     []byte
	UpdatedAt time.Time
}

// Badger stores values in an embedded Badger database through badgerhold.
type Badger struct {
	store *badgerhold.Store
}

// OpenBadger opens (or creates) a Badger database in directory dir.
func OpenBadger(dir string) (*Badger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create badger dir: %w", err)
	}
	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil
	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{store: store}, nil
}

func (b *Badger) Get(_ context.Context, key string) ([]byte, error) {
	var r record
	err := b.store.Get(key, &r)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %q: %w", key, err)
	}
	return r.Value, nil
}

func (b *Badger) Put(_ context.Context, key string, value []byte) error {
	r := record{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	if err := b.store.Upsert(key, r); err != nil {
		return fmt.Errorf("badger put %q: %w", key, err)
	}
	return nil
}

func (b *Badger) Delete(_ context.Context, key string) error {
	err := b.store.Delete(key, record{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("badger delete %q: %w", key, err)
	}
	return nil
}

func (b *Badger) Close() error {
	return b.store.Close()
}
