// Package memory provides an in-memory storage.KVEngine.
package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/yndnr/otpslot-go/internal/storage"
)

// Engine is a map-backed KVEngine.
type Engine struct {
	mu     sync.RWMutex
	items  map[string][]byte
	closed bool

	// applyHook runs before each batch; a non-nil error aborts it.
	applyHook func(ops []storage.Op) error
}

// Option configures the Engine.
type Option func(*Engine)

// WithApplyHook installs a hook that can veto batches, e.g. to simulate
// a failing disk.
func WithApplyHook(fn func(ops []storage.Op) error) Option {
	return func(e *Engine) {
		e.applyHook = fn
	}
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{items: make(map[string][]byte)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Get retrieves a copy of the value stored under key.
func (e *Engine) Get(_ context.Context, key []byte) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, storage.ErrClosed
	}
	v, ok := e.items[string(key)]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

// Set stores a key-value pair.
func (e *Engine) Set(ctx context.Context, key, value []byte) error {
	return e.Apply(ctx, []storage.Op{storage.Put(key, value)})
}

// Delete removes a key.
func (e *Engine) Delete(ctx context.Context, key []byte) error {
	return e.Apply(ctx, []storage.Op{storage.Del(key)})
}

// Scan visits keys with prefix in ascending order.
func (e *Engine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return storage.ErrClosed
	}
	keys := make([]string, 0, len(e.items))
	for k := range e.items {
		if strings.HasPrefix(k, string(prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = bytes.Clone(e.items[k])
	}
	e.mu.RUnlock()

	for i, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn([]byte(k), values[i]) {
			break
		}
	}
	return nil
}

// Apply commits ops atomically.
func (e *Engine) Apply(ctx context.Context, ops []storage.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return storage.ErrClosed
	}
	if e.applyHook != nil {
		if err := e.applyHook(ops); err != nil {
			return err
		}
	}

	for _, op := range ops {
		if op.Delete {
			delete(e.items, string(op.Key))
			continue
		}
		e.items[string(op.Key)] = bytes.Clone(op.Value)
	}
	return nil
}

// GC is a no-op.
func (e *Engine) GC(context.Context) (uint64, error) {
	return 0, nil
}

// Stats reports the key count and the summed key and value sizes.
func (e *Engine) Stats(context.Context) (*storage.KVStats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, storage.ErrClosed
	}

	var size uint64
	for k, v := range e.items {
		size += uint64(len(k) + len(v))
	}
	return &storage.KVStats{
		TotalKeys: uint64(len(e.items)),
		TotalSize: size,
	}, nil
}

// Close marks the engine closed. Data is discarded.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.items = nil
	return nil
}

var _ storage.KVEngine = (*Engine)(nil)
