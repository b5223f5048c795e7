// Package keyslot implements the fixed-capacity keyslot store.
package keyslot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/yndnr/otpslot-go/internal/core/domain"
	"github.com/yndnr/otpslot-go/internal/storage"
)

// Store persists a Table through a KV engine.
type Store struct {
	mu        sync.RWMutex
	kv        storage.KVEngine
	table     *Table
	formatted bool
	logger    *slog.Logger
}

// Open loads the keyslot image from kv.
//
// When the format marker is missing or wrong the image is treated as
// uninitialized: every record is cleared and a fresh image with the
// given capacity is written. An existing image keeps its own capacity.
func Open(ctx context.Context, kv storage.KVEngine, capacity int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{kv: kv, logger: logger}

	magic, err := kv.Get(ctx, keyMagic)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		return s.formatAndReturn(ctx, capacity)
	case err != nil:
		return nil, domain.ErrStorageError.WithCause(fmt.Errorf("read magic: %w", err))
	case !bytes.Equal(magic, encodeMagic()):
		logger.Warn("keyslot image has unknown format marker, reformatting", "magic", fmt.Sprintf("%x", magic))
		return s.formatAndReturn(ctx, capacity)
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	if s.table.Capacity() != capacity {
		logger.Warn("configured capacity differs from formatted image, keeping image capacity",
			"configured", capacity,
			"image", s.table.Capacity())
	}
	return s, nil
}

func (s *Store) formatAndReturn(ctx context.Context, capacity int) (*Store, error) {
	if err := s.format(ctx, capacity); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) format(ctx context.Context, capacity int) error {
	if capacity < 1 || capacity > domain.MaxCapacity {
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("capacity %d not in 1..%d", capacity, domain.MaxCapacity))
	}

	var ops []storage.Op
	err := s.kv.Scan(ctx, slotPrefix, func(key, _ []byte) bool {
		ops = append(ops, storage.Del(bytes.Clone(key)))
		return true
	})
	if err != nil {
		return domain.ErrStorageError.WithCause(fmt.Errorf("scan stale records: %w", err))
	}

	table := NewTable(capacity)
	for i := 0; i < capacity; i++ {
		ops = append(ops, storage.Put(slotKey(i), encodeSlot(domain.KeySlot{})))
	}
	ops = append(ops,
		storage.Put(keyCapacity, encodeCapacity(capacity)),
		storage.Put(keyMagic, encodeMagic()),
	)

	if err := s.kv.Apply(ctx, ops); err != nil {
		return domain.ErrStorageError.WithCause(fmt.Errorf("format image: %w", err))
	}

	s.table = table
	s.formatted = true
	s.logger.Info("keyslot image formatted", "capacity", capacity)
	return nil
}

func (s *Store) load(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, keyCapacity)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return domain.ErrStorageFormat.WithDetails("capacity record missing")
		}
		return domain.ErrStorageError.WithCause(fmt.Errorf("read capacity: %w", err))
	}
	capacity, err := decodeCapacity(raw)
	if err != nil {
		return domain.ErrStorageFormat.WithCause(err)
	}

	table := NewTable(capacity)
	for i := 0; i < capacity; i++ {
		raw, err := s.kv.Get(ctx, slotKey(i))
		if err != nil {
			if errors.Is(err, storage.ErrKeyNotFound) {
				return domain.ErrStorageFormat.WithDetails(fmt.Sprintf("record %d missing", i))
			}
			return domain.ErrStorageError.WithCause(fmt.Errorf("read record %d: %w", i, err))
		}
		slot, err := decodeSlot(raw)
		if err != nil {
			return domain.ErrStorageFormat.WithCause(fmt.Errorf("record %d: %w", i, err))
		}
		table.slots[i] = slot
	}
	if err := table.Validate(); err != nil {
		return domain.ErrStorageFormat.WithCause(err)
	}

	s.table = table
	return nil
}

// commit writes the records of next that differ from the current table
// in one batch and then makes next current.
func (s *Store) commit(ctx context.Context, next *Table) error {
	var ops []storage.Op
	for i := range next.slots {
		if next.slots[i] != s.table.slots[i] {
			ops = append(ops, storage.Put(slotKey(i), encodeSlot(next.slots[i])))
		}
	}
	if len(ops) > 0 {
		if err := s.kv.Apply(ctx, ops); err != nil {
			return domain.ErrStorageError.WithCause(err)
		}
	}
	s.table = next
	return nil
}

// Formatted reports whether Open initialized a fresh image.
func (s *Store) Formatted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.formatted
}

// Capacity returns the number of records.
func (s *Store) Capacity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Capacity()
}

// Count returns the number of enabled slots.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Count()
}

// FindFreeIndex returns the first disabled record.
func (s *Store) FindFreeIndex() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.FindFreeIndex()
}

// Get returns the enabled slot at index.
func (s *Store) Get(index int) (domain.KeySlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Get(index)
}

// Slots returns a copy of the enabled prefix.
func (s *Store) Slots() []domain.KeySlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Slots()
}

// Contains reports whether an enabled slot uses publicID.
func (s *Store) Contains(publicID domain.PublicID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Contains(publicID)
}

// Add stores slot in the first free record.
func (s *Store) Add(ctx context.Context, slot domain.KeySlot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.table.Clone()
	index, err := next.Add(slot)
	if err != nil {
		return 0, err
	}
	if err := s.commit(ctx, next); err != nil {
		return 0, err
	}
	return index, nil
}

// Erase removes the slot at index and compacts the enabled prefix.
func (s *Store) Erase(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.table.Clone()
	if err := next.Erase(index); err != nil {
		return err
	}
	return s.commit(ctx, next)
}

// ResetAll clears every record.
func (s *Store) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.table.Clone()
	next.Reset()
	return s.commit(ctx, next)
}

// IncrementBootCounts bumps the boot count of every enabled slot.
func (s *Store) IncrementBootCounts(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.table.Clone()
	next.IncrementBootCounts()
	return s.commit(ctx, next)
}

// Replace swaps the whole content for slots, which become the enabled
// prefix in the given order.
//
// Boot counts only move forward: a slot whose public id is already
// stored keeps the larger of both counts, and every restored slot then
// counts one boot.
func (s *Store) Replace(ctx context.Context, slots []domain.KeySlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(slots) > s.table.Capacity() {
		return domain.ErrNoFreeKeySlot.WithDetails(fmt.Sprintf("%d slots, capacity %d", len(slots), s.table.Capacity()))
	}

	current := make(map[domain.PublicID]uint16, s.table.Count())
	for _, slot := range s.table.Slots() {
		current[slot.PublicID] = slot.BootCount
	}

	next := NewTable(s.table.Capacity())
	for _, slot := range slots {
		if n, ok := current[slot.PublicID]; ok && n > slot.BootCount {
			slot.BootCount = n
		}
		slot.BootCount++
		if _, err := next.Add(slot); err != nil {
			return err
		}
	}
	return s.commit(ctx, next)
}
