package keyslot

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/yndnr/otpslot-go/internal/core/domain"
	"github.com/yndnr/otpslot-go/internal/storage"
	"github.com/yndnr/otpslot-go/internal/storage/memory"
)

func openStore(t *testing.T, kv storage.KVEngine, capacity int) *Store {
	t.Helper()
	s, err := Open(context.Background(), kv, capacity, slog.Default())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func TestOpen_FirstRunFormats(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()

	s := openStore(t, kv, domain.MaxKeySlots)

	if !s.Formatted() {
		t.Error("Formatted() = false on first run")
	}
	if s.Capacity() != domain.MaxKeySlots || s.Count() != 0 {
		t.Errorf("Capacity() = %d, Count() = %d", s.Capacity(), s.Count())
	}

	magic, err := kv.Get(ctx, keyMagic)
	if err != nil {
		t.Fatalf("magic not written: %v", err)
	}
	if string(magic) != string(encodeMagic()) {
		t.Errorf("magic = % x", magic)
	}
	for i := 0; i < domain.MaxKeySlots; i++ {
		raw, err := kv.Get(ctx, slotKey(i))
		if err != nil {
			t.Fatalf("record %d not written: %v", i, err)
		}
		if string(raw) != string(make([]byte, recordLength)) {
			t.Errorf("record %d = % x, want zeroes", i, raw)
		}
	}
}

func TestOpen_WrongMagicReformats(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()

	s := openStore(t, kv, 4)
	if _, err := s.Add(ctx, domain.NewKeySlot(pid(1))); err != nil {
		t.Fatal(err)
	}
	// A leftover record beyond the new capacity must be dropped.
	_ = kv.Set(ctx, slotKey(7), encodeSlot(domain.NewKeySlot(pid(9))))
	_ = kv.Set(ctx, keyMagic, []byte{0xDE, 0xAD, 0xBE, 0xEF})

	s = openStore(t, kv, 2)
	if !s.Formatted() {
		t.Error("Formatted() = false after bad magic")
	}
	if s.Count() != 0 || s.Capacity() != 2 {
		t.Errorf("Count() = %d, Capacity() = %d", s.Count(), s.Capacity())
	}
	if _, err := kv.Get(ctx, slotKey(7)); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Errorf("stale record survived formatting: %v", err)
	}
}

func TestOpen_InvalidCapacity(t *testing.T) {
	for _, c := range []int{0, -1, domain.MaxCapacity + 1} {
		if _, err := Open(context.Background(), memory.New(), c, nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("Open(capacity=%d) error = %v, want ErrInvalidArgument", c, err)
		}
	}
}

func TestOpen_ReopenPreservesSlots(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()

	s := openStore(t, kv, 4)
	for i := 1; i <= 3; i++ {
		if _, err := s.Add(ctx, domain.NewKeySlot(pid(byte(i)))); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.IncrementBootCounts(ctx); err != nil {
		t.Fatal(err)
	}

	// Capacity of an existing image wins over the configured one.
	reopened := openStore(t, kv, 8)
	if reopened.Formatted() {
		t.Error("Formatted() = true on reopen")
	}
	if reopened.Capacity() != 4 {
		t.Errorf("Capacity() = %d, want 4", reopened.Capacity())
	}

	got := reopened.Slots()
	if string(publicIDs(got)) != string([]byte{1, 2, 3}) {
		t.Errorf("slots = %v", publicIDs(got))
	}
	for i, slot := range got {
		if slot.BootCount != 2 {
			t.Errorf("slot %d BootCount = %d, want 2", i, slot.BootCount)
		}
	}
}

func TestOpen_CorruptImage(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(kv storage.KVEngine)
	}{
		{"missing capacity", func(kv storage.KVEngine) {
			_ = kv.Delete(context.Background(), keyCapacity)
		}},
		{"bad capacity", func(kv storage.KVEngine) {
			_ = kv.Set(context.Background(), keyCapacity, []byte{0})
		}},
		{"missing record", func(kv storage.KVEngine) {
			_ = kv.Delete(context.Background(), slotKey(1))
		}},
		{"short record", func(kv storage.KVEngine) {
			_ = kv.Set(context.Background(), slotKey(0), []byte{1})
		}},
		{"gap in prefix", func(kv storage.KVEngine) {
			_ = kv.Set(context.Background(), slotKey(0), encodeSlot(domain.KeySlot{}))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := memory.New()
			s := openStore(t, kv, 4)
			_, _ = s.Add(context.Background(), domain.NewKeySlot(pid(1)))
			_, _ = s.Add(context.Background(), domain.NewKeySlot(pid(2)))

			tt.corrupt(kv)

			_, err := Open(context.Background(), kv, 4, nil)
			if !errors.Is(err, domain.ErrStorageFormat) {
				t.Errorf("Open() error = %v, want ErrStorageFormat", err)
			}
		})
	}
}

func TestStore_AddUntilFull(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, memory.New(), domain.MaxKeySlots)

	for i := 0; i < domain.MaxKeySlots; i++ {
		idx, err := s.Add(ctx, domain.NewKeySlot(pid(byte(i+1))))
		if err != nil {
			t.Fatalf("Add(%d) error = %v", i, err)
		}
		if idx != i {
			t.Errorf("Add(%d) index = %d", i, idx)
		}
	}

	if _, err := s.Add(ctx, domain.NewKeySlot(pid(0xFF))); !errors.Is(err, domain.ErrNoFreeKeySlot) {
		t.Errorf("Add() on full store error = %v", err)
	}
	if s.Count() != domain.MaxKeySlots {
		t.Errorf("Count() = %d", s.Count())
	}
	if s.Contains(pid(0xFF)) {
		t.Error("rejected slot became visible")
	}
}

func TestStore_ErasePersists(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()
	s := openStore(t, kv, 4)

	for i := 1; i <= 4; i++ {
		_, _ = s.Add(ctx, domain.NewKeySlot(pid(byte(i))))
	}
	if err := s.Erase(ctx, 1); err != nil {
		t.Fatal(err)
	}

	want := []byte{1, 3, 4}
	if got := publicIDs(s.Slots()); string(got) != string(want) {
		t.Errorf("in-memory slots = %v, want %v", got, want)
	}

	reopened := openStore(t, kv, 4)
	if got := publicIDs(reopened.Slots()); string(got) != string(want) {
		t.Errorf("persisted slots = %v, want %v", got, want)
	}
	raw, _ := kv.Get(ctx, slotKey(3))
	if string(raw) != string(make([]byte, recordLength)) {
		t.Errorf("tail record = % x, want zeroes", raw)
	}
}

func TestStore_FailedWriteLeavesStateUntouched(t *testing.T) {
	errDisk := errors.New("disk full")
	fail := false
	kv := memory.New(memory.WithApplyHook(func([]storage.Op) error {
		if fail {
			return errDisk
		}
		return nil
	}))
	ctx := context.Background()

	s := openStore(t, kv, 4)
	for i := 1; i <= 3; i++ {
		_, _ = s.Add(ctx, domain.NewKeySlot(pid(byte(i))))
	}

	fail = true
	ops := []struct {
		name string
		run  func() error
	}{
		{"erase", func() error { return s.Erase(ctx, 0) }},
		{"add", func() error { _, err := s.Add(ctx, domain.NewKeySlot(pid(9))); return err }},
		{"reset", func() error { return s.ResetAll(ctx) }},
		{"boot", func() error { return s.IncrementBootCounts(ctx) }},
	}
	for _, op := range ops {
		err := op.run()
		if !errors.Is(err, domain.ErrStorageError) {
			t.Errorf("%s error = %v, want ErrStorageError", op.name, err)
		}
		if !errors.Is(err, errDisk) {
			t.Errorf("%s error does not wrap the cause: %v", op.name, err)
		}
	}

	fail = false
	if got := publicIDs(s.Slots()); string(got) != string([]byte{1, 2, 3}) {
		t.Errorf("in-memory slots changed: %v", got)
	}
	for _, slot := range s.Slots() {
		if slot.BootCount != 1 {
			t.Errorf("BootCount changed to %d", slot.BootCount)
		}
	}
	if got := publicIDs(openStore(t, kv, 4).Slots()); string(got) != string([]byte{1, 2, 3}) {
		t.Errorf("persisted slots changed: %v", got)
	}
}

func TestStore_ResetAll(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()
	s := openStore(t, kv, 4)
	_, _ = s.Add(ctx, domain.NewKeySlot(pid(1)))
	_, _ = s.Add(ctx, domain.NewKeySlot(pid(2)))

	if err := s.ResetAll(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d", s.Count())
	}
	if openStore(t, kv, 4).Count() != 0 {
		t.Error("reset not persisted")
	}
}

func TestStore_Replace(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, memory.New(), 3)
	_, _ = s.Add(ctx, domain.NewKeySlot(pid(1)))

	slots := []domain.KeySlot{
		{Enabled: true, PublicID: pid(7), BootCount: 10},
		{Enabled: true, PublicID: pid(8), BootCount: 20},
	}
	if err := s.Replace(ctx, slots); err != nil {
		t.Fatal(err)
	}
	got := s.Slots()
	if string(publicIDs(got)) != string([]byte{7, 8}) || got[0].BootCount != 11 || got[1].BootCount != 21 {
		t.Errorf("Replace() slots = %+v", got)
	}
	if slots[0].BootCount != 10 {
		t.Error("Replace() modified its argument")
	}

	tooMany := make([]domain.KeySlot, 4)
	if err := s.Replace(ctx, tooMany); !errors.Is(err, domain.ErrNoFreeKeySlot) {
		t.Errorf("Replace() over capacity error = %v", err)
	}
}

func TestStore_ReplaceNeverRewindsBootCount(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, memory.New(), 4)
	_, _ = s.Add(ctx, domain.NewKeySlot(pid(1)))
	_, _ = s.Add(ctx, domain.NewKeySlot(pid(2)))
	old := s.Slots()

	for i := 0; i < 5; i++ {
		if err := s.IncrementBootCounts(ctx); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		slots []domain.KeySlot
		want  []uint16
	}{
		// pid 1 and 2 are at 6 now.
		{"older image", old, []uint16{7, 7}},
		{"newer image", []domain.KeySlot{{Enabled: true, PublicID: pid(1), BootCount: 100}}, []uint16{101}},
		{"new key", []domain.KeySlot{{Enabled: true, PublicID: pid(3), BootCount: 4}}, []uint16{5}},
		{"wrap", []domain.KeySlot{{Enabled: true, PublicID: pid(4), BootCount: 0xFFFF}}, []uint16{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Replace(ctx, tt.slots); err != nil {
				t.Fatal(err)
			}
			got := s.Slots()
			if len(got) != len(tt.want) {
				t.Fatalf("Replace() slots = %+v", got)
			}
			for i, want := range tt.want {
				if got[i].BootCount != want {
					t.Errorf("slot %d boot count = %d, want %d", i, got[i].BootCount, want)
				}
			}
		})
	}
}

func TestStore_Badger(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	engine, err := storage.NewBadgerEngine(storage.DefaultKVConfig(dir), slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	s := openStore(t, engine, domain.MaxKeySlots)
	_, _ = s.Add(ctx, domain.NewKeySlot(pid(1)))
	_, _ = s.Add(ctx, domain.NewKeySlot(pid(2)))
	if err := s.Erase(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if err := engine.Close(); err != nil {
		t.Fatal(err)
	}

	engine, err = storage.NewBadgerEngine(storage.DefaultKVConfig(dir), slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()

	reopened := openStore(t, engine, domain.MaxKeySlots)
	if got := publicIDs(reopened.Slots()); string(got) != string([]byte{2}) {
		t.Errorf("slots after reopen = %v, want [2]", got)
	}
}
