package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/yndnr/otpslot-go/internal/storage"
)

func TestEngine_GetSetDelete(t *testing.T) {
	e := New()
	ctx := context.Background()

	if _, err := e.Get(ctx, []byte("k")); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Fatalf("Get() on empty engine error = %v", err)
	}

	value := []byte("v1")
	if err := e.Set(ctx, []byte("k"), value); err != nil {
		t.Fatal(err)
	}
	value[0] = 'x' // must not alias stored data

	got, err := e.Get(ctx, []byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v1" {
		t.Errorf("Get() = %q, want v1", got)
	}

	got[0] = 'y'
	again, _ := e.Get(ctx, []byte("k"))
	if string(again) != "v1" {
		t.Errorf("Get() result aliases stored data: %q", again)
	}

	if err := e.Delete(ctx, []byte("k")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Get(ctx, []byte("k")); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Errorf("Get() after Delete error = %v", err)
	}
}

func TestEngine_Scan(t *testing.T) {
	e := New()
	ctx := context.Background()

	for _, k := range []string{"slot/02", "meta/magic", "slot/00", "slot/01"} {
		if err := e.Set(ctx, []byte(k), []byte(k)); err != nil {
			t.Fatal(err)
		}
	}

	var keys []string
	err := e.Scan(ctx, []byte("slot/"), func(key, _ []byte) bool {
		keys = append(keys, string(key))
		return true
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"slot/00", "slot/01", "slot/02"}
	if len(keys) != len(want) {
		t.Fatalf("Scan() keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}

	count := 0
	_ = e.Scan(ctx, []byte("slot/"), func(_, _ []byte) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("Scan() did not stop early, count = %d", count)
	}
}

func TestEngine_ApplyHook(t *testing.T) {
	errDisk := errors.New("disk full")
	fail := false
	e := New(WithApplyHook(func(ops []storage.Op) error {
		if fail {
			return errDisk
		}
		return nil
	}))
	ctx := context.Background()

	if err := e.Set(ctx, []byte("a"), []byte("1")); err != nil {
		t.Fatal(err)
	}

	fail = true
	err := e.Apply(ctx, []storage.Op{
		storage.Put([]byte("b"), []byte("2")),
		storage.Del([]byte("a")),
	})
	if !errors.Is(err, errDisk) {
		t.Fatalf("Apply() error = %v, want %v", err, errDisk)
	}

	if _, err := e.Get(ctx, []byte("a")); err != nil {
		t.Errorf("vetoed batch deleted a: %v", err)
	}
	if _, err := e.Get(ctx, []byte("b")); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Errorf("vetoed batch wrote b: %v", err)
	}
}

func TestEngine_StatsAndClose(t *testing.T) {
	e := New()
	ctx := context.Background()

	_ = e.Set(ctx, []byte("ab"), []byte("cde"))
	stats, err := e.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalKeys != 1 || stats.TotalSize != 5 {
		t.Errorf("Stats() = %+v", stats)
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Get(ctx, []byte("ab")); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Get() after Close error = %v", err)
	}
	if err := e.Set(ctx, []byte("ab"), nil); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Set() after Close error = %v", err)
	}
}
