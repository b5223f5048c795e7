package metric

import (
	"strings"
	"testing"
)

type fakeSlots struct{ count, capacity int }

func (f *fakeSlots) Count() int    { return f.count }
func (f *fakeSlots) Capacity() int { return f.capacity }

func TestCollector(t *testing.T) {
	src := &fakeSlots{count: 2, capacity: 8}
	r := NewRegistry()
	if err := r.RegisterSlots(src); err != nil {
		t.Fatalf("RegisterSlots() error = %v", err)
	}

	body := textfile(t, r)
	if !strings.Contains(body, "otpslot_keyslots_enabled 2") {
		t.Error("expected otpslot_keyslots_enabled 2")
	}
	if !strings.Contains(body, "otpslot_keyslots_capacity 8") {
		t.Error("expected otpslot_keyslots_capacity 8")
	}

	// Values are read at gather time.
	src.count = 5
	body = textfile(t, r)
	if !strings.Contains(body, "otpslot_keyslots_enabled 5") {
		t.Error("expected otpslot_keyslots_enabled 5 after change")
	}
}

func TestCollector_DoubleRegister(t *testing.T) {
	r := NewRegistry()
	src := &fakeSlots{capacity: 8}
	if err := r.RegisterSlots(src); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterSlots(src); err == nil {
		t.Error("second RegisterSlots() should fail")
	}
}
