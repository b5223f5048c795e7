package keyslot

import (
	"bytes"
	"testing"

	"github.com/yndnr/otpslot-go/internal/core/domain"
)

func TestSlotCodec(t *testing.T) {
	slot := domain.KeySlot{
		Enabled:   true,
		PublicID:  domain.PublicID{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc},
		BootCount: 0x0102,
	}

	raw := encodeSlot(slot)
	want := []byte{0x01, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0x02, 0x01}
	if !bytes.Equal(raw, want) {
		t.Fatalf("encodeSlot() = % x, want % x", raw, want)
	}

	got, err := decodeSlot(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got != slot {
		t.Errorf("decodeSlot() = %+v, want %+v", got, slot)
	}

	if !bytes.Equal(encodeSlot(domain.KeySlot{}), make([]byte, recordLength)) {
		t.Error("disabled slot does not encode to zeroes")
	}
}

func TestDecodeSlot_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"empty", nil},
		{"short", make([]byte, recordLength-1)},
		{"long", make([]byte, recordLength+1)},
		{"bad flag", append([]byte{0x02}, make([]byte, recordLength-1)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeSlot(tt.raw); err == nil {
				t.Error("decodeSlot() expected error")
			}
		})
	}
}

func TestCapacityCodec(t *testing.T) {
	c, err := decodeCapacity(encodeCapacity(8))
	if err != nil || c != 8 {
		t.Errorf("capacity round trip = %d, %v", c, err)
	}

	for _, raw := range [][]byte{nil, {0, 0}, {0, 100}, {1}} {
		if _, err := decodeCapacity(raw); err == nil {
			t.Errorf("decodeCapacity(% x) expected error", raw)
		}
	}
}

func TestSlotKey(t *testing.T) {
	if got := string(slotKey(3)); got != "slot/03" {
		t.Errorf("slotKey(3) = %q", got)
	}
	if got := string(slotKey(42)); got != "slot/42" {
		t.Errorf("slotKey(42) = %q", got)
	}
	if !bytes.Equal(encodeMagic(), []byte{0x04, 0x20, 0xEC, 0x41}) {
		t.Errorf("encodeMagic() = % x", encodeMagic())
	}
}
