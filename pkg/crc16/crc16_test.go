package crc16

import (
	"crypto/rand"
	"testing"
)

func TestChecksum_KnownAnswer(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  uint16
	}{
		{"empty", nil, 0xFFFF},
		{"check string", []byte("123456789"), 0x6F91},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.input); got != tt.want {
				t.Errorf("Checksum(%q) = %#04x, want %#04x", tt.input, got, tt.want)
			}
		})
	}
}

func TestUpdate_Deterministic(t *testing.T) {
	data := make([]byte, 64)
	if _, err := rand.Read(data); err != nil {
		t.Fatalf("rand.Read() error = %v", err)
	}

	a := Update(0x1234, data)
	b := Update(0x1234, data)
	if a != b {
		t.Errorf("Update() not deterministic: %#04x != %#04x", a, b)
	}
}

func TestUpdate_Resumable(t *testing.T) {
	data := make([]byte, 32)
	if _, err := rand.Read(data); err != nil {
		t.Fatalf("rand.Read() error = %v", err)
	}

	whole := Checksum(data)
	for split := 0; split <= len(data); split++ {
		partial := Update(Init, data[:split])
		if got := Update(partial, data[split:]); got != whole {
			t.Errorf("split at %d: got %#04x, want %#04x", split, got, whole)
		}
	}
}

func TestResidual_ComplementSuffix(t *testing.T) {
	for i := 0; i < 100; i++ {
		block := make([]byte, 16)
		if _, err := rand.Read(block[:14]); err != nil {
			t.Fatalf("rand.Read() error = %v", err)
		}

		c := ^Checksum(block[:14])
		block[14] = byte(c)
		block[15] = byte(c >> 8)

		if !Verify(block) {
			t.Fatalf("Verify(%x) = false, checksum %#04x", block, Checksum(block))
		}
	}
}

func TestVerify_DetectsCorruption(t *testing.T) {
	block := []byte("0123456789abcd")
	c := ^Checksum(block)
	block = append(block, byte(c), byte(c>>8))
	if !Verify(block) {
		t.Fatal("Verify() = false for valid block")
	}

	block[3] ^= 0x01
	if Verify(block) {
		t.Error("Verify() = true after flipping a bit")
	}
}

func BenchmarkUpdate(b *testing.B) {
	data := make([]byte, 16)
	for i := 0; i < b.N; i++ {
		Update(Init, data)
	}
}
