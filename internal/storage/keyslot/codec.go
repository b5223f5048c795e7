// Package keyslot implements the fixed-capacity keyslot store.
package keyslot

import (
	"encoding/binary"
	"fmt"

	"github.com/yndnr/otpslot-go/internal/core/domain"
)

// Key layout.
var (
	keyMagic    = []byte("meta/magic")
	keyCapacity = []byte("meta/capacity")
	slotPrefix  = []byte("slot/")
)

// recordLength is the encoded size of one keyslot record.
const recordLength = 1 + domain.PublicIDLength + 2

func slotKey(index int) []byte {
	return []byte(fmt.Sprintf("%s%02d", slotPrefix, index))
}

func encodeMagic() []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, domain.StorageMagic)
	return b
}

func encodeCapacity(capacity int) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(capacity))
	return b
}

func decodeCapacity(b []byte) (int, error) {
	if len(b) != 2 {
		return 0, fmt.Errorf("capacity record: %d bytes", len(b))
	}
	c := int(binary.BigEndian.Uint16(b))
	if c < 1 || c > domain.MaxCapacity {
		return 0, fmt.Errorf("capacity %d out of range", c)
	}
	return c, nil
}

func encodeSlot(s domain.KeySlot) []byte {
	b := make([]byte, recordLength)
	if s.Enabled {
		b[0] = 1
	}
	copy(b[1:], s.PublicID[:])
	binary.LittleEndian.PutUint16(b[1+domain.PublicIDLength:], s.BootCount)
	return b
}

func decodeSlot(b []byte) (domain.KeySlot, error) {
	if len(b) != recordLength {
		return domain.KeySlot{}, fmt.Errorf("slot record: %d bytes", len(b))
	}
	if b[0] > 1 {
		return domain.KeySlot{}, fmt.Errorf("slot record: enabled flag %#02x", b[0])
	}

	var s domain.KeySlot
	s.Enabled = b[0] == 1
	copy(s.PublicID[:], b[1:])
	s.BootCount = binary.LittleEndian.Uint16(b[1+domain.PublicIDLength:])
	return s, nil
}
