// Package keyslot implements the fixed-capacity keyslot store.
package keyslot

import (
	"fmt"

	"github.com/yndnr/otpslot-go/internal/core/domain"
)

// Table is a fixed-capacity array of keyslot records.
//
// Enabled records always occupy a contiguous prefix. A Table is not
// safe for concurrent use.
type Table struct {
	slots []domain.KeySlot
}

// NewTable creates an empty table with room for capacity slots.
func NewTable(capacity int) *Table {
	return &Table{slots: make([]domain.KeySlot, capacity)}
}

// Capacity returns the number of records.
func (t *Table) Capacity() int {
	return len(t.slots)
}

// Count returns the number of enabled slots.
func (t *Table) Count() int {
	i, ok := t.FindFreeIndex()
	if !ok {
		return len(t.slots)
	}
	return i
}

// FindFreeIndex returns the first disabled record.
func (t *Table) FindFreeIndex() (int, bool) {
	for i := range t.slots {
		if !t.slots[i].Enabled {
			return i, true
		}
	}
	return 0, false
}

// Add stores slot in the first disabled record and returns its index.
// A full table is left unchanged and yields domain.ErrNoFreeKeySlot.
func (t *Table) Add(slot domain.KeySlot) (int, error) {
	i, ok := t.FindFreeIndex()
	if !ok {
		return 0, domain.ErrNoFreeKeySlot
	}
	slot.Enabled = true
	t.slots[i] = slot
	return i, nil
}

// Get returns the enabled slot at index.
func (t *Table) Get(index int) (domain.KeySlot, error) {
	if index < 0 || index >= len(t.slots) || !t.slots[index].Enabled {
		return domain.KeySlot{}, domain.ErrKeySlotNotFound.WithDetails(fmt.Sprintf("index %d", index))
	}
	return t.slots[index], nil
}

// Erase clears the record at index and shifts the later enabled records
// down by one, clearing the vacated tail record.
func (t *Table) Erase(index int) error {
	if _, err := t.Get(index); err != nil {
		return err
	}

	last := index
	for last+1 < len(t.slots) && t.slots[last+1].Enabled {
		t.slots[last] = t.slots[last+1]
		last++
	}
	t.slots[last] = domain.KeySlot{}
	return nil
}

// Reset clears every record.
func (t *Table) Reset() {
	for i := range t.slots {
		t.slots[i] = domain.KeySlot{}
	}
}

// IncrementBootCounts adds one to the boot count of every enabled slot.
// The counter wraps at 65535 like the 16-bit field it is sent in.
func (t *Table) IncrementBootCounts() {
	for i := range t.slots {
		if t.slots[i].Enabled {
			t.slots[i].BootCount++
		}
	}
}

// Contains reports whether an enabled slot uses publicID.
func (t *Table) Contains(publicID domain.PublicID) bool {
	for i := range t.slots {
		if t.slots[i].Enabled && t.slots[i].PublicID == publicID {
			return true
		}
	}
	return false
}

// Slots returns a copy of the enabled prefix.
func (t *Table) Slots() []domain.KeySlot {
	n := t.Count()
	out := make([]domain.KeySlot, n)
	copy(out, t.slots[:n])
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := &Table{slots: make([]domain.KeySlot, len(t.slots))}
	copy(c.slots, t.slots)
	return c
}

// Validate checks the contiguous-prefix invariant and that disabled
// records are zeroed.
func (t *Table) Validate() error {
	seenFree := false
	for i, s := range t.slots {
		switch {
		case !s.Enabled:
			if s != (domain.KeySlot{}) {
				return fmt.Errorf("record %d: disabled but not cleared", i)
			}
			seenFree = true
		case seenFree:
			return fmt.Errorf("record %d: enabled after a free record", i)
		}
	}
	return nil
}
