package keyslot

import (
	"errors"
	"testing"

	"github.com/yndnr/otpslot-go/internal/core/domain"
)

func pid(b byte) domain.PublicID {
	return domain.PublicID{b, b, b, b, b, b}
}

func fillTable(t *testing.T, table *Table, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		idx, err := table.Add(domain.NewKeySlot(pid(byte(i + 1))))
		if err != nil {
			t.Fatalf("Add(%d) error = %v", i, err)
		}
		if idx != i {
			t.Fatalf("Add(%d) index = %d", i, idx)
		}
	}
}

func publicIDs(slots []domain.KeySlot) []byte {
	out := make([]byte, len(slots))
	for i, s := range slots {
		out[i] = s.PublicID[0]
	}
	return out
}

func TestTable_AddFillsPrefix(t *testing.T) {
	table := NewTable(domain.MaxKeySlots)

	if table.Count() != 0 {
		t.Fatalf("Count() = %d on empty table", table.Count())
	}
	if i, ok := table.FindFreeIndex(); !ok || i != 0 {
		t.Fatalf("FindFreeIndex() = %d, %v", i, ok)
	}

	fillTable(t, table, domain.MaxKeySlots)

	if table.Count() != domain.MaxKeySlots {
		t.Errorf("Count() = %d, want %d", table.Count(), domain.MaxKeySlots)
	}
	if _, ok := table.FindFreeIndex(); ok {
		t.Error("FindFreeIndex() found a slot in a full table")
	}
	if err := table.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestTable_AddFull(t *testing.T) {
	table := NewTable(domain.MaxKeySlots)
	fillTable(t, table, domain.MaxKeySlots)
	before := table.Clone()

	_, err := table.Add(domain.NewKeySlot(pid(0xEE)))
	if !errors.Is(err, domain.ErrNoFreeKeySlot) {
		t.Fatalf("Add() error = %v, want ErrNoFreeKeySlot", err)
	}
	for i := 0; i < table.Capacity(); i++ {
		if table.record(i) != before.record(i) {
			t.Errorf("record %d changed on failed add", i)
		}
	}
}

func TestTable_Erase(t *testing.T) {
	tests := []struct {
		name  string
		fill  int
		erase int
		want  []byte
	}{
		{"middle of three", 3, 1, []byte{1, 3}},
		{"first of three", 3, 0, []byte{2, 3}},
		{"last of three", 3, 2, []byte{1, 2}},
		{"only slot", 1, 0, []byte{}},
		{"first of full table", domain.MaxKeySlots, 0, []byte{2, 3, 4, 5, 6, 7, 8}},
		{"last of full table", domain.MaxKeySlots, domain.MaxKeySlots - 1, []byte{1, 2, 3, 4, 5, 6, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewTable(domain.MaxKeySlots)
			fillTable(t, table, tt.fill)

			if err := table.Erase(tt.erase); err != nil {
				t.Fatalf("Erase() error = %v", err)
			}

			got := publicIDs(table.Slots())
			if string(got) != string(tt.want) {
				t.Errorf("slots = %v, want %v", got, tt.want)
			}
			if table.Count() != tt.fill-1 {
				t.Errorf("Count() = %d, want %d", table.Count(), tt.fill-1)
			}
			if err := table.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
			if table.record(tt.fill-1) != (domain.KeySlot{}) {
				t.Errorf("vacated record %d not cleared: %+v", tt.fill-1, table.record(tt.fill-1))
			}
		})
	}
}

func TestTable_EraseKeepsBootCounts(t *testing.T) {
	table := NewTable(4)
	fillTable(t, table, 3)
	table.slots[2].BootCount = 42

	if err := table.Erase(0); err != nil {
		t.Fatal(err)
	}
	if got := table.record(1).BootCount; got != 42 {
		t.Errorf("shifted BootCount = %d, want 42", got)
	}
}

func TestTable_EraseInvalid(t *testing.T) {
	table := NewTable(4)
	fillTable(t, table, 2)

	for _, idx := range []int{-1, 2, 3, 4, 100} {
		if err := table.Erase(idx); !errors.Is(err, domain.ErrKeySlotNotFound) {
			t.Errorf("Erase(%d) error = %v, want ErrKeySlotNotFound", idx, err)
		}
	}
	if table.Count() != 2 {
		t.Errorf("Count() = %d after invalid erases", table.Count())
	}
}

func TestTable_Get(t *testing.T) {
	table := NewTable(4)
	fillTable(t, table, 2)

	slot, err := table.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if slot.PublicID != pid(2) {
		t.Errorf("Get(1).PublicID = %v", slot.PublicID)
	}
	if _, err := table.Get(2); !errors.Is(err, domain.ErrKeySlotNotFound) {
		t.Errorf("Get(2) error = %v", err)
	}
}

func TestTable_Reset(t *testing.T) {
	table := NewTable(4)
	fillTable(t, table, 4)

	table.Reset()

	if table.Count() != 0 {
		t.Errorf("Count() = %d after Reset", table.Count())
	}
	for i := 0; i < 4; i++ {
		if table.record(i) != (domain.KeySlot{}) {
			t.Errorf("record %d not cleared", i)
		}
	}
}

func TestTable_IncrementBootCounts(t *testing.T) {
	table := NewTable(4)
	fillTable(t, table, 2)
	table.slots[1].BootCount = 0xFFFF

	table.IncrementBootCounts()

	if got := table.record(0).BootCount; got != 2 {
		t.Errorf("slot 0 BootCount = %d, want 2", got)
	}
	if got := table.record(1).BootCount; got != 0 {
		t.Errorf("slot 1 BootCount = %d, want wrap to 0", got)
	}
	if table.record(2) != (domain.KeySlot{}) {
		t.Error("disabled record was touched")
	}
}

func TestTable_Contains(t *testing.T) {
	table := NewTable(4)
	fillTable(t, table, 2)

	if !table.Contains(pid(2)) {
		t.Error("Contains() = false for enabled slot")
	}
	if table.Contains(pid(3)) {
		t.Error("Contains() = true for unused id")
	}
	if table.Contains(domain.PublicID{}) {
		t.Error("Contains() matched a disabled record")
	}
}

func TestTable_Clone(t *testing.T) {
	table := NewTable(2)
	fillTable(t, table, 1)

	c := table.Clone()
	c.IncrementBootCounts()

	if table.record(0).BootCount != 1 {
		t.Error("Clone() shares storage with the original")
	}
}

func TestTable_Validate(t *testing.T) {
	gap := NewTable(3)
	gap.slots[1] = domain.NewKeySlot(pid(1))
	if err := gap.Validate(); err == nil {
		t.Error("Validate() accepted an enabled record after a free one")
	}

	dirty := NewTable(2)
	dirty.slots[0].BootCount = 3
	if err := dirty.Validate(); err == nil {
		t.Error("Validate() accepted a disabled record with data")
	}
}

// record returns the raw record at index, enabled or not.
func (t *Table) record(index int) domain.KeySlot {
	return t.slots[index]
}
