package storage

import "fmt"

// Slot is a 4-byte (occupied-bit, offset) pair inside a TuplePage's slot
// array. The high bit marks occupancy; the remaining 31 bits hold the byte
// offset of the record within the page.
type Slot uint32

// NewSlot builds an unoccupied slot with no offset.
func NewSlot() Slot { return 0 }

func (s Slot) IsOccupied() bool {
	return uint32(s)&FirstBit != 0
}

func (s Slot) Offset() uint32 {
	return uint32(s) & AllOtherBits
}

// WithOccupied returns a copy of s with the occupancy bit set to occupied,
// offset unchanged.
func (s Slot) WithOccupied(occupied bool) Slot {
	v := uint32(s) & AllOtherBits
	if occupied {
		v |= FirstBit
	}
	return Slot(v)
}

// WithOffset returns a copy of s with a new offset, occupancy bit
// unchanged. Panics if offset does not fit in 31 bits — a page can never
// legitimately produce an offset this large, so this is a programmer-error
// guard, not a data-driven failure.
func (s Slot) WithOffset(offset uint32) Slot {
	if offset > AllOtherBits {
		panic(fmt.Sprintf("storage: slot offset %d exceeds %d-bit range", offset, 31))
	}
	occupied := uint32(s) & FirstBit
	return Slot(occupied | offset)
}
