package storage

import "github.com/relix-db/relix/internal/alias/bx"

// Tuple page header layout (24 bytes), followed by a Slot array growing
// upward and packed record bytes growing downward from the end of the
// page:
//
//	offset  0  page_type              uint32
//	offset  4  checksum               uint64 (advisory; 0 = unset)
//	offset 12  page_size              uint32
//	offset 16  slot_count             uint32
//	offset 20  last_occupied_offset   uint32 (byte offset of the lowest
//	                                          occupied record; equals
//	                                          page_size when the page is empty)
//	offset 24  slots[slot_count]      Slot
//	...        free space...
//	...        packed record bytes, growing downward
const (
	tpOffPageType    = 0
	tpOffChecksum    = 4
	tpOffPageSize    = 12
	tpOffSlotCount   = 16
	tpOffLastOffset  = 20
	tpOffSlotsStart  = 24
)

// TuplePage is a thin accessor over a raw page buffer formatted as a
// tuple page.
type TuplePage struct {
	Buf []byte
}

// InitTuplePage zero-fills buf and writes a fresh, empty tuple-page header.
func InitTuplePage(buf []byte) TuplePage {
	clear(buf)
	p := TuplePage{Buf: buf}
	p.SetPageType(PageTypeTuple)
	p.SetChecksum(0)
	p.SetPageSize(uint32(len(buf)))
	p.SetSlotCount(0)
	p.SetLastOccupiedOffset(uint32(len(buf)))
	return p
}

func (p TuplePage) PageType() PageType { return PageType(bx.U32At(p.Buf, tpOffPageType)) }
func (p TuplePage) SetPageType(t PageType) {
	bx.PutU32At(p.Buf, tpOffPageType, uint32(t))
}

func (p TuplePage) Checksum() uint64      { return bx.U64At(p.Buf, tpOffChecksum) }
func (p TuplePage) SetChecksum(c uint64)  { bx.PutU64At(p.Buf, tpOffChecksum, c) }

func (p TuplePage) PageSize() uint32     { return bx.U32At(p.Buf, tpOffPageSize) }
func (p TuplePage) SetPageSize(n uint32) { bx.PutU32At(p.Buf, tpOffPageSize, n) }

func (p TuplePage) SlotCount() uint32     { return bx.U32At(p.Buf, tpOffSlotCount) }
func (p TuplePage) SetSlotCount(n uint32) { bx.PutU32At(p.Buf, tpOffSlotCount, n) }

func (p TuplePage) LastOccupiedOffset() uint32 { return bx.U32At(p.Buf, tpOffLastOffset) }
func (p TuplePage) SetLastOccupiedOffset(off uint32) {
	bx.PutU32At(p.Buf, tpOffLastOffset, off)
}

func (p TuplePage) slotOffset(i int) int {
	return tpOffSlotsStart + i*SlotSize
}

// Slot reads the i-th slot. i must be < SlotCount().
func (p TuplePage) Slot(i int) Slot {
	return Slot(bx.U32At(p.Buf, p.slotOffset(i)))
}

// SetSlot writes the i-th slot.
func (p TuplePage) SetSlot(i int, s Slot) {
	bx.PutU32At(p.Buf, p.slotOffset(i), uint32(s))
}

// AppendSlot grows the slot array by one unoccupied entry and returns its
// index. Caller is responsible for checking there is room first.
func (p TuplePage) AppendSlot() int {
	i := int(p.SlotCount())
	p.SetSlot(i, NewSlot())
	p.SetSlotCount(uint32(i + 1))
	return i
}

// SlotArrayEnd is the byte offset just past the last slot — where free
// space begins.
func (p TuplePage) SlotArrayEnd() uint32 {
	return uint32(tpOffSlotsStart) + p.SlotCount()*SlotSize
}

// FreeSpace is the number of bytes currently available between the end of
// the slot array and the lowest occupied record.
func (p TuplePage) FreeSpace() uint32 {
	end := p.SlotArrayEnd()
	last := p.LastOccupiedOffset()
	if last < end {
		return 0
	}
	return last - end
}

// WriteRecord copies rec to end just below offset off and updates
// last_occupied_offset. Caller guarantees off == LastOccupiedOffset()-len(rec).
func (p TuplePage) WriteRecord(off uint32, rec []byte) {
	copy(p.Buf[off:int(off)+len(rec)], rec)
	p.SetLastOccupiedOffset(off)
}

// ReadRecord returns the len bytes starting at off.
func (p TuplePage) ReadRecord(off uint32, length uint32) []byte {
	return p.Buf[off : off+length]
}
