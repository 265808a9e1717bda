package scan

import (
	"fmt"

	"github.com/relix-db/relix/internal/bufferpool"
	"github.com/relix-db/relix/internal/heapfile"
	"github.com/relix-db/relix/internal/record"
	"github.com/relix-db/relix/internal/storage"
)

// ModifyTableScan is TableScan with UPDATE/DELETE support. A grown UPDATE
// (the new encoding is larger than the old one) can't be rewritten
// in-place, so it's deleted from its old slot and reinserted through a
// second, independent HeapFileIterator (pushIter) — reusing the scan's
// own cursor for the reinsert would disturb the in-progress scan
// position.
type ModifyTableScan struct {
	ts       *TableScan
	fm       *storage.FileManager
	bp       *bufferpool.Manager
	filename string
	pushIter *heapfile.HeapFileIterator
}

func NewModifyTableScan(fm *storage.FileManager, bp *bufferpool.Manager, filename string, schema record.Schema) (*ModifyTableScan, error) {
	ts, err := NewTableScan(fm, bp, filename, schema)
	if err != nil {
		return nil, err
	}
	return &ModifyTableScan{ts: ts, fm: fm, bp: bp, filename: filename}, nil
}

func (m *ModifyTableScan) GetFirst() error              { return m.ts.GetFirst() }
func (m *ModifyTableScan) Next() (bool, error)           { return m.ts.Next() }
func (m *ModifyTableScan) Get() (record.Tuple, error)    { return m.ts.Get() }
func (m *ModifyTableScan) Schema() record.Schema         { return m.ts.Schema() }

func (m *ModifyTableScan) Close() {
	m.ts.Close()
	if m.pushIter != nil {
		m.pushIter.Close()
	}
}

// Delete frees the slot the cursor is currently positioned on and credits
// its record size back to the owning directory entry's free-space
// advisory.
func (m *ModifyTableScan) Delete() error {
	tup, err := m.ts.Get()
	if err != nil {
		return err
	}
	size := tup.RecordSize()

	tp, ok := m.ts.it.TuplePage()
	if !ok {
		return fmt.Errorf("scan: modify table scan: no current page")
	}
	slot := tp.Slot(m.ts.curSlot)
	tp.SetSlot(m.ts.curSlot, slot.WithOccupied(false))
	m.bp.MarkDirty(m.ts.it.CurrentPageId())
	m.ts.it.AdjustCurrentFreeSpace(int64(size))
	return nil
}

// Update applies assignments to the tuple the cursor is positioned on. If
// the new encoding is no larger than the old one, it's rewritten in
// place; otherwise the old slot is freed and the new tuple is pushed
// through pushIter, wherever in the heap file it fits.
func (m *ModifyTableScan) Update(assignments []Assignment) error {
	oldTup, err := m.ts.Get()
	if err != nil {
		return err
	}
	schema := m.ts.Schema()

	newFields := make([]record.WriteField, len(oldTup.Fields))
	copy(newFields, oldTup.Fields)
	for _, a := range assignments {
		idx, ok := schema.IndexOf("", a.Column)
		if !ok {
			return fmt.Errorf("scan: update: column %q not found in schema", a.Column)
		}
		val, err := a.Value.Evaluate(oldTup, schema)
		if err != nil {
			return err
		}
		wf, err := constantToField(schema.Columns[idx], val)
		if err != nil {
			return fmt.Errorf("scan: update: column %q: %w", a.Column, err)
		}
		newFields[idx] = wf
	}
	newTup := record.Tuple{Fields: newFields}

	oldSize := oldTup.RecordSize()
	newSize := newTup.RecordSize()

	tp, ok := m.ts.it.TuplePage()
	if !ok {
		return fmt.Errorf("scan: modify table scan: no current page")
	}
	slot := tp.Slot(m.ts.curSlot)

	if newSize > oldSize {
		tp.SetSlot(m.ts.curSlot, slot.WithOccupied(false))
		m.bp.MarkDirty(m.ts.it.CurrentPageId())
		m.ts.it.AdjustCurrentFreeSpace(int64(oldSize))

		if m.pushIter == nil {
			pi, err := heapfile.NewHeapFileIterator(m.fm, m.bp, m.filename)
			if err != nil {
				return err
			}
			m.pushIter = pi
		}
		if _, err := m.pushIter.InsertTuple(newTup.Encode()); err != nil {
			return fmt.Errorf("scan: update: reinsert grown tuple: %w", err)
		}
		return nil
	}

	off := slot.Offset()
	newBuf := newTup.Encode()
	copy(tp.Buf[off:int(off)+len(newBuf)], newBuf)
	m.bp.MarkDirty(m.ts.it.CurrentPageId())
	return nil
}

// constantToField converts an evaluated Constant back into the WriteField
// shape col's type expects.
func constantToField(col record.Column, c record.Constant) (record.WriteField, error) {
	switch col.Type {
	case record.IntType:
		if c.Kind != record.NumberKind {
			return nil, fmt.Errorf("expected a number, got a string")
		}
		return record.IntWriteField{Value: int32(c.Num)}, nil
	case record.VarCharType:
		if c.Kind != record.StringKind {
			return nil, fmt.Errorf("expected a string, got a number")
		}
		if len(c.Str) > col.Size {
			return nil, fmt.Errorf("value %q too long for VARCHAR(%d)", c.Str, col.Size)
		}
		return record.VarCharWriteField{Value: c.Str, MaxSize: col.Size}, nil
	case record.FixedCharType:
		if c.Kind != record.StringKind {
			return nil, fmt.Errorf("expected a string, got a number")
		}
		if len(c.Str) > col.Size {
			return nil, fmt.Errorf("value %q too long for CHAR(%d)", c.Str, col.Size)
		}
		return record.FixedCharWriteField{Value: c.Str, Size: col.Size}, nil
	default:
		return nil, fmt.Errorf("unknown column type")
	}
}
