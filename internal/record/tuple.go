package record

import "fmt"

// Tuple is a fully materialized row: one WriteField per column of the
// schema it was built or decoded against, in schema order.
type Tuple struct {
	Fields []WriteField
}

// RecordSize is the total encoded byte length of the tuple — the sum of
// every field's self-reported Length().
func (t Tuple) RecordSize() int {
	n := 0
	for _, f := range t.Fields {
		n += f.Length()
	}
	return n
}

// Encode serializes the tuple to a freshly allocated byte slice.
func (t Tuple) Encode() []byte {
	buf := make([]byte, t.RecordSize())
	off := 0
	for _, f := range t.Fields {
		f.Write(buf, off)
		off += f.Length()
	}
	return buf
}

// Get returns the value of the field at schema position i as a Constant.
func (t Tuple) Get(i int) Constant {
	return t.Fields[i].Constant()
}

// NewTuple builds a tuple from schema-ordered literal SQL tokens: values[i]
// is parsed against schema.Columns[i]'s type.
func NewTuple(schema Schema, values []string) (Tuple, error) {
	if len(values) != len(schema.Columns) {
		return Tuple{}, fmt.Errorf("record: expected %d values, got %d", len(schema.Columns), len(values))
	}
	fields := make([]WriteField, len(values))
	for i, col := range schema.Columns {
		rf, err := NewReadField(col)
		if err != nil {
			return Tuple{}, err
		}
		wf, err := rf.FromLiteral(values[i])
		if err != nil {
			return Tuple{}, fmt.Errorf("record: column %q: %w", col.Name, err)
		}
		fields[i] = wf
	}
	return Tuple{Fields: fields}, nil
}

// DecodeTuple parses a tuple out of buf starting at offset, according to
// schema's column order, and returns it along with the number of bytes
// consumed.
func DecodeTuple(schema Schema, buf []byte, offset int) (Tuple, int, error) {
	fields := make([]WriteField, len(schema.Columns))
	start := offset
	for i, col := range schema.Columns {
		rf, err := NewReadField(col)
		if err != nil {
			return Tuple{}, 0, err
		}
		wf, n, err := rf.FromBytes(buf, offset)
		if err != nil {
			return Tuple{}, 0, fmt.Errorf("record: column %q: %w", col.Name, err)
		}
		fields[i] = wf
		offset += n
	}
	return Tuple{Fields: fields}, offset - start, nil
}
