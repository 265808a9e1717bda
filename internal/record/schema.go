// Package record implements the self-describing field/tuple model: typed
// fields that know how to read and write themselves, table-qualified
// schemas, and the Constant/Term/Predicate expression tree used to
// evaluate WHERE clauses against a tuple.
package record

import "fmt"

// FieldType names the on-disk encoding of a column.
type FieldType int

const (
	IntType FieldType = iota
	VarCharType
	FixedCharType
)

func (t FieldType) String() string {
	switch t {
	case IntType:
		return "INT"
	case VarCharType:
		return "VARCHAR"
	case FixedCharType:
		return "CHAR"
	default:
		return "UNKNOWN"
	}
}

// Column describes one field of a table: the table that owns it, its
// name, encoding, and (for VarChar/FixedChar) the reserved byte width.
// Table is what lets a joined schema's columns resolve qualified
// references ("departments.location") back to the table each column
// actually came from.
type Column struct {
	Table string
	Name  string
	Type  FieldType
	Size  int // VarChar: max physical byte width; FixedChar: exact byte width; Int: ignored
}

// Schema is the ordered field list a Tuple is interpreted against. Table
// names the schema's single owning table; for a schema built by Concat
// (a join), each Column carries its own owning table instead and Table is
// left blank.
type Schema struct {
	Table   string
	Columns []Column
}

func (s Schema) NumCols() int { return len(s.Columns) }

// IndexOf returns the position of a field matching name, optionally
// qualified by table. An empty table qualifier matches any table (bare
// column reference); a non-empty one must match the owning column's own
// Table exactly, so a qualified reference into either side of a join
// resolves to the right column.
func (s Schema) IndexOf(table, name string) (int, bool) {
	for i, c := range s.Columns {
		if c.Name != name {
			continue
		}
		if table == "" || table == c.Table {
			return i, true
		}
	}
	return -1, false
}

func (s Schema) Column(i int) Column { return s.Columns[i] }

// NewReadField returns the ReadField implementation appropriate for col.
func NewReadField(col Column) (ReadField, error) {
	switch col.Type {
	case IntType:
		return IntReadField{}, nil
	case VarCharType:
		return VarCharReadField{MaxSize: col.Size}, nil
	case FixedCharType:
		return FixedCharReadField{Size: col.Size}, nil
	default:
		return nil, fmt.Errorf("record: unknown field type %v", col.Type)
	}
}

// Concat returns a new schema whose columns are s's followed by other's —
// used to build a ProductScan's combined schema. Each column keeps its own
// owning Table, so qualified references into either side still resolve
// after the two schemas are joined.
func Concat(s, other Schema) Schema {
	cols := make([]Column, 0, len(s.Columns)+len(other.Columns))
	cols = append(cols, s.Columns...)
	cols = append(cols, other.Columns...)
	return Schema{Columns: cols}
}
