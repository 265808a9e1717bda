package scan

import (
	"fmt"

	"github.com/relix-db/relix/internal/record"
)

// ProjectScan narrows an inner scan's tuples down to a chosen list of
// fields, renaming the schema to match.
type ProjectScan struct {
	inner   Scan
	indices []int
	schema  record.Schema
}

// NewProjectScan resolves each name in fields against inner's schema
// (table-qualified or bare) and builds the projected schema. An
// unresolved field name is a SchemaMismatch — fatal, not a query result.
func NewProjectScan(inner Scan, fields []string) (*ProjectScan, error) {
	innerSchema := inner.Schema()
	indices := make([]int, len(fields))
	cols := make([]record.Column, len(fields))
	for i, f := range fields {
		table, name := splitQualified(f)
		pos, ok := innerSchema.IndexOf(table, name)
		if !ok {
			return nil, fmt.Errorf("scan: field %q not found in inner schema", f)
		}
		indices[i] = pos
		cols[i] = innerSchema.Columns[pos]
	}
	return &ProjectScan{inner: inner, indices: indices, schema: record.Schema{Columns: cols}}, nil
}

func (s *ProjectScan) GetFirst() error      { return s.inner.GetFirst() }
func (s *ProjectScan) Next() (bool, error)  { return s.inner.Next() }
func (s *ProjectScan) Schema() record.Schema { return s.schema }
func (s *ProjectScan) Close()                { s.inner.Close() }

func (s *ProjectScan) Get() (record.Tuple, error) {
	tup, err := s.inner.Get()
	if err != nil {
		return record.Tuple{}, err
	}
	fields := make([]record.WriteField, len(s.indices))
	for i, pos := range s.indices {
		fields[i] = tup.Fields[pos]
	}
	return record.Tuple{Fields: fields}, nil
}
