// Package catalog implements the system catalog: a "schema" heap file that
// stores every user table's columns as ordinary tuples
// (table_name, field_name, field_type, field_order), plus a
// zstd-compressed JSON snapshot used as a fast-path cache on open.
package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relix-db/relix/internal/record"
)

// SchemaFile is the name of the heap file backing the system catalog.
const SchemaFile = "schema.heap"

// schemaTableSchema describes the catalog's own heap file layout.
var schemaTableSchema = record.Schema{
	Table: "schema",
	Columns: []record.Column{
		{Table: "schema", Name: "table_name", Type: record.VarCharType, Size: 64},
		{Table: "schema", Name: "field_name", Type: record.VarCharType, Size: 64},
		{Table: "schema", Name: "field_type", Type: record.VarCharType, Size: 32},
		{Table: "schema", Name: "field_order", Type: record.IntType},
	},
}

// formatFieldType renders a Column's type (and size, for VarChar/FixedChar)
// as the single string stored in the field_type column — e.g. "INT",
// "VARCHAR(40)", "CHAR(10)".
func formatFieldType(c record.Column) string {
	switch c.Type {
	case record.IntType:
		return "INT"
	case record.VarCharType:
		return fmt.Sprintf("VARCHAR(%d)", c.Size)
	case record.FixedCharType:
		return fmt.Sprintf("CHAR(%d)", c.Size)
	default:
		return "INT"
	}
}

// parseFieldType is formatFieldType's inverse.
func parseFieldType(s string) (record.FieldType, int, error) {
	s = strings.TrimSpace(s)
	if s == "INT" {
		return record.IntType, 0, nil
	}
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return 0, 0, fmt.Errorf("catalog: malformed field type %q", s)
	}
	kind := s[:open]
	sizeStr := s[open+1 : len(s)-1]
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return 0, 0, fmt.Errorf("catalog: malformed field type %q: %w", s, err)
	}
	switch kind {
	case "VARCHAR":
		return record.VarCharType, size, nil
	case "CHAR":
		return record.FixedCharType, size, nil
	default:
		return 0, 0, fmt.Errorf("catalog: unknown field type %q", s)
	}
}

// encodeColumnRow builds the catalog row for one column of one table.
func encodeColumnRow(tableName string, order int, col record.Column) []byte {
	t := record.Tuple{Fields: []record.WriteField{
		record.VarCharWriteField{Value: tableName, MaxSize: 64},
		record.VarCharWriteField{Value: col.Name, MaxSize: 64},
		record.VarCharWriteField{Value: formatFieldType(col), MaxSize: 32},
		record.IntWriteField{Value: int32(order)},
	}}
	return t.Encode()
}

// decodeColumnRow parses one catalog row back into (tableName, order,
// column, encoded length).
func decodeColumnRow(buf []byte) (string, int, record.Column, int, error) {
	tup, n, err := record.DecodeTuple(schemaTableSchema, buf, 0)
	if err != nil {
		return "", 0, record.Column{}, 0, err
	}
	tableName := tup.Fields[0].(record.VarCharWriteField).Value
	fieldName := tup.Fields[1].(record.VarCharWriteField).Value
	typeStr := tup.Fields[2].(record.VarCharWriteField).Value
	order := int(tup.Fields[3].(record.IntWriteField).Value)
	ft, size, err := parseFieldType(typeStr)
	if err != nil {
		return "", 0, record.Column{}, 0, err
	}
	return tableName, order, record.Column{Table: tableName, Name: fieldName, Type: ft, Size: size}, n, nil
}

// heapFileName is the heap file backing a user table named name.
func heapFileName(name string) string {
	return name + ".heap"
}
