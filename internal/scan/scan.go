// Package scan implements the Volcano-style iterator pipeline that sits
// above heapfile/record: TableScan reads a heap file tuple by tuple;
// SelectScan, ProjectScan, and ProductScan compose to build the rest of a
// query plan; ModifyTableScan and its Select/Product wrappers add
// UPDATE/DELETE support; and an external merge sort provides ORDER BY.
package scan

import "github.com/relix-db/relix/internal/record"

// Scan is the common iterator every operator in a query plan implements:
// position before the first tuple, advance one at a time, and read the
// tuple currently positioned on.
type Scan interface {
	GetFirst() error
	Next() (bool, error)
	Get() (record.Tuple, error)
	Schema() record.Schema
	Close()
}

// Assignment is one "column = expression" clause of an UPDATE statement.
type Assignment struct {
	Column string
	Value  record.TableValue
}

// ModifyScan extends Scan with in-place mutation of the tuple currently
// positioned on.
type ModifyScan interface {
	Scan
	Update(assignments []Assignment) error
	Delete() error
}

// splitQualified splits "table.column" into ("table", "column"), or
// ("", name) for a bare column reference.
func splitQualified(name string) (table, col string) {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i], name[i+1:]
		}
	}
	return "", name
}
