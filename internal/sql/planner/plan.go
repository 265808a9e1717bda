// Package planner turns a parsed parser.Statement into a Plan: a tree
// describing which tables to scan, in what order to compose
// select/project/product/sort, and what DDL/DML operation to run —
// without touching storage itself. The executor walks a Plan to build
// the actual scan.Scan tree.
package planner

import (
	"github.com/relix-db/relix/internal/record"
)

// Plan is the interface for every physical plan node.
type Plan interface {
	planNode()
}

// ----- DDL plans -----

type CreateTablePlan struct {
	TableName string
	Columns   []record.Column
}

func (*CreateTablePlan) planNode() {}

type DropTablePlan struct {
	TableName string
}

func (*DropTablePlan) planNode() {}

// ----- DML plans -----

// InsertPlan carries one or more rows of already-parsed values; Columns
// is nil when the statement omitted an explicit column list.
type InsertPlan struct {
	TableName string
	Columns   []string
	Rows      [][]record.Constant
}

func (*InsertPlan) planNode() {}

// JoinTarget is the right-hand side of a single JOIN.
type JoinTarget struct {
	TableName string
}

// SelectPlan assembles in the fixed order the executor must realize:
// TableScan(TableName) -> optional ProductScan(Join) -> SelectScan(Where)
// -> ProjectScan(Fields) -> optional sort by OrderBy.
type SelectPlan struct {
	TableName string
	Join      *JoinTarget
	Where     *record.Predicate
	Fields    []string
	OrderBy   []OrderKey
}

func (*SelectPlan) planNode() {}

// OrderKey names one ORDER BY field and its direction.
type OrderKey struct {
	Field string
	Desc  bool
}

// Assignment is one "column = expr" clause of an UPDATE, with Value
// already resolved to a TableValue (a literal or a field reference).
type Assignment struct {
	Column string
	Value  record.TableValue
}

type UpdatePlan struct {
	TableName   string
	Assignments []Assignment
	Where       *record.Predicate
}

func (*UpdatePlan) planNode() {}

type DeletePlan struct {
	TableName string
	Where     *record.Predicate
}

func (*DeletePlan) planNode() {}
