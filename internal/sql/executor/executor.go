// Package executor drives a planner.Plan against a Database: it opens
// the scan.Scan trees the plan calls for, evaluates them, and folds the
// result into an executor.Result.
package executor

import (
	"fmt"

	"github.com/relix-db/relix/internal/bufferpool"
	"github.com/relix-db/relix/internal/heapfile"
	"github.com/relix-db/relix/internal/record"
	"github.com/relix-db/relix/internal/scan"
	"github.com/relix-db/relix/internal/sql/parser"
	"github.com/relix-db/relix/internal/sql/planner"
	"github.com/relix-db/relix/internal/storage"
)

// executorDB is a small seam for unit-testing Executor without a real
// on-disk database.
type executorDB interface {
	CreateTable(name string, columns []record.Column) (record.Schema, error)
	DropTable(name string) error
	Schema(name string) (record.Schema, error)
	HeapFileName(name string) string
	FileManager() *storage.FileManager
	BufferPool() *bufferpool.Manager
}

// Executor executes a plan against a Database.
type Executor struct {
	DB executorDB
}

// NewExecutor builds an Executor over a real database handle.
func NewExecutor(db executorDB) *Executor {
	return &Executor{DB: db}
}

// ExecSQL is the top-level entry point: SQL string -> Result.
func (e *Executor) ExecSQL(sql string) (*Result, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("executor: parse: %w", err)
	}
	plan, err := planner.BuildPlan(stmt)
	if err != nil {
		return nil, fmt.Errorf("executor: plan: %w", err)
	}
	return e.execPlan(plan)
}

func (e *Executor) execPlan(p planner.Plan) (*Result, error) {
	switch plan := p.(type) {
	case *planner.CreateTablePlan:
		return e.execCreateTable(plan)
	case *planner.DropTablePlan:
		return e.execDropTable(plan)
	case *planner.InsertPlan:
		return e.execInsert(plan)
	case *planner.SelectPlan:
		return e.execSelect(plan)
	case *planner.UpdatePlan:
		return e.execUpdate(plan)
	case *planner.DeletePlan:
		return e.execDelete(plan)
	default:
		return nil, fmt.Errorf("executor: unsupported plan type %T", p)
	}
}

func (e *Executor) execCreateTable(p *planner.CreateTablePlan) (*Result, error) {
	if _, err := e.DB.CreateTable(p.TableName, p.Columns); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (e *Executor) execDropTable(p *planner.DropTablePlan) (*Result, error) {
	if err := e.DB.DropTable(p.TableName); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (e *Executor) execInsert(p *planner.InsertPlan) (*Result, error) {
	schema, err := e.DB.Schema(p.TableName)
	if err != nil {
		return nil, err
	}

	it, err := heapfile.NewHeapFileIterator(e.DB.FileManager(), e.DB.BufferPool(), e.DB.HeapFileName(p.TableName))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var affected int64
	for _, row := range p.Rows {
		fields := make([]record.WriteField, len(schema.Columns))
		if p.Columns == nil {
			if len(row) != len(schema.Columns) {
				return nil, fmt.Errorf("executor: INSERT value count %d != schema column count %d", len(row), len(schema.Columns))
			}
			for i, c := range row {
				wf, err := constantToField(schema.Columns[i], c)
				if err != nil {
					return nil, fmt.Errorf("executor: column %q: %w", schema.Columns[i].Name, err)
				}
				fields[i] = wf
			}
		} else {
			if len(row) != len(p.Columns) {
				return nil, fmt.Errorf("executor: INSERT value count %d != column list count %d", len(row), len(p.Columns))
			}
			for i, colName := range p.Columns {
				idx, ok := schema.IndexOf(p.TableName, colName)
				if !ok {
					return nil, fmt.Errorf("executor: unknown column %q in INSERT column list", colName)
				}
				wf, err := constantToField(schema.Columns[idx], row[i])
				if err != nil {
					return nil, fmt.Errorf("executor: column %q: %w", colName, err)
				}
				fields[idx] = wf
			}
			for i, f := range fields {
				if f == nil {
					return nil, fmt.Errorf("executor: INSERT omits value for column %q", schema.Columns[i].Name)
				}
			}
		}

		tup := record.Tuple{Fields: fields}
		if _, err := it.InsertTuple(tup.Encode()); err != nil {
			return nil, err
		}
		affected++
	}

	return &Result{AffectedRows: affected}, nil
}

func (e *Executor) openTableScan(tableName string) (*scan.TableScan, record.Schema, error) {
	schema, err := e.DB.Schema(tableName)
	if err != nil {
		return nil, record.Schema{}, err
	}
	ts, err := scan.NewTableScan(e.DB.FileManager(), e.DB.BufferPool(), e.DB.HeapFileName(tableName), schema)
	if err != nil {
		return nil, record.Schema{}, err
	}
	return ts, schema, nil
}

func (e *Executor) execSelect(p *planner.SelectPlan) (*Result, error) {
	left, _, err := e.openTableScan(p.TableName)
	if err != nil {
		return nil, err
	}
	var cur scan.Scan = left

	if p.Join != nil {
		right, _, err := e.openTableScan(p.Join.TableName)
		if err != nil {
			cur.Close()
			return nil, err
		}
		cur = scan.NewProductScan(cur, right)
	}

	if p.Where != nil {
		cur = scan.NewSelectScan(cur, p.Where)
	}

	fields := p.Fields
	if len(fields) != 1 || fields[0] != "*" {
		proj, err := scan.NewProjectScan(cur, fields)
		if err != nil {
			cur.Close()
			return nil, err
		}
		cur = proj
	}

	if len(p.OrderBy) > 0 {
		keys := make([]scan.OrderKey, len(p.OrderBy))
		for i, o := range p.OrderBy {
			keys[i] = scan.OrderKey{Column: o.Field, Desc: o.Desc}
		}
		sorted, err := scan.Sort(e.DB.FileManager(), e.DB.BufferPool(), cur, keys)
		if err != nil {
			return nil, err
		}
		cur = sorted
	}
	defer cur.Close()

	res := &Result{}
	schema := cur.Schema()
	for _, c := range schema.Columns {
		res.Columns = append(res.Columns, c.Name)
	}

	if err := cur.GetFirst(); err != nil {
		return nil, err
	}
	for {
		ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		tup, err := cur.Get()
		if err != nil {
			return nil, err
		}
		row := make([]any, len(schema.Columns))
		for i := range schema.Columns {
			row[i] = constantToAny(tup.Get(i))
		}
		res.Rows = append(res.Rows, row)
	}
	res.AffectedRows = int64(len(res.Rows))
	return res, nil
}

func (e *Executor) execUpdate(p *planner.UpdatePlan) (*Result, error) {
	schema, err := e.DB.Schema(p.TableName)
	if err != nil {
		return nil, err
	}
	mts, err := scan.NewModifyTableScan(e.DB.FileManager(), e.DB.BufferPool(), e.DB.HeapFileName(p.TableName), schema)
	if err != nil {
		return nil, err
	}
	var cur scan.ModifyScan = mts
	if p.Where != nil {
		cur = scan.NewSelectModifyScan(cur, p.Where)
	}
	defer cur.Close()

	assigns := make([]scan.Assignment, len(p.Assignments))
	for i, a := range p.Assignments {
		assigns[i] = scan.Assignment{Column: a.Column, Value: a.Value}
	}

	var affected int64
	if err := cur.GetFirst(); err != nil {
		return nil, err
	}
	for {
		ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := cur.Update(assigns); err != nil {
			return nil, err
		}
		affected++
	}
	return &Result{AffectedRows: affected}, nil
}

func (e *Executor) execDelete(p *planner.DeletePlan) (*Result, error) {
	schema, err := e.DB.Schema(p.TableName)
	if err != nil {
		return nil, err
	}
	mts, err := scan.NewModifyTableScan(e.DB.FileManager(), e.DB.BufferPool(), e.DB.HeapFileName(p.TableName), schema)
	if err != nil {
		return nil, err
	}
	var cur scan.ModifyScan = mts
	if p.Where != nil {
		cur = scan.NewSelectModifyScan(cur, p.Where)
	}
	defer cur.Close()

	var affected int64
	if err := cur.GetFirst(); err != nil {
		return nil, err
	}
	for {
		ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := cur.Delete(); err != nil {
			return nil, err
		}
		affected++
	}
	return &Result{AffectedRows: affected}, nil
}

// constantToField converts a parsed Constant into the WriteField shape
// col's type expects.
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

func constantToAny(c record.Constant) any {
	if c.Kind == record.NumberKind {
		return c.Num
	}
	return c.Str
}
