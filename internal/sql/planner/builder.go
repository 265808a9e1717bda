package planner

import (
	"fmt"
	"strings"

	"github.com/relix-db/relix/internal/record"
	"github.com/relix-db/relix/internal/sql/parser"
)

// BuildPlan builds a physical plan from a parsed Statement.
func BuildPlan(stmt parser.Statement) (Plan, error) {
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		return buildCreateTablePlan(s)
	case *parser.DropTableStmt:
		return &DropTablePlan{TableName: s.TableName}, nil
	case *parser.InsertStmt:
		return buildInsertPlan(s)
	case *parser.SelectStmt:
		return buildSelectPlan(s)
	case *parser.UpdateStmt:
		return buildUpdatePlan(s)
	case *parser.DeleteStmt:
		return buildDeletePlan(s)
	default:
		return nil, fmt.Errorf("planner: unsupported statement type %T", stmt)
	}
}

func buildCreateTablePlan(s *parser.CreateTableStmt) (Plan, error) {
	cols := make([]record.Column, 0, len(s.Columns))
	for _, c := range s.Columns {
		col, err := mapColumn(c)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return &CreateTablePlan{TableName: s.TableName, Columns: cols}, nil
}

func mapColumn(c parser.ColumnDef) (record.Column, error) {
	switch strings.ToUpper(c.Type) {
	case "INT":
		return record.Column{Name: c.Name, Type: record.IntType}, nil
	case "VARCHAR":
		return record.Column{Name: c.Name, Type: record.VarCharType, Size: c.Size}, nil
	case "CHAR":
		return record.Column{Name: c.Name, Type: record.FixedCharType, Size: c.Size}, nil
	default:
		return record.Column{}, fmt.Errorf("planner: unsupported column type %q", c.Type)
	}
}

func buildInsertPlan(s *parser.InsertStmt) (Plan, error) {
	rows := make([][]record.Constant, 0, len(s.Rows))
	for _, row := range s.Rows {
		consts := make([]record.Constant, 0, len(row))
		for _, e := range row {
			lit, ok := e.(*parser.LiteralExpr)
			if !ok {
				return nil, fmt.Errorf("planner: INSERT values must be literals")
			}
			consts = append(consts, literalToConstant(lit.Value))
		}
		rows = append(rows, consts)
	}
	return &InsertPlan{TableName: s.TableName, Columns: s.Columns, Rows: rows}, nil
}

func literalToConstant(v any) record.Constant {
	switch val := v.(type) {
	case int64:
		return record.NumberConstant(val)
	case string:
		return record.StringConstant(val)
	case bool:
		if val {
			return record.NumberConstant(1)
		}
		return record.NumberConstant(0)
	default:
		return record.StringConstant("")
	}
}

func exprToTableValue(e parser.Expr) (record.TableValue, error) {
	switch v := e.(type) {
	case *parser.LiteralExpr:
		return record.Literal{Value: literalToConstant(v.Value)}, nil
	case *parser.FieldExpr:
		table, col := splitQualified(v.Name)
		return record.FieldRef{Table: table, Name: col}, nil
	default:
		return nil, fmt.Errorf("planner: unsupported expression %T", e)
	}
}

func splitQualified(name string) (table, col string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func mapCompareOp(op parser.CompareOp) record.TermOp {
	switch op {
	case parser.OpEqual:
		return record.Equal
	case parser.OpNotEqual:
		return record.NotEqual
	case parser.OpGreater:
		return record.Greater
	case parser.OpGreaterEqual:
		return record.GreaterEqual
	case parser.OpLess:
		return record.Less
	case parser.OpLessEqual:
		return record.LessEqual
	default:
		return record.Equal
	}
}

func buildPredicate(c *parser.Condition) (*record.Predicate, error) {
	if c == nil {
		return nil, nil
	}
	switch c.Op {
	case parser.CondSingle:
		left, err := exprToTableValue(c.Comparison.Left)
		if err != nil {
			return nil, err
		}
		right, err := exprToTableValue(c.Comparison.Right)
		if err != nil {
			return nil, err
		}
		term := record.Term{Op: mapCompareOp(c.Comparison.Op), Lhs: left, Rhs: right}
		return record.SingleTerm(term), nil
	case parser.CondAnd:
		lhs, err := buildPredicate(c.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := buildPredicate(c.Rhs)
		if err != nil {
			return nil, err
		}
		return record.AndOf(lhs, rhs), nil
	case parser.CondOr:
		lhs, err := buildPredicate(c.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := buildPredicate(c.Rhs)
		if err != nil {
			return nil, err
		}
		return record.OrOf(lhs, rhs), nil
	default:
		return nil, fmt.Errorf("planner: unknown condition op")
	}
}

func buildSelectPlan(s *parser.SelectStmt) (Plan, error) {
	where, err := buildPredicate(s.Where)
	if err != nil {
		return nil, err
	}

	var join *JoinTarget
	if s.Join != nil {
		onPred, err := buildPredicate(s.Join.On)
		if err != nil {
			return nil, err
		}
		where = record.AndOf(onPred, where)
		join = &JoinTarget{TableName: s.Join.TableName}
	}

	orderBy := make([]OrderKey, 0, len(s.OrderBy))
	for _, o := range s.OrderBy {
		orderBy = append(orderBy, OrderKey{Field: o.Field, Desc: o.Desc})
	}

	return &SelectPlan{
		TableName: s.TableName,
		Join:      join,
		Where:     where,
		Fields:    s.Fields,
		OrderBy:   orderBy,
	}, nil
}

func buildUpdatePlan(s *parser.UpdateStmt) (Plan, error) {
	where, err := buildPredicate(s.Where)
	if err != nil {
		return nil, err
	}
	assigns := make([]Assignment, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		val, err := exprToTableValue(a.Value)
		if err != nil {
			return nil, err
		}
		assigns = append(assigns, Assignment{Column: a.Column, Value: val})
	}
	return &UpdatePlan{TableName: s.TableName, Assignments: assigns, Where: where}, nil
}

func buildDeletePlan(s *parser.DeleteStmt) (Plan, error) {
	where, err := buildPredicate(s.Where)
	if err != nil {
		return nil, err
	}
	return &DeletePlan{TableName: s.TableName, Where: where}, nil
}
