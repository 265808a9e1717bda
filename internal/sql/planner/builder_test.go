package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relix-db/relix/internal/record"
	"github.com/relix-db/relix/internal/sql/parser"
)

func mustParse(t *testing.T, sql string) parser.Statement {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err)
	return stmt
}

func TestBuildPlan_CreateTable(t *testing.T) {
	p, err := BuildPlan(mustParse(t, "CREATE TABLE t (id INT, name VARCHAR(10));"))
	require.NoError(t, err)
	ct, ok := p.(*CreateTablePlan)
	require.True(t, ok)
	require.Equal(t, "t", ct.TableName)
	require.Equal(t, []record.Column{
		{Name: "id", Type: record.IntType},
		{Name: "name", Type: record.VarCharType, Size: 10},
	}, ct.Columns)
}

func TestBuildPlan_CreateTable_UnsupportedType(t *testing.T) {
	stmt := &parser.CreateTableStmt{
		TableName: "t",
		Columns:   []parser.ColumnDef{{Name: "x", Type: "FLOAT"}},
	}
	_, err := BuildPlan(stmt)
	require.Error(t, err)
}

func TestBuildPlan_Insert(t *testing.T) {
	p, err := BuildPlan(mustParse(t, "INSERT INTO t (id, name) VALUES (1, 'a');"))
	require.NoError(t, err)
	ip, ok := p.(*InsertPlan)
	require.True(t, ok)
	require.Equal(t, []string{"id", "name"}, ip.Columns)
	require.Len(t, ip.Rows, 1)
	require.Equal(t, record.NumberConstant(1), ip.Rows[0][0])
	require.Equal(t, record.StringConstant("a"), ip.Rows[0][1])
}

func TestBuildPlan_Select_WhereOnly(t *testing.T) {
	p, err := BuildPlan(mustParse(t, "SELECT * FROM t WHERE id = 1;"))
	require.NoError(t, err)
	sp, ok := p.(*SelectPlan)
	require.True(t, ok)
	require.Equal(t, "t", sp.TableName)
	require.Nil(t, sp.Join)
	require.NotNil(t, sp.Where)
	require.Equal(t, record.Single, sp.Where.Op)
	require.Equal(t, record.Equal, sp.Where.Term.Op)
	require.Equal(t, record.FieldRef{Name: "id"}, sp.Where.Term.Lhs)
	require.Equal(t, record.Literal{Value: record.NumberConstant(1)}, sp.Where.Term.Rhs)
}

func TestBuildPlan_Select_JoinFoldsOnIntoWhere(t *testing.T) {
	p, err := BuildPlan(mustParse(t, "SELECT * FROM a JOIN b ON a.id = b.a_id WHERE b.active = 1;"))
	require.NoError(t, err)
	sp, ok := p.(*SelectPlan)
	require.True(t, ok)
	require.NotNil(t, sp.Join)
	require.Equal(t, "b", sp.Join.TableName)
	require.NotNil(t, sp.Where)
	require.Equal(t, record.And, sp.Where.Op)
}

func TestBuildPlan_Select_OrderBy(t *testing.T) {
	p, err := BuildPlan(mustParse(t, "SELECT * FROM t ORDER BY age DESC;"))
	require.NoError(t, err)
	sp, ok := p.(*SelectPlan)
	require.True(t, ok)
	require.Equal(t, []OrderKey{{Field: "age", Desc: true}}, sp.OrderBy)
}

func TestBuildPlan_Update(t *testing.T) {
	p, err := BuildPlan(mustParse(t, "UPDATE t SET name = 'x' WHERE id = 2;"))
	require.NoError(t, err)
	up, ok := p.(*UpdatePlan)
	require.True(t, ok)
	require.Equal(t, "t", up.TableName)
	require.Len(t, up.Assignments, 1)
	require.Equal(t, "name", up.Assignments[0].Column)
	require.NotNil(t, up.Where)
}

func TestBuildPlan_Delete(t *testing.T) {
	p, err := BuildPlan(mustParse(t, "DELETE FROM t WHERE id = 2;"))
	require.NoError(t, err)
	dp, ok := p.(*DeletePlan)
	require.True(t, ok)
	require.Equal(t, "t", dp.TableName)
	require.NotNil(t, dp.Where)
}

func TestBuildPlan_DropTable(t *testing.T) {
	p, err := BuildPlan(mustParse(t, "DROP TABLE t;"))
	require.NoError(t, err)
	dt, ok := p.(*DropTablePlan)
	require.True(t, ok)
	require.Equal(t, "t", dt.TableName)
}

func TestBuildPlan_OrCondition(t *testing.T) {
	p, err := BuildPlan(mustParse(t, "SELECT * FROM t WHERE id = 1 OR id = 2;"))
	require.NoError(t, err)
	sp := p.(*SelectPlan)
	require.Equal(t, record.Or, sp.Where.Op)
}
