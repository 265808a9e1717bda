package executor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relix-db/relix/internal/config"
	"github.com/relix-db/relix/internal/engine"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "data")
	db, err := engine.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewExecutor(db)
}

func TestExecSQL_CreateInsertSelect(t *testing.T) {
	e := newTestExecutor(t)

	_, err := e.ExecSQL("CREATE TABLE users (id INT, name VARCHAR(16));")
	require.NoError(t, err)

	res, err := e.ExecSQL("INSERT INTO users VALUES (1, 'alice'), (2, 'bob');")
	require.NoError(t, err)
	require.EqualValues(t, 2, res.AffectedRows)

	res, err = e.ExecSQL("SELECT * FROM users;")
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name"}, res.Columns)
	require.Len(t, res.Rows, 2)
}

func TestExecSQL_InsertWithColumnList(t *testing.T) {
	e := newTestExecutor(t)
	_, err := e.ExecSQL("CREATE TABLE t (id INT, name VARCHAR(8));")
	require.NoError(t, err)

	_, err = e.ExecSQL("INSERT INTO t (name, id) VALUES ('x', 7);")
	require.NoError(t, err)

	res, err := e.ExecSQL("SELECT id, name FROM t WHERE id = 7;")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.Equal(t, int64(7), res.Rows[0][0])
	require.Equal(t, "x", res.Rows[0][1])
}

func TestExecSQL_SelectWithWhere(t *testing.T) {
	e := newTestExecutor(t)
	_, err := e.ExecSQL("CREATE TABLE t (id INT, age INT);")
	require.NoError(t, err)
	_, err = e.ExecSQL("INSERT INTO t VALUES (1, 10), (2, 20), (3, 30);")
	require.NoError(t, err)

	res, err := e.ExecSQL("SELECT id FROM t WHERE age >= 20;")
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
}

func TestExecSQL_OrderBy(t *testing.T) {
	e := newTestExecutor(t)
	_, err := e.ExecSQL("CREATE TABLE t (id INT);")
	require.NoError(t, err)
	_, err = e.ExecSQL("INSERT INTO t VALUES (3), (1), (2);")
	require.NoError(t, err)

	res, err := e.ExecSQL("SELECT id FROM t ORDER BY id ASC;")
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	require.Equal(t, int64(1), res.Rows[0][0])
	require.Equal(t, int64(2), res.Rows[1][0])
	require.Equal(t, int64(3), res.Rows[2][0])

	res, err = e.ExecSQL("SELECT id FROM t ORDER BY id DESC;")
	require.NoError(t, err)
	require.Equal(t, int64(3), res.Rows[0][0])
}

func TestExecSQL_JoinAndProject(t *testing.T) {
	e := newTestExecutor(t)
	_, err := e.ExecSQL("CREATE TABLE users (id INT, name VARCHAR(8));")
	require.NoError(t, err)
	_, err = e.ExecSQL("CREATE TABLE orders (user_id INT, total INT);")
	require.NoError(t, err)
	_, err = e.ExecSQL("INSERT INTO users VALUES (1, 'alice'), (2, 'bob');")
	require.NoError(t, err)
	_, err = e.ExecSQL("INSERT INTO orders VALUES (1, 100), (2, 200);")
	require.NoError(t, err)

	res, err := e.ExecSQL("SELECT users.name, orders.total FROM users JOIN orders ON users.id = orders.user_id WHERE orders.total = 200;")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "bob", res.Rows[0][0])
	require.Equal(t, int64(200), res.Rows[0][1])
}

func TestExecSQL_UpdateAndDelete(t *testing.T) {
	e := newTestExecutor(t)
	_, err := e.ExecSQL("CREATE TABLE t (id INT, name VARCHAR(8));")
	require.NoError(t, err)
	_, err = e.ExecSQL("INSERT INTO t VALUES (1, 'a'), (2, 'b');")
	require.NoError(t, err)

	res, err := e.ExecSQL("UPDATE t SET name = 'z' WHERE id = 1;")
	require.NoError(t, err)
	require.EqualValues(t, 1, res.AffectedRows)

	sel, err := e.ExecSQL("SELECT name FROM t WHERE id = 1;")
	require.NoError(t, err)
	require.Equal(t, "z", sel.Rows[0][0])

	res, err = e.ExecSQL("DELETE FROM t WHERE id = 2;")
	require.NoError(t, err)
	require.EqualValues(t, 1, res.AffectedRows)

	sel, err = e.ExecSQL("SELECT * FROM t;")
	require.NoError(t, err)
	require.Len(t, sel.Rows, 1)
}

func TestExecSQL_DropTable(t *testing.T) {
	e := newTestExecutor(t)
	_, err := e.ExecSQL("CREATE TABLE t (id INT);")
	require.NoError(t, err)
	_, err = e.ExecSQL("DROP TABLE t;")
	require.NoError(t, err)

	_, err = e.ExecSQL("SELECT * FROM t;")
	require.Error(t, err)
}

func TestExecSQL_ParseError(t *testing.T) {
	e := newTestExecutor(t)
	_, err := e.ExecSQL("NOT VALID SQL")
	require.Error(t, err)
}
