package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPredicate_NilMatchesEverything(t *testing.T) {
	var p *Predicate
	schema := Schema{Columns: []Column{{Name: "id", Type: IntType}}}
	tup, err := NewTuple(schema, []string{"1"})
	require.NoError(t, err)

	ok, err := p.Evaluate(tup, schema)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPredicate_SingleTermEquality(t *testing.T) {
	schema := Schema{Columns: []Column{{Name: "id", Type: IntType}}}
	tup, err := NewTuple(schema, []string{"5"})
	require.NoError(t, err)

	p := SingleTerm(Term{Op: Equal, Lhs: FieldRef{Name: "id"}, Rhs: Literal{Value: NumberConstant(5)}})
	ok, err := p.Evaluate(tup, schema)
	require.NoError(t, err)
	require.True(t, ok)

	p = SingleTerm(Term{Op: Equal, Lhs: FieldRef{Name: "id"}, Rhs: Literal{Value: NumberConstant(6)}})
	ok, err = p.Evaluate(tup, schema)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPredicate_AndOr(t *testing.T) {
	schema := Schema{Columns: []Column{
		{Name: "id", Type: IntType},
		{Name: "age", Type: IntType},
	}}
	tup, err := NewTuple(schema, []string{"1", "30"})
	require.NoError(t, err)

	idEq1 := SingleTerm(Term{Op: Equal, Lhs: FieldRef{Name: "id"}, Rhs: Literal{Value: NumberConstant(1)}})
	ageGe18 := SingleTerm(Term{Op: GreaterEqual, Lhs: FieldRef{Name: "age"}, Rhs: Literal{Value: NumberConstant(18)}})
	ageLt10 := SingleTerm(Term{Op: Less, Lhs: FieldRef{Name: "age"}, Rhs: Literal{Value: NumberConstant(10)}})

	and := AndOf(idEq1, ageGe18)
	ok, err := and.Evaluate(tup, schema)
	require.NoError(t, err)
	require.True(t, ok)

	or := OrOf(ageLt10, idEq1)
	ok, err = or.Evaluate(tup, schema)
	require.NoError(t, err)
	require.True(t, ok)

	andFails := AndOf(idEq1, ageLt10)
	ok, err = andFails.Evaluate(tup, schema)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConstant_CompareMismatchedKinds(t *testing.T) {
	_, err := NumberConstant(1).Compare(StringConstant("1"))
	require.Error(t, err)
}

func TestConstant_CompareOrdering(t *testing.T) {
	cmp, err := NumberConstant(1).Compare(NumberConstant(2))
	require.NoError(t, err)
	require.Equal(t, -1, cmp)

	cmp, err = StringConstant("b").Compare(StringConstant("a"))
	require.NoError(t, err)
	require.Equal(t, 1, cmp)
}
