package record

import "fmt"

// TableValue is anything a Term can compare: a column reference evaluated
// against a tuple, or a literal constant.
type TableValue interface {
	Evaluate(t Tuple, schema Schema) (Constant, error)
	String() string
}

// FieldRef references a (possibly table-qualified) column by name.
type FieldRef struct {
	Table string
	Name  string
}

func (f FieldRef) Evaluate(t Tuple, schema Schema) (Constant, error) {
	i, ok := schema.IndexOf(f.Table, f.Name)
	if !ok {
		return Constant{}, fmt.Errorf("record: field %q not found in schema", f.String())
	}
	return t.Get(i), nil
}

func (f FieldRef) String() string {
	if f.Table == "" {
		return f.Name
	}
	return f.Table + "." + f.Name
}

// Literal wraps a fixed Constant as a TableValue.
type Literal struct{ Value Constant }

func (l Literal) Evaluate(Tuple, Schema) (Constant, error) { return l.Value, nil }
func (l Literal) String() string                           { return l.Value.String() }
