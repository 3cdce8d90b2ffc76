package sensitivity

import (
	"context"
	"testing"
)

const testResultName = "my_res"

func twoValueSpec(t *testing.T) *InputSpec {
	t.Helper()
	spec, err := NewInputSpec(
		Param{Name: "value1", Values: []any{1, 2}},
		Param{Name: "value2", Values: []any{4, 5}},
	)
	if err != nil {
		t.Fatalf("NewInputSpec: %v", err)
	}
	return spec
}

func threeValueSpec(t *testing.T) *InputSpec {
	t.Helper()
	spec, err := NewInputSpec(
		Param{Name: "value1", Values: []any{1, 2}},
		Param{Name: "value2", Values: []any{4, 5}},
		Param{Name: "value3", Values: []any{6, 7}},
	)
	if err != nil {
		t.Fatalf("NewInputSpec: %v", err)
	}
	return spec
}

func add5ToValues(a Args) (float64, error) {
	v1, err := a.Float("value1")
	if err != nil {
		return 0, err
	}
	v2, err := a.Float("value2")
	if err != nil {
		return 0, err
	}
	return v1 + v2 + 5, nil
}

// add10ToValues defaults value3 to 5 when it is not supplied.
func add10ToValues(a Args) (float64, error) {
	v1, err := a.Float("value1")
	if err != nil {
		return 0, err
	}
	v2, err := a.Float("value2")
	if err != nil {
		return 0, err
	}
	v3 := 5.0
	if _, ok := a["value3"]; ok {
		if v3, err = a.Float("value3"); err != nil {
			return 0, err
		}
	}
	return v1 + v2 + v3 + 10, nil
}

func rowsOf(t *Table) [][]float64 {
	out := make([][]float64, t.Len())
	for i, r := range t.Rows() {
		row := make([]float64, 0, len(r.Inputs)+1)
		for _, v := range r.Inputs {
			f, _ := ToFloat64(v)
			row = append(row, f)
		}
		out[i] = append(row, r.Result)
	}
	return out
}

func evaluate(t *testing.T, spec *InputSpec, fn Func, opts EvalOptions) *Table {
	t.Helper()
	table, err := Evaluate(context.Background(), spec, fn, opts)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	return table
}
