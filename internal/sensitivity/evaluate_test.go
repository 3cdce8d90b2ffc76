package sensitivity

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEvaluate_TwoInputs(t *testing.T) {
	table := evaluate(t, twoValueSpec(t), add5ToValues, EvalOptions{ResultName: testResultName})

	if diff := cmp.Diff([]string{"value1", "value2", testResultName}, table.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	want := [][]float64{
		{1, 4, 10},
		{1, 5, 11},
		{2, 4, 11},
		{2, 5, 12},
	}
	if diff := cmp.Diff(want, rowsOf(table)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_ThreeInputs(t *testing.T) {
	table := evaluate(t, threeValueSpec(t), add10ToValues, EvalOptions{})

	if table.ResultName() != DefaultResultName {
		t.Errorf("ResultName() = %q, want %q", table.ResultName(), DefaultResultName)
	}
	if diff := cmp.Diff([]float64{21, 22, 22, 23, 22, 23, 23, 24}, table.Results()); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_KeepsValueTypes(t *testing.T) {
	spec, err := NewInputSpec(
		Param{Name: "n", Values: []any{1, 2}},
		Param{Name: "label", Values: []any{"a", "b"}},
	)
	if err != nil {
		t.Fatalf("NewInputSpec: %v", err)
	}

	table := evaluate(t, spec, func(a Args) (float64, error) { return a.Float("n") }, EvalOptions{})
	labels, err := table.Column("label")
	if err != nil {
		t.Fatalf("Column(label): %v", err)
	}
	if diff := cmp.Diff([]any{"a", "b", "a", "b"}, labels); diff != "" {
		t.Errorf("label column (-want +got):\n%s", diff)
	}
	ns, err := table.Column("n")
	if err != nil {
		t.Fatalf("Column(n): %v", err)
	}
	if diff := cmp.Diff([]any{1, 1, 2, 2}, ns); diff != "" {
		t.Errorf("n column (-want +got):\n%s", diff)
	}
}

func TestEvaluate_FixedArguments(t *testing.T) {
	t.Run("supplies_missing_parameter", func(t *testing.T) {
		table := evaluate(t, twoValueSpec(t), add10ToValues, EvalOptions{
			Fixed: map[string]any{"value3": 100},
		})
		if diff := cmp.Diff([]float64{115, 116, 116, 117}, table.Results()); diff != "" {
			t.Errorf("results (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"value1", "value2"}, table.InputColumns()); diff != "" {
			t.Errorf("input columns (-want +got):\n%s", diff)
		}
	})

	t.Run("default_when_absent", func(t *testing.T) {
		table := evaluate(t, twoValueSpec(t), add10ToValues, EvalOptions{})
		if diff := cmp.Diff([]float64{20, 21, 21, 22}, table.Results()); diff != "" {
			t.Errorf("results (-want +got):\n%s", diff)
		}
	})

	t.Run("fixed_wins_on_collision", func(t *testing.T) {
		table := evaluate(t, twoValueSpec(t), add5ToValues, EvalOptions{
			Fixed: map[string]any{"value1": 10},
		})
		if diff := cmp.Diff([]float64{19, 20, 19, 20}, table.Results()); diff != "" {
			t.Errorf("results (-want +got):\n%s", diff)
		}
		col, err := table.Column("value1")
		if err != nil {
			t.Fatalf("Column(value1): %v", err)
		}
		if diff := cmp.Diff([]any{1, 1, 2, 2}, col); diff != "" {
			t.Errorf("rows should keep the combination value (-want +got):\n%s", diff)
		}
	})
}

func TestEvaluate_FunctionError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	fn := func(a Args) (float64, error) {
		calls++
		if a["value1"] == 2 && a["value2"] == 4 {
			return 0, boom
		}
		return add5ToValues(a)
	}

	table, err := Evaluate(context.Background(), twoValueSpec(t), fn, EvalOptions{})
	if table != nil {
		t.Errorf("Evaluate returned a table on failure: %v", table)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("Evaluate error = %v, want boom", err)
	}

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("Evaluate error = %T, want *EvaluationError", err)
	}
	if evalErr.Index != 2 {
		t.Errorf("EvaluationError.Index = %d, want 2", evalErr.Index)
	}
	if !reflect.DeepEqual(evalErr.Args, Args{"value1": 2, "value2": 4}) {
		t.Errorf("EvaluationError.Args = %v", evalErr.Args)
	}
	if calls != 3 {
		t.Errorf("function called %d times, want 3", calls)
	}
}

func TestEvaluate_InvalidArguments(t *testing.T) {
	if _, err := Evaluate(context.Background(), nil, add5ToValues, EvalOptions{}); !errors.Is(err, ErrNoInputs) {
		t.Errorf("nil spec error = %v, want ErrNoInputs", err)
	}

	_, err := Evaluate(context.Background(), twoValueSpec(t), nil, EvalOptions{})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("nil func error = %v, want *ConfigurationError", err)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	spec := threeValueSpec(t)
	first := evaluate(t, spec, add10ToValues, EvalOptions{ResultName: testResultName})
	second := evaluate(t, spec, add10ToValues, EvalOptions{ResultName: testResultName})
	if !first.Equal(second) {
		t.Error("repeated evaluation produced a different table")
	}
}

func TestEvaluate_ParallelMatchesSequential(t *testing.T) {
	values := make([]any, 12)
	for i := range values {
		values[i] = i
	}
	spec, err := NewInputSpec(
		Param{Name: "value1", Values: values},
		Param{Name: "value2", Values: values},
		Param{Name: "value3", Values: []any{6, 7, 8}},
	)
	if err != nil {
		t.Fatalf("NewInputSpec: %v", err)
	}

	seq := evaluate(t, spec, add10ToValues, EvalOptions{})
	par := evaluate(t, spec, add10ToValues, EvalOptions{Workers: 4})
	if !seq.Equal(par) {
		t.Error("parallel table differs from sequential")
	}
	if par.Len() != 12*12*3 {
		t.Errorf("Len() = %d, want %d", par.Len(), 12*12*3)
	}
}

func TestEvaluate_ParallelError(t *testing.T) {
	boom := errors.New("boom")
	fn := func(a Args) (float64, error) {
		if a["value3"] == 7 {
			return 0, boom
		}
		return add10ToValues(a)
	}

	table, err := Evaluate(context.Background(), threeValueSpec(t), fn, EvalOptions{Workers: 3})
	if table != nil {
		t.Errorf("Evaluate returned a table on failure: %v", table)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Evaluate error = %v, want boom", err)
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Errorf("Evaluate error = %T, want *EvaluationError", err)
	}
}

func TestEvaluate_Progress(t *testing.T) {
	var got [][2]int
	observer := ProgressFunc(func(done, total int) {
		got = append(got, [2]int{done, total})
	})

	evaluate(t, twoValueSpec(t), add5ToValues, EvalOptions{Observer: observer})
	if diff := cmp.Diff([][2]int{{1, 4}, {2, 4}, {3, 4}, {4, 4}}, got); diff != "" {
		t.Errorf("progress reports (-want +got):\n%s", diff)
	}
}

func TestEvaluate_ParallelProgress(t *testing.T) {
	var reports, last atomic.Int64
	observer := ProgressFunc(func(done, total int) {
		reports.Add(1)
		if done == total {
			last.Store(int64(done))
		}
	})

	evaluate(t, threeValueSpec(t), add10ToValues, EvalOptions{Observer: observer, Workers: 2})
	if got := reports.Load(); got != 8 {
		t.Errorf("got %d progress reports, want 8", got)
	}
	if got := last.Load(); got != 8 {
		t.Errorf("final report done = %d, want 8", got)
	}
}

func TestEvaluate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Evaluate(ctx, twoValueSpec(t), add5ToValues, EvalOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("sequential error = %v, want context.Canceled", err)
	}
	if _, err := Evaluate(ctx, twoValueSpec(t), add5ToValues, EvalOptions{Workers: 2}); !errors.Is(err, context.Canceled) {
		t.Errorf("parallel error = %v, want context.Canceled", err)
	}
}
