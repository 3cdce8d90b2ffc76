// Package testutil provides shared test fixtures for packages built on the
// sensitivity core.
package testutil

import (
	"context"
	"sort"
	"testing"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

// OffsetSum returns a model that adds every argument, visited in name
// order, plus offset. OffsetSum(10) is the "a + b + c + 10" fixture.
func OffsetSum(offset float64) sensitivity.Func {
	return func(a sensitivity.Args) (float64, error) {
		names := make([]string, 0, len(a))
		for name := range a {
			names = append(names, name)
		}
		sort.Strings(names)
		total := offset
		for _, name := range names {
			v, err := a.Float(name)
			if err != nil {
				return 0, err
			}
			total += v
		}
		return total, nil
	}
}

// MustSpec builds an InputSpec or fails the test.
func MustSpec(t testing.TB, params ...sensitivity.Param) *sensitivity.InputSpec {
	t.Helper()
	spec, err := sensitivity.NewInputSpec(params...)
	if err != nil {
		t.Fatalf("NewInputSpec: %v", err)
	}
	return spec
}

// MustAnalyzer evaluates fn over params or fails the test.
func MustAnalyzer(t testing.TB, params []sensitivity.Param, fn sensitivity.Func, opts sensitivity.Options) *sensitivity.Analyzer {
	t.Helper()
	a, err := sensitivity.New(context.Background(), MustSpec(t, params...), fn, opts)
	if err != nil {
		t.Fatalf("sensitivity.New: %v", err)
	}
	return a
}

// AssertTablesEqual fails the test if the tables differ. NaN results
// compare equal.
func AssertTablesEqual(t testing.TB, want, got *sensitivity.Table) {
	t.Helper()
	if !want.Equal(got) {
		t.Errorf("tables differ:\nwant columns %v, %d rows\ngot  columns %v, %d rows",
			want.Columns(), want.Len(), got.Columns(), got.Len())
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
