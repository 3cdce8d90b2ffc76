package sensitivity

import (
	"errors"
	"fmt"
)

// ErrNoInputs is returned (wrapped in a ConfigurationError) when an analysis
// or projection is requested with zero input columns.
var ErrNoInputs = errors.New("at least one input column required")

// ConfigurationError reports a caller contract violation: a malformed input
// spec, unknown columns, an unknown aggregator name and similar. It is raised
// before any evaluation work is attempted and is never retried.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return "configuration: " + e.Msg + ": " + e.Err.Error()
	case e.Err != nil:
		return "configuration: " + e.Err.Error()
	default:
		return "configuration: " + e.Msg
	}
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// EvaluationError wraps a failure returned by the target function. Index is
// the position of the failing combination in generation order. The original
// error is available through errors.Unwrap / errors.As.
type EvaluationError struct {
	Index int
	Args  Args
	Err   error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating combination %d %v: %v", e.Index, e.Args, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// AggregationShapeError is returned when an aggregation function cannot
// reduce the result values of one (row, column) group to a single scalar.
type AggregationShapeError struct {
	Pair     Pair
	RowLabel any
	ColLabel any
	Err      error
}

func (e *AggregationShapeError) Error() string {
	return fmt.Sprintf("aggregating %s at (%v, %v): %v", e.Pair, e.RowLabel, e.ColLabel, e.Err)
}

func (e *AggregationShapeError) Unwrap() error { return e.Err }

// ArgumentError is returned by the typed Args accessors when a name is
// missing or holds a value of an incompatible kind.
type ArgumentError struct {
	Name string
	Msg  string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument %q: %s", e.Name, e.Msg)
}
