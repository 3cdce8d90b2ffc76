package sensitivity

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ProgressObserver receives advisory progress reports during evaluation.
// Reports never influence results.
type ProgressObserver interface {
	Progress(done, total int)
}

// ProgressFunc adapts a function to ProgressObserver.
type ProgressFunc func(done, total int)

// Progress implements ProgressObserver.
func (f ProgressFunc) Progress(done, total int) { f(done, total) }

// EvalOptions controls Evaluate.
type EvalOptions struct {
	// ResultName names the result column. Defaults to DefaultResultName.
	ResultName string
	// Fixed arguments are merged into every call and never varied. On a
	// name collision the fixed value is passed to the function while the
	// row keeps the combination value.
	Fixed map[string]any
	// Observer, if set, is told after each completed call.
	Observer ProgressObserver
	// Workers > 1 evaluates combinations concurrently. Row order is the
	// same as sequential evaluation.
	Workers int
}

// Evaluate calls fn once per combination of spec in odometer order and
// returns the table of results. The first failing call aborts the run and
// is returned as an *EvaluationError; no partial table is returned.
func Evaluate(ctx context.Context, spec *InputSpec, fn Func, opts EvalOptions) (*Table, error) {
	if spec == nil || spec.Len() == 0 {
		return nil, &ConfigurationError{Err: ErrNoInputs}
	}
	if fn == nil {
		return nil, configErrorf("nil function")
	}
	total, err := spec.Count()
	if err != nil {
		return nil, err
	}
	names := spec.Names()

	var rows []Row
	if opts.Workers > 1 {
		rows, err = evaluateParallel(ctx, spec, names, fn, opts, total)
	} else {
		rows, err = evaluateSequential(ctx, spec, names, fn, opts, total)
	}
	if err != nil {
		return nil, err
	}
	return NewTable(names, opts.ResultName, rows)
}

func evaluateSequential(ctx context.Context, spec *InputSpec, names []string, fn Func, opts EvalOptions, total int) ([]Row, error) {
	rows := make([]Row, 0, total)
	for i, combo := range spec.Combinations() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := call(fn, i, names, combo, opts.Fixed)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{Inputs: combo, Result: result})
		if opts.Observer != nil {
			opts.Observer.Progress(i+1, total)
		}
	}
	return rows, nil
}

// evaluateParallel scatters calls over a bounded worker group and gathers
// results by index.
func evaluateParallel(ctx context.Context, spec *InputSpec, names []string, fn Func, opts EvalOptions, total int) ([]Row, error) {
	rows := make([]Row, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	var mu sync.Mutex
	done := 0

	for i := 0; i < total; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			combo := spec.Combination(i)
			result, err := call(fn, i, names, combo, opts.Fixed)
			if err != nil {
				return err
			}
			rows[i] = Row{Inputs: combo, Result: result}
			if opts.Observer != nil {
				mu.Lock()
				done++
				opts.Observer.Progress(done, total)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

func call(fn Func, index int, names []string, combo []any, fixed map[string]any) (float64, error) {
	args := make(Args, len(names)+len(fixed))
	for i, name := range names {
		args[name] = combo[i]
	}
	for k, v := range fixed {
		args[k] = v
	}
	result, err := fn(args)
	if err != nil {
		return 0, &EvaluationError{Index: index, Args: args, Err: err}
	}
	return result, nil
}
