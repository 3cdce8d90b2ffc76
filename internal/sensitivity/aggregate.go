package sensitivity

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AggFunc reduces the result values of one group to a scalar. Groups passed
// to an AggFunc are never empty.
type AggFunc func(values []float64) (float64, error)

// DefaultAggregator is the name of the aggregation used when none is set.
const DefaultAggregator = "mean"

// Mean is the arithmetic mean.
func Mean(values []float64) (float64, error) {
	return stat.Mean(values, nil), nil
}

// Median is the 50th percentile with midpoint interpolation.
func Median(values []float64) (float64, error) {
	return stats.Median(values)
}

// Min is the smallest value.
func Min(values []float64) (float64, error) {
	return floats.Min(values), nil
}

// Max is the largest value.
func Max(values []float64) (float64, error) {
	return floats.Max(values), nil
}

// Sum is the total of all values.
func Sum(values []float64) (float64, error) {
	return floats.Sum(values), nil
}

// StdDev is the sample standard deviation. A single value has zero spread.
func StdDev(values []float64) (float64, error) {
	if len(values) < 2 {
		return 0, nil
	}
	return stat.StdDev(values, nil), nil
}

// Percentile returns an AggFunc computing the p-th percentile (0 < p <= 100).
func Percentile(p float64) AggFunc {
	return func(values []float64) (float64, error) {
		return stats.Percentile(values, p)
	}
}

// errNotScalar is wrapped in an AggregationShapeError when a vector
// reduction does not yield exactly one value.
var errNotScalar = errors.New("reduction did not produce a single scalar")

// VectorAgg adapts a reduction that returns a vector. Any result whose
// length is not exactly one is rejected.
func VectorAgg(fn func([]float64) []float64) AggFunc {
	return func(values []float64) (float64, error) {
		out := fn(values)
		if len(out) != 1 {
			return 0, fmt.Errorf("%w: got %d values", errNotScalar, len(out))
		}
		return out[0], nil
	}
}

// AggregatorDefinition describes a registered aggregation.
type AggregatorDefinition struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Func        AggFunc `json:"-"`
}

// AggregatorRegistry resolves aggregation functions by name.
type AggregatorRegistry struct {
	mu   sync.RWMutex
	aggs map[string]*AggregatorDefinition
}

// NewAggregatorRegistry creates an empty registry.
func NewAggregatorRegistry() *AggregatorRegistry {
	return &AggregatorRegistry{aggs: make(map[string]*AggregatorDefinition)}
}

// Register adds def, replacing any aggregator of the same name.
func (r *AggregatorRegistry) Register(def *AggregatorDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggs[def.Name] = def
}

// Get returns the aggregation registered under name.
func (r *AggregatorRegistry) Get(name string) (AggFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.aggs[name]
	if !ok {
		return nil, false
	}
	return def.Func, true
}

// Lookup is Get returning a ConfigurationError for unknown names. An empty
// name resolves to DefaultAggregator.
func (r *AggregatorRegistry) Lookup(name string) (AggFunc, error) {
	if name == "" {
		name = DefaultAggregator
	}
	fn, ok := r.Get(name)
	if !ok {
		return nil, configErrorf("unknown aggregation %q", name)
	}
	return fn, nil
}

// List returns the registered aggregators sorted by name.
func (r *AggregatorRegistry) List() []AggregatorDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AggregatorDefinition, 0, len(r.aggs))
	for _, def := range r.aggs {
		out = append(out, *def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultAggregators returns a registry pre-loaded with the built-ins.
func DefaultAggregators() *AggregatorRegistry {
	reg := NewAggregatorRegistry()
	for _, def := range []*AggregatorDefinition{
		{Name: "mean", Description: "Arithmetic mean", Func: Mean},
		{Name: "median", Description: "Median (50th percentile)", Func: Median},
		{Name: "min", Description: "Smallest value", Func: Min},
		{Name: "max", Description: "Largest value", Func: Max},
		{Name: "sum", Description: "Sum of values", Func: Sum},
		{Name: "std", Description: "Sample standard deviation", Func: StdDev},
		{Name: "p25", Description: "25th percentile", Func: Percentile(25)},
		{Name: "p75", Description: "75th percentile", Func: Percentile(75)},
		{Name: "p90", Description: "90th percentile", Func: Percentile(90)},
	} {
		reg.Register(def)
	}
	return reg
}
