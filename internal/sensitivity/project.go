package sensitivity

import "math"

// Pair names two input columns. A is the matrix row dimension, B the column
// dimension.
type Pair struct {
	A string
	B string
}

// String returns the pair name used as the key of a Projections set.
func (p Pair) String() string { return p.A + " vs " + p.B }

// Pairs returns every unordered pair of columns in combination order:
// (0,1), (0,2), ..., (1,2), ...
func Pairs(columns []string) []Pair {
	var out []Pair
	for i := 0; i < len(columns); i++ {
		for j := i + 1; j < len(columns); j++ {
			out = append(out, Pair{A: columns[i], B: columns[j]})
		}
	}
	return out
}

// Matrix is a two-dimensional aggregation of a result column over a pair of
// input columns. Labels keep first-appearance order, which for an
// evaluated table equals declaration order.
type Matrix struct {
	Pair       Pair
	ValueName  string
	RowLabels  []any
	ColLabels  []any
	cells      [][]float64
	present    [][]bool
	min, max   float64
	hasExtents bool
}

// Rows returns the number of row labels.
func (m *Matrix) Rows() int { return len(m.RowLabels) }

// Cols returns the number of column labels.
func (m *Matrix) Cols() int { return len(m.ColLabels) }

// At returns the aggregated value at (i, j). ok is false for a combination
// that never appeared in the source table.
func (m *Matrix) At(i, j int) (v float64, ok bool) {
	return m.cells[i][j], m.present[i][j]
}

// Extents returns the smallest and largest present, non-NaN cell values.
func (m *Matrix) Extents() (min, max float64, ok bool) {
	return m.min, m.max, m.hasExtents
}

// Project groups t by (colA, colB), reduces resultCol within each group with
// agg and reshapes the groups into a Matrix. A nil agg means Mean.
func Project(t *Table, colA, colB, resultCol string, agg AggFunc) (*Matrix, error) {
	if len(t.inputs) == 0 {
		return nil, &ConfigurationError{Err: ErrNoInputs}
	}
	if colA == colB {
		return nil, configErrorf("cannot project column %q against itself", colA)
	}
	ia, ib := t.Index(colA), t.Index(colB)
	if ia < 0 {
		return nil, configErrorf("unknown column %q", colA)
	}
	if ib < 0 {
		return nil, configErrorf("unknown column %q", colB)
	}
	if resultCol == "" {
		resultCol = t.resultName
	}
	if resultCol != t.resultName {
		return nil, configErrorf("unknown result column %q", resultCol)
	}
	if agg == nil {
		agg = Mean
	}

	rowIdx := make(map[any]int)
	colIdx := make(map[any]int)
	m := &Matrix{Pair: Pair{A: colA, B: colB}, ValueName: resultCol}
	for _, r := range t.rows {
		a, b := r.Inputs[ia], r.Inputs[ib]
		if _, ok := rowIdx[a]; !ok {
			rowIdx[a] = len(m.RowLabels)
			m.RowLabels = append(m.RowLabels, a)
		}
		if _, ok := colIdx[b]; !ok {
			colIdx[b] = len(m.ColLabels)
			m.ColLabels = append(m.ColLabels, b)
		}
	}

	groups := make([][][]float64, len(m.RowLabels))
	for i := range groups {
		groups[i] = make([][]float64, len(m.ColLabels))
	}
	for _, r := range t.rows {
		i, j := rowIdx[r.Inputs[ia]], colIdx[r.Inputs[ib]]
		groups[i][j] = append(groups[i][j], r.Result)
	}

	m.cells = make([][]float64, len(m.RowLabels))
	m.present = make([][]bool, len(m.RowLabels))
	for i := range groups {
		m.cells[i] = make([]float64, len(m.ColLabels))
		m.present[i] = make([]bool, len(m.ColLabels))
		for j, values := range groups[i] {
			if len(values) == 0 {
				continue
			}
			v, err := agg(values)
			if err != nil {
				return nil, &AggregationShapeError{
					Pair:     m.Pair,
					RowLabel: m.RowLabels[i],
					ColLabel: m.ColLabels[j],
					Err:      err,
				}
			}
			m.cells[i][j] = v
			m.present[i][j] = true
			if math.IsNaN(v) {
				continue
			}
			if !m.hasExtents || v < m.min {
				m.min = v
			}
			if !m.hasExtents || v > m.max {
				m.max = v
			}
			m.hasExtents = true
		}
	}
	return m, nil
}

// Projections is the set of pairwise matrices of a table, in pair order and
// keyed by Pair.
type Projections struct {
	pairs    []Pair
	matrices map[Pair]*Matrix
}

// Len returns the number of matrices.
func (p *Projections) Len() int { return len(p.pairs) }

// Pairs returns the pairs in combination order.
func (p *Projections) Pairs() []Pair { return append([]Pair(nil), p.pairs...) }

// Get returns the matrix for the pair (a, b).
func (p *Projections) Get(a, b string) (*Matrix, bool) {
	m, ok := p.matrices[Pair{A: a, B: b}]
	return m, ok
}

// Lookup returns the matrix for the pair named by Pair.String.
func (p *Projections) Lookup(name string) (*Matrix, bool) {
	for _, pair := range p.pairs {
		if pair.String() == name {
			return p.matrices[pair], true
		}
	}
	return nil, false
}

// Matrices returns the matrices in pair order.
func (p *Projections) Matrices() []*Matrix {
	out := make([]*Matrix, len(p.pairs))
	for i, pair := range p.pairs {
		out[i] = p.matrices[pair]
	}
	return out
}

// Pairwise projects t once per unordered pair of input columns. It requires
// at least two input columns.
func Pairwise(t *Table, agg AggFunc) (*Projections, error) {
	switch len(t.inputs) {
	case 0:
		return nil, &ConfigurationError{Err: ErrNoInputs}
	case 1:
		return nil, configErrorf("pairwise projection needs at least two input columns, got %q", t.inputs[0])
	}
	pairs := Pairs(t.inputs)
	out := &Projections{pairs: pairs, matrices: make(map[Pair]*Matrix, len(pairs))}
	for _, pair := range pairs {
		m, err := Project(t, pair.A, pair.B, t.resultName, agg)
		if err != nil {
			return nil, err
		}
		out.matrices[pair] = m
	}
	return out, nil
}
