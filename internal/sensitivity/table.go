package sensitivity

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
)

// DefaultResultName is the result column name when none is configured.
const DefaultResultName = "Result"

// Row is one evaluated combination: the input values in column order and
// the function result.
type Row struct {
	Inputs []any
	Result float64
}

// Table holds every evaluated row. Rows are shared between a table and its
// renamed views and are never mutated after construction.
type Table struct {
	inputs     []string
	resultName string
	rows       []Row
}

// NewTable builds a table from already evaluated rows. Each row must carry
// exactly one value per input column.
func NewTable(inputs []string, resultName string, rows []Row) (*Table, error) {
	if resultName == "" {
		resultName = DefaultResultName
	}
	seen := make(map[string]bool, len(inputs)+1)
	for _, name := range append(append([]string(nil), inputs...), resultName) {
		if seen[name] {
			return nil, configErrorf("duplicate column %q", name)
		}
		seen[name] = true
	}
	for i, r := range rows {
		if len(r.Inputs) != len(inputs) {
			return nil, configErrorf("row %d has %d inputs, want %d", i, len(r.Inputs), len(inputs))
		}
	}
	return &Table{
		inputs:     append([]string(nil), inputs...),
		resultName: resultName,
		rows:       rows,
	}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// InputColumns returns the input column names in declaration order.
func (t *Table) InputColumns() []string { return append([]string(nil), t.inputs...) }

// ResultName returns the result column name.
func (t *Table) ResultName() string { return t.resultName }

// Columns returns the input columns followed by the result column.
func (t *Table) Columns() []string {
	return append(t.InputColumns(), t.resultName)
}

// Index returns the position of an input column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.inputs {
		if c == name {
			return i
		}
	}
	return -1
}

// Row returns a copy of row i.
func (t *Table) Row(i int) Row {
	r := t.rows[i]
	return Row{Inputs: append([]any(nil), r.Inputs...), Result: r.Result}
}

// Rows returns a copy of every row.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i)
	}
	return out
}

// Column returns the values of the named input column in row order.
func (t *Table) Column(name string) ([]any, error) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, configErrorf("unknown column %q", name)
	}
	out := make([]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Inputs[idx]
	}
	return out, nil
}

// Results returns the result column in row order.
func (t *Table) Results() []float64 {
	out := make([]float64, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Result
	}
	return out
}

// Rename returns a view of t with input columns renamed through labels.
// Names absent from labels are kept; values are untouched. Applying the same
// labels to an already renamed view is a no-op unless a display name is
// itself a key of labels.
func (t *Table) Rename(labels map[string]string) *Table {
	if len(labels) == 0 {
		return t
	}
	renamed := make([]string, len(t.inputs))
	for i, name := range t.inputs {
		if display, ok := labels[name]; ok && display != "" {
			renamed[i] = display
		} else {
			renamed[i] = name
		}
	}
	return &Table{inputs: renamed, resultName: t.resultName, rows: t.rows}
}

// WithResultName returns a view of t with the result column renamed.
func (t *Table) WithResultName(name string) *Table {
	if name == "" || name == t.resultName {
		return t
	}
	return &Table{inputs: t.inputs, resultName: name, rows: t.rows}
}

// Equal reports whether t and o have the same columns and bit-identical rows.
func (t *Table) Equal(o *Table) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.resultName != o.resultName ||
		len(t.inputs) != len(o.inputs) || len(t.rows) != len(o.rows) {
		return false
	}
	for i := range t.inputs {
		if t.inputs[i] != o.inputs[i] {
			return false
		}
	}
	for i := range t.rows {
		a, b := t.rows[i], o.rows[i]
		if math.Float64bits(a.Result) != math.Float64bits(b.Result) {
			return false
		}
		for j := range a.Inputs {
			if a.Inputs[j] != b.Inputs[j] {
				return false
			}
		}
	}
	return true
}

// WriteCSV writes the header and all rows as CSV.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	record := make([]string, len(t.inputs)+1)
	for _, r := range t.rows {
		for i, v := range r.Inputs {
			record[i] = FormatValue(v)
		}
		record[len(t.inputs)] = strconv.FormatFloat(r.Result, 'g', -1, 64)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatValue renders an input value for display.
func FormatValue(v any) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case string:
		return val
	}
	return fmt.Sprint(v)
}
