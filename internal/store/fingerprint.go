package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

// Fingerprint is the xxHash64 of a table's columns, typed input values and
// results, as 16 hex digits. Tables with equal fingerprints hold the same
// evaluation.
func Fingerprint(table *sensitivity.Table) (string, error) {
	d := xxhash.New()
	for _, col := range table.Columns() {
		d.WriteString(col)
		d.Write([]byte{0})
	}
	var buf [8]byte
	for i, row := range table.Rows() {
		enc, err := encodeRow(row.Inputs)
		if err != nil {
			return "", fmt.Errorf("encode row %d: %w", i, err)
		}
		d.WriteString(enc)
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(row.Result))
		d.Write(buf[:])
	}
	return fmt.Sprintf("%016x", d.Sum64()), nil
}
