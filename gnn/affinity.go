package gnn

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Affinity is a dense row-major N×M matrix of detection-track scores.
// Entry (i, j) relates detection i to track j.
// Unlike mat.Dense it may have zero rows or zero columns, which happens
// on frames without detections or without tracks.
type Affinity struct {
	rows int
	cols int
	data []float64
}

// NewAffinity creates N×M affinity matrix. If data is nil a zeroed backing slice is allocated,
// otherwise data is used as is (row-major) and must have exactly n*m elements.
func NewAffinity(n, m int, data []float64) (*Affinity, error) {
	if n < 0 || m < 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "negative affinity dimensions %dx%d", n, m)
	}
	if data == nil {
		data = make([]float64, n*m)
	}
	if len(data) != n*m {
		return nil, errors.Wrapf(ErrShapeMismatch, "affinity data has %d elements, expected %dx%d=%d", len(data), n, m, n*m)
	}
	return &Affinity{
		rows: n,
		cols: m,
		data: data,
	}, nil
}

// AffinityFromDense copies a gonum matrix into an Affinity
func AffinityFromDense(d mat.Matrix) *Affinity {
	n, m := d.Dims()
	aff := &Affinity{
		rows: n,
		cols: m,
		data: make([]float64, n*m),
	}
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			aff.data[i*m+j] = d.At(i, j)
		}
	}
	return aff
}

// AffinityFromRows builds an Affinity from a slice of equally sized rows.
// Since a slice of rows can't express 0×M, m is passed explicitly.
func AffinityFromRows(rows [][]float64, m int) (*Affinity, error) {
	aff, err := NewAffinity(len(rows), m, nil)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != m {
			return nil, errors.Wrapf(ErrShapeMismatch, "affinity row %d has %d columns, expected %d", i, len(row), m)
		}
		copy(aff.data[i*m:(i+1)*m], row)
	}
	return aff, nil
}

// Dims returns number of detections (rows) and tracks (columns)
func (aff *Affinity) Dims() (int, int) {
	return aff.rows, aff.cols
}

// At returns entry for detection i and track j
func (aff *Affinity) At(i, j int) float64 {
	aff.checkIndex(i, j)
	return aff.data[i*aff.cols+j]
}

// Set sets entry for detection i and track j
func (aff *Affinity) Set(i, j int, v float64) {
	aff.checkIndex(i, j)
	aff.data[i*aff.cols+j] = v
}

// RawData returns underlying row-major storage. Be careful: this is not copy of data, but reference to it
func (aff *Affinity) RawData() []float64 {
	return aff.data
}

// Row returns copy of i-th row
func (aff *Affinity) Row(i int) []float64 {
	if i < 0 || i >= aff.rows {
		panic(errors.Wrapf(ErrShapeMismatch, "affinity row %d out of range [0,%d)", i, aff.rows))
	}
	row := make([]float64, aff.cols)
	copy(row, aff.data[i*aff.cols:(i+1)*aff.cols])
	return row
}

// IsEmpty reports whether the matrix has no entries
func (aff *Affinity) IsEmpty() bool {
	return aff.rows == 0 || aff.cols == 0
}

// Dense converts the matrix to gonum representation. Returns nil for empty matrix.
func (aff *Affinity) Dense() *mat.Dense {
	if aff.IsEmpty() {
		return nil
	}
	data := make([]float64, len(aff.data))
	copy(data, aff.data)
	return mat.NewDense(aff.rows, aff.cols, data)
}

// IsFinite reports whether every entry is neither NaN nor Inf
func (aff *Affinity) IsFinite() bool {
	for _, v := range aff.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (aff *Affinity) checkIndex(i, j int) {
	if i < 0 || i >= aff.rows || j < 0 || j >= aff.cols {
		panic(errors.Wrapf(ErrShapeMismatch, "affinity index (%d,%d) out of range %dx%d", i, j, aff.rows, aff.cols))
	}
}

// checkShape verifies that matrix is exactly n×m
func (aff *Affinity) checkShape(n, m int, name string) error {
	if aff == nil {
		return errors.Wrapf(ErrShapeMismatch, "%s affinity matrix is nil, expected %dx%d", name, n, m)
	}
	if aff.rows != n || aff.cols != m {
		return errors.Wrapf(ErrShapeMismatch, "%s affinity matrix is %dx%d, expected %dx%d", name, aff.rows, aff.cols, n, m)
	}
	return nil
}
