package gnn

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// FlatIndex returns row of the pairwise edge buffer holding pair (detection i, track j)
func FlatIndex(i, j, m int) int {
	return i*m + j
}

// PairIndex is the inverse of FlatIndex. Panics if m is not positive: there are no pairs without tracks.
func PairIndex(k, m int) (int, int) {
	if m <= 0 {
		panic(fmt.Sprintf("gnn: PairIndex needs positive number of tracks, got %d", m))
	}
	return k / m, k % m
}

// PairwiseEdges builds the (N·M)×D matrix of detection-track relative vectors.
// Row FlatIndex(i, j, m) holds embeddings[N+j] − embeddings[i].
// If N·M is zero nil is returned: there are no pairs to score.
func PairwiseEdges(embeddings *mat.Dense, n, m int) (*mat.Dense, error) {
	if err := checkSplit(embeddings, n, m); err != nil {
		return nil, err
	}
	if n == 0 || m == 0 {
		return nil, nil
	}
	_, d := embeddings.Dims()
	data := make([]float64, n*m*d)
	for i := 0; i < n; i++ {
		det := embeddings.RawRowView(i)
		for j := 0; j < m; j++ {
			trk := embeddings.RawRowView(n + j)
			row := data[FlatIndex(i, j, m)*d : (FlatIndex(i, j, m)+1)*d]
			for k := range row {
				row[k] = trk[k] - det[k]
			}
		}
	}
	return mat.NewDense(n*m, d, data), nil
}

// checkSplit verifies that embeddings buffer has exactly N+M rows.
// nil buffer is accepted only for an empty graph.
func checkSplit(embeddings *mat.Dense, n, m int) error {
	if n < 0 || m < 0 {
		return errors.Wrapf(ErrShapeMismatch, "negative node counts N=%d M=%d", n, m)
	}
	if embeddings == nil {
		if n+m != 0 {
			return errors.Wrapf(ErrShapeMismatch, "embeddings are nil, expected N+M=%d rows", n+m)
		}
		return nil
	}
	rows, _ := embeddings.Dims()
	if rows != n+m {
		return errors.Wrapf(ErrShapeMismatch, "embeddings have %d rows, expected N+M=%d", rows, n+m)
	}
	return nil
}
