package powerflow

import "gonum.org/v1/gonum/mat"

// cmatrix is a dense complex matrix. Linear solves go through its real
// expansion in gonum.
type cmatrix [][]complex128

func newCMatrix(n int) cmatrix {
	m := make(cmatrix, n)
	for i := range m {
		m[i] = make([]complex128, n)
	}
	return m
}

func (m cmatrix) mulVec(v []complex128) []complex128 {
	out := make([]complex128, len(m))
	for i, row := range m {
		var sum complex128
		for j, y := range row {
			if y != 0 {
				sum += y * v[j]
			}
		}
		out[i] = sum
	}
	return out
}

// realExpansion returns [[G, -B], [B, G]] for the submatrix of m on idx.
func (m cmatrix) realExpansion(idx []int) *mat.Dense {
	n := len(idx)
	d := mat.NewDense(2*n, 2*n, nil)
	for a, i := range idx {
		for b, j := range idx {
			g, bb := real(m[i][j]), imag(m[i][j])
			d.Set(a, b, g)
			d.Set(a, n+b, -bb)
			d.Set(n+a, b, bb)
			d.Set(n+a, n+b, g)
		}
	}
	return d
}
