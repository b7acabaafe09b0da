package powerflow

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// sweep is a Z-bus fixed point standing in for a backward/forward sweep:
// each pass turns the loads into injected currents and solves the node
// voltages against the reduced admittance matrix, factored once. It walks
// no branches, so meshed topologies need no special handling.
func (c *solverCase) sweep(stage Stage) ([]complex128, int, error) {
	v := append([]complex128(nil), c.v0...)
	pq := c.pq()
	tol := stage.ToleranceMVA / c.baseMVA
	if len(pq) == 0 {
		return v, 0, nil
	}

	f := c.residual(v, pq)
	if normInf(f) < tol {
		return v, 0, nil
	}

	m := len(pq)
	var lu mat.LU
	lu.Factorize(c.y.realExpansion(pq))
	if math.IsInf(lu.Cond(), 1) {
		return nil, 0, fmt.Errorf("%w: singular reduced admittance matrix", ErrNonConvergence)
	}

	source := make([]complex128, m)
	for k, n := range pq {
		source[k] = c.y[n][c.slack] * c.vSlack
	}

	rhs := mat.NewVecDense(2*m, nil)
	var x mat.VecDense
	for it := 1; it <= stage.MaxIteration; it++ {
		for k, n := range pq {
			inj := cmplx.Conj(c.sbus[n]/v[n]) - source[k]
			rhs.SetVec(k, real(inj))
			rhs.SetVec(m+k, imag(inj))
		}

		err := lu.SolveVecTo(&x, false, rhs)
		var cond mat.Condition
		if errors.As(err, &cond) && !math.IsInf(float64(cond), 1) {
			err = nil
		}
		if err != nil {
			return nil, it, fmt.Errorf("%w: %v", ErrNonConvergence, err)
		}

		for k, n := range pq {
			v[n] = complex(x.AtVec(k), x.AtVec(m+k))
			if cmplx.IsNaN(v[n]) || cmplx.IsInf(v[n]) || v[n] == 0 {
				return nil, it, fmt.Errorf("%w: %v", ErrNonConvergence, errNonFinite)
			}
		}

		f = c.residual(v, pq)
		if normInf(f) < tol {
			return v, it, nil
		}
	}
	return nil, stage.MaxIteration, fmt.Errorf("%w: mismatch %.3g pu after %d iterations",
		ErrNonConvergence, normInf(f), stage.MaxIteration)
}
