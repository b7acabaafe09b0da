package powerflow

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// newton runs Newton-Raphson in polar coordinates from the case's initial
// point. When damped is set every correction is scaled by the Iwamoto
// optimal multiplier.
func (c *solverCase) newton(stage Stage, damped bool) ([]complex128, int, error) {
	v := append([]complex128(nil), c.v0...)
	pq := c.pq()
	tol := stage.ToleranceMVA / c.baseMVA
	if len(pq) == 0 {
		return v, 0, nil
	}

	m := len(pq)
	vm := make([]float64, c.nodes)
	va := make([]float64, c.nodes)
	for i, x := range v {
		vm[i], va[i] = cmplx.Abs(x), cmplx.Phase(x)
	}

	f := c.residual(v, pq)
	if normInf(f) < tol {
		return v, 0, nil
	}

	rhs := mat.NewVecDense(2*m, nil)
	for it := 1; it <= stage.MaxIteration; it++ {
		for k, x := range f {
			rhs.SetVec(k, -x)
		}
		var dx mat.VecDense
		if err := solveVec(&dx, c.jacobian(v, pq), rhs); err != nil {
			return nil, it, fmt.Errorf("%w: jacobian: %v", ErrNonConvergence, err)
		}
		step := make([]float64, 2*m)
		for k := range step {
			step[k] = dx.AtVec(k)
		}

		mu := 1.0
		if damped {
			mu = c.iwamoto(v, pq, f, step)
		}
		for k, n := range pq {
			va[n] += mu * step[k]
			vm[n] += mu * step[m+k]
			v[n] = cmplx.Rect(vm[n], va[n])
		}

		f = c.residual(v, pq)
		if normInf(f) < tol {
			return v, it, nil
		}
	}
	return nil, stage.MaxIteration, fmt.Errorf("%w: mismatch %.3g pu after %d iterations",
		ErrNonConvergence, normInf(f), stage.MaxIteration)
}

// jacobian returns d[P;Q]/d[Va;Vm] over the pq nodes.
func (c *solverCase) jacobian(v []complex128, pq []int) *mat.Dense {
	m := len(pq)
	inj := c.y.mulVec(v)
	vnorm := make([]complex128, len(v))
	for i, x := range v {
		if a := cmplx.Abs(x); a > 0 {
			vnorm[i] = x / complex(a, 0)
		} else {
			vnorm[i] = 1
		}
	}

	j := mat.NewDense(2*m, 2*m, nil)
	for a, r := range pq {
		for b, s := range pq {
			y := c.y[r][s]
			if y == 0 && r != s {
				continue
			}
			dva := 1i * v[r] * cmplx.Conj(-y*v[s])
			dvm := v[r] * cmplx.Conj(y*vnorm[s])
			if r == s {
				dva += 1i * v[r] * cmplx.Conj(inj[r])
				dvm += cmplx.Conj(inj[r]) * vnorm[r]
			}
			j.Set(a, b, real(dva))
			j.Set(a, m+b, real(dvm))
			j.Set(m+a, b, imag(dva))
			j.Set(m+a, m+b, imag(dvm))
		}
	}
	return j
}

// iwamoto returns the step multiplier minimising the squared mismatch along
// the Newton direction, using the second order expansion of the injections.
func (c *solverCase) iwamoto(v []complex128, pq []int, f, step []float64) float64 {
	m := len(pq)
	dv := make([]complex128, c.nodes)
	for k, n := range pq {
		vm := cmplx.Abs(v[n])
		if vm == 0 {
			return 1
		}
		dv[n] = v[n] * complex(step[m+k]/vm, step[k])
	}

	ydv := c.y.mulVec(dv)
	second := make([]float64, 2*m)
	for k, n := range pq {
		s := dv[n] * cmplx.Conj(ydv[n])
		second[k] = real(s)
		second[m+k] = imag(s)
	}

	// F(mu) = a + mu*b + mu^2*c with a = F, b = -F
	var ab, bb, ac, bc, cc float64
	for k, a := range f {
		b := -a
		ab += a * b
		bb += b * b
		ac += a * second[k]
		bc += b * second[k]
		cc += second[k] * second[k]
	}
	g0, g1, g2, g3 := ab, bb+2*ac, 3*bc, 2*cc

	mu := 1.0
	for i := 0; i < 20; i++ {
		g := g0 + mu*(g1+mu*(g2+mu*g3))
		dg := g1 + mu*(2*g2+3*mu*g3)
		if dg == 0 {
			break
		}
		next := mu - g/dg
		done := math.Abs(next-mu) < 1e-12
		mu = next
		if done {
			break
		}
	}
	if math.IsNaN(mu) || math.IsInf(mu, 0) || mu <= 0 {
		return 1
	}
	return math.Min(mu, 2)
}

var errNonFinite = errors.New("non-finite solution")

// solveVec solves a*x = b. An ill-conditioned but finite solve is accepted.
func solveVec(dst *mat.VecDense, a mat.Matrix, b mat.Vector) error {
	err := dst.SolveVec(a, b)
	var cond mat.Condition
	if errors.As(err, &cond) && !math.IsInf(float64(cond), 1) {
		err = nil
	}
	if err != nil {
		return err
	}
	for i := 0; i < dst.Len(); i++ {
		if x := dst.AtVec(i); math.IsNaN(x) || math.IsInf(x, 0) {
			return errNonFinite
		}
	}
	return nil
}
