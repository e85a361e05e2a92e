package linsolve

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// BiCGStab is a Jacobi-preconditioned BiConjugate Gradient Stabilized
// solver for the non-symmetric TPFA pressure systems.
type BiCGStab struct {
	Tol     float64 // relative residual target; 1.e-10 when zero
	MaxIter int     // 4*n when zero
}

const breakdownTol = 1.e-30

func (s BiCGStab) Solve(n, nnz int, rowPtr, colIdx []int, vals, rhs []float64) (x []float64, rep Report) {
	var (
		tol     = s.Tol
		maxIter = s.MaxIter
	)
	if tol == 0 {
		tol = 1.e-10
	}
	if maxIter == 0 {
		maxIter = 4 * n
	}
	x = make([]float64, n)

	bnorm := floats.Norm(rhs, 2)
	if bnorm == 0 {
		rep = Report{Converged: true}
		return
	}

	// Jacobi preconditioner from the diagonal
	diag := make([]float64, n)
	for i := 0; i < n; i++ {
		for k := rowPtr[i]; k < rowPtr[i+1]; k++ {
			if colIdx[k] == i {
				diag[i] = vals[k]
			}
		}
		if diag[i] == 0 {
			diag[i] = 1
		}
	}
	psolve := func(dst, src []float64) {
		for i := range dst {
			dst[i] = src[i] / diag[i]
		}
	}

	var (
		r    = make([]float64, n)
		rtld = make([]float64, n)
		p    = make([]float64, n)
		v    = make([]float64, n)
		t    = make([]float64, n)
		phat = make([]float64, n)
		shat = make([]float64, n)
		rho  = 1.0
		alph = 1.0
		omeg = 1.0
	)
	copy(r, rhs) // x = 0 start
	copy(rtld, r)

	for it := 1; it <= maxIter; it++ {
		rho1 := floats.Dot(rtld, r)
		if math.Abs(rho1) < breakdownTol {
			rep = Report{Iterations: it - 1, Residual: floats.Norm(r, 2) / bnorm}
			return
		}
		if it == 1 {
			copy(p, r)
		} else {
			beta := (rho1 / rho) * (alph / omeg)
			for i := range p {
				p[i] = r[i] + beta*(p[i]-omeg*v[i])
			}
		}
		psolve(phat, p)
		matVec(rowPtr, colIdx, vals, phat, v)
		alph = rho1 / floats.Dot(rtld, v)
		// s stored in r
		floats.AddScaled(r, -alph, v)
		if floats.Norm(r, 2)/bnorm < tol {
			floats.AddScaled(x, alph, phat)
			rep = Report{Converged: true, Iterations: it, Residual: floats.Norm(r, 2) / bnorm}
			return
		}
		psolve(shat, r)
		matVec(rowPtr, colIdx, vals, shat, t)
		tt := floats.Dot(t, t)
		if tt < breakdownTol {
			rep = Report{Iterations: it, Residual: floats.Norm(r, 2) / bnorm}
			return
		}
		omeg = floats.Dot(t, r) / tt
		floats.AddScaled(x, alph, phat)
		floats.AddScaled(x, omeg, shat)
		floats.AddScaled(r, -omeg, t)
		rho = rho1
		res := floats.Norm(r, 2) / bnorm
		if res < tol {
			rep = Report{Converged: true, Iterations: it, Residual: res}
			return
		}
		rep = Report{Iterations: it, Residual: res}
	}
	return
}
