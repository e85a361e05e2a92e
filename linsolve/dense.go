package linsolve

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Dense is an exact LU backend; it densifies the CSR input and is meant
// for the small systems that tests and demos use.
type Dense struct{}

func (Dense) Solve(n, nnz int, rowPtr, colIdx []int, vals, rhs []float64) (x []float64, rep Report) {
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for k := rowPtr[i]; k < rowPtr[i+1]; k++ {
			a.Set(i, colIdx[k], vals[k])
		}
	}
	var lu mat.LU
	lu.Factorize(a)
	var sol mat.VecDense
	if err := lu.SolveVecTo(&sol, false, mat.NewVecDense(n, rhs)); err != nil {
		x = make([]float64, n)
		return
	}
	x = make([]float64, n)
	copy(x, sol.RawVector().Data)

	// report the achieved residual
	r := make([]float64, n)
	matVec(rowPtr, colIdx, vals, x, r)
	floats.Sub(r, rhs)
	bnorm := floats.Norm(rhs, 2)
	res := floats.Norm(r, 2)
	if bnorm > 0 {
		res /= bnorm
	}
	rep = Report{Converged: true, Iterations: 1, Residual: res}
	return
}
