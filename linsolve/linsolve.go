// Package linsolve provides the linear-solver capability consumed by the
// pressure solve step. Systems arrive in three-array CSR form; callers
// decide how to treat a non-converged report.
package linsolve

type Report struct {
	Converged  bool
	Iterations int
	Residual   float64
}

type Solver interface {
	// Solve computes x in A x = rhs, A given as n x n CSR.
	Solve(n, nnz int, rowPtr, colIdx []int, vals, rhs []float64) (x []float64, rep Report)
}

// matVec computes y = A x for a CSR matrix.
func matVec(rowPtr, colIdx []int, vals, x, y []float64) {
	for i := range y {
		var sum float64
		for k := rowPtr[i]; k < rowPtr[i+1]; k++ {
			sum += vals[k] * x[colIdx[k]]
		}
		y[i] = sum
	}
}
