package utils

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a row-major dense matrix used for per-cell derived quantity
// tables (cells x phases, cells x phases^2).
type Matrix struct {
	M *mat.Dense
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v\n", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{m}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)             { return m.M.Dims() }
func (m Matrix) At(i, j int) float64          { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix                { return m.M.T() }
func (m Matrix) Set(i, j int, val float64)    { m.M.Set(i, j, val) }
func (m Matrix) RawMatrix() blas64.General    { return m.M.RawMatrix() }
func (m Matrix) Data() []float64              { return m.M.RawMatrix().Data }

func (m Matrix) Copy() (R Matrix) {
	var (
		nr, nc = m.Dims()
		dataR  = make([]float64, nr*nc)
	)
	copy(dataR, m.Data())
	R = NewMatrix(nr, nc, dataR)
	return
}

// Col extracts column j as a new Vector.
func (m Matrix) Col(j int) (R Vector) {
	var (
		nr, nc = m.Dims()
	)
	if j < 0 || j > nc-1 {
		err := fmt.Errorf("column index out of bounds: index = %d, max_bounds = %d\n", j, nc-1)
		panic(err)
	}
	R = NewVector(nr)
	dataR := R.Data()
	for i := 0; i < nr; i++ {
		dataR[i] = m.At(i, j)
	}
	return
}

func (m Matrix) Mul(a Matrix) (R Matrix) {
	var (
		nr, _ = m.Dims()
		_, nc = a.Dims()
	)
	R = NewMatrix(nr, nc)
	R.M.Mul(m.M, a.M)
	return
}

func (m Matrix) Scale(a float64) (R Matrix) {
	R = m.Copy()
	dataR := R.Data()
	for i := range dataR {
		dataR[i] *= a
	}
	return
}
