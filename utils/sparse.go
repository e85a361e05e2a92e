package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

type DOK struct {
	M *sparse.DOK
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{sparse.NewDOK(nr, nc)}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)           { return m.M.Dims() }
func (m DOK) At(i, j int) float64        { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix              { return m.M.T() }
func (m DOK) Set(i, j int, val float64)  { m.M.Set(i, j, val) }

func (m DOK) ToCSR() CSR {
	return CSR{m.M.ToCSR()}
}

// CSR wraps the compressed sparse row matrix used for Jacobian blocks and
// grid operators. All methods return new matrices.
type CSR struct {
	M *sparse.CSR
}

// NewCSRZeros builds an empty (all zero) CSR of the given shape.
func NewCSRZeros(nr, nc int) (R CSR) {
	R = NewDOK(nr, nc).ToCSR()
	return
}

// NewCSRDiag builds a square diagonal matrix from v.
func NewCSRDiag(v Vector) (R CSR) {
	var (
		n = v.Len()
		d = NewDOK(n, n)
	)
	for i, val := range v.Data() {
		d.Set(i, i, val)
	}
	R = d.ToCSR()
	return
}

// NewCSREye builds the n x n identity.
func NewCSREye(n int) (R CSR) {
	R = NewCSRDiag(NewVectorConstant(n, 1))
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)                       { return m.M.Dims() }
func (m CSR) At(i, j int) float64                    { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                          { return m.M.T() }
func (m CSR) NNZ() int                               { return m.M.NNZ() }
func (m CSR) DoNonZero(fn func(i, j int, v float64)) { m.M.DoNonZero(fn) }
func (m CSR) RawMatrix() *blas.SparseMatrix          { return m.M.RawMatrix() }

// Raw exposes the three-array CSR form consumed by the linear solver.
func (m CSR) Raw() (rowPtr, colIdx []int, data []float64) {
	raw := m.M.RawMatrix()
	return raw.Indptr, raw.Ind, raw.Data
}

func (m CSR) Add(a CSR) (R CSR) {
	var (
		nr, nc   = m.Dims()
		anr, anc = a.Dims()
	)
	if nr != anr || nc != anc {
		err := fmt.Errorf("dimension mismatch in sparse Add: %v,%v != %v,%v\n", nr, nc, anr, anc)
		panic(err)
	}
	d := NewDOK(nr, nc)
	m.DoNonZero(func(i, j int, v float64) {
		d.Set(i, j, v)
	})
	a.DoNonZero(func(i, j int, v float64) {
		d.Set(i, j, d.At(i, j)+v)
	})
	R = d.ToCSR()
	return
}

func (m CSR) Scale(f float64) (R CSR) {
	var (
		nr, nc = m.Dims()
		d      = NewDOK(nr, nc)
	)
	m.DoNonZero(func(i, j int, v float64) {
		d.Set(i, j, f*v)
	})
	R = d.ToCSR()
	return
}

// ScaleRows premultiplies by diag(v): row i is scaled by v[i].
func (m CSR) ScaleRows(v Vector) (R CSR) {
	var (
		nr, nc = m.Dims()
		d      = NewDOK(nr, nc)
	)
	if v.Len() != nr {
		err := fmt.Errorf("dimension mismatch in ScaleRows: rows = %v, len(v) = %v\n", nr, v.Len())
		panic(err)
	}
	vd := v.Data()
	m.DoNonZero(func(i, j int, val float64) {
		d.Set(i, j, vd[i]*val)
	})
	R = d.ToCSR()
	return
}

func (m CSR) Mul(a CSR) (R CSR) {
	var (
		nr, _ = m.Dims()
		_, nc = a.Dims()
	)
	prod := sparse.NewCSR(nr, nc, nil, nil, nil)
	prod.Mul(m.M, a.M)
	R = CSR{prod}
	return
}

func (m CSR) MulVec(v Vector) (R Vector) {
	var (
		nr, nc = m.Dims()
	)
	if v.Len() != nc {
		err := fmt.Errorf("dimension mismatch in MulVec: cols = %v, len(v) = %v\n", nc, v.Len())
		panic(err)
	}
	R = NewVector(nr)
	var (
		vd = v.Data()
		rd = R.Data()
	)
	m.DoNonZero(func(i, j int, val float64) {
		rd[i] += val * vd[j]
	})
	return
}

// SubsetRows builds a matrix whose row r is row I[r] of the receiver. The
// same source row may appear more than once, as upwind selection requires.
func (m CSR) SubsetRows(I Index) (R CSR) {
	var (
		nr, nc              = m.Dims()
		rowPtr, colIdx, val = m.Raw()
		d                   = NewDOK(len(I), nc)
	)
	for r, src := range I {
		if src < 0 || src > nr-1 {
			err := fmt.Errorf("row index out of bounds: index = %d, max_bounds = %d\n", src, nr-1)
			panic(err)
		}
		for k := rowPtr[src]; k < rowPtr[src+1]; k++ {
			d.Set(r, colIdx[k], val[k])
		}
	}
	R = d.ToCSR()
	return
}
