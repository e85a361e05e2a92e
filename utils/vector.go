package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

type Vector struct {
	V *mat.VecDense
}

func NewVector(n int, dataO ...[]float64) (R Vector) {
	if n == 0 {
		// zero-length vectors arise for degenerate topology (no wells);
		// gonum disallows them, so they carry no backing storage
		return Vector{}
	}
	var v *mat.VecDense
	if len(dataO) != 0 {
		if len(dataO[0]) != n {
			err := fmt.Errorf("mismatch in allocation: NewVector n = %v, len(data[0]) = %v\n", n, len(dataO[0]))
			panic(err)
		}
		v = mat.NewVecDense(n, dataO[0])
	} else {
		v = mat.NewVecDense(n, make([]float64, n))
	}
	R = Vector{v}
	return
}

func NewVectorConstant(n int, val float64) (R Vector) {
	if n == 0 {
		return Vector{}
	}
	var (
		x = make([]float64, n)
	)
	for i := range x {
		x[i] = val
	}
	R = Vector{mat.NewVecDense(n, x)}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (v Vector) Dims() (r, c int)          { return v.V.Dims() }
func (v Vector) At(i, j int) float64       { return v.V.At(i, j) }
func (v Vector) T() mat.Matrix             { return v.V.T() }
func (v Vector) AtVec(i int) float64       { return v.V.AtVec(i) }
func (v Vector) SetVec(i int, val float64) { v.V.SetVec(i, val) }
func (v Vector) RawVector() blas64.Vector  { return v.V.RawVector() }

func (v Vector) Len() int {
	if v.V == nil {
		return 0
	}
	return v.V.Len()
}

func (v Vector) Data() []float64 {
	if v.V == nil {
		return nil
	}
	return v.V.RawVector().Data
}

func (v Vector) Copy() (R Vector) {
	var (
		n     = v.Len()
		dataR = make([]float64, n)
	)
	copy(dataR, v.Data())
	R = NewVector(n, dataR)
	return
}

// Chainable methods; each returns a new Vector and leaves the receiver alone.
func (v Vector) Add(a Vector) (R Vector) {
	R = v.Copy()
	dataR := R.Data()
	for i, val := range a.Data() {
		dataR[i] += val
	}
	return
}

func (v Vector) Subtract(a Vector) (R Vector) {
	R = v.Copy()
	dataR := R.Data()
	for i, val := range a.Data() {
		dataR[i] -= val
	}
	return
}

func (v Vector) ElMul(a Vector) (R Vector) {
	R = v.Copy()
	dataR := R.Data()
	for i, val := range a.Data() {
		dataR[i] *= val
	}
	return
}

func (v Vector) ElDiv(a Vector) (R Vector) {
	R = v.Copy()
	dataR := R.Data()
	for i, val := range a.Data() {
		dataR[i] /= val
	}
	return
}

func (v Vector) Scale(a float64) (R Vector) {
	R = v.Copy()
	dataR := R.Data()
	for i := range dataR {
		dataR[i] *= a
	}
	return
}

func (v Vector) AddScalar(a float64) (R Vector) {
	R = v.Copy()
	dataR := R.Data()
	for i := range dataR {
		dataR[i] += a
	}
	return
}

func (v Vector) Apply(f func(float64) float64) (R Vector) {
	R = v.Copy()
	dataR := R.Data()
	for i, val := range dataR {
		dataR[i] = f(val)
	}
	return
}

func (v Vector) Subset(I Index) (R Vector) {
	var (
		n     = v.Len()
		dataR = make([]float64, len(I))
	)
	for i, ind := range I {
		if ind < 0 || ind > n-1 {
			err := fmt.Errorf("index out of bounds: index = %d, max_bounds = %d\n", ind, n-1)
			panic(err)
		}
		dataR[i] = v.AtVec(ind)
	}
	R = NewVector(len(I), dataR)
	return
}

func (v Vector) Concat(a Vector) (R Vector) {
	var (
		n     = v.Len() + a.Len()
		dataR = make([]float64, n)
	)
	copy(dataR, v.Data())
	copy(dataR[v.Len():], a.Data())
	R = NewVector(n, dataR)
	return
}

func (v Vector) Min() (min float64) {
	data := v.Data()
	min = data[0]
	for _, val := range data {
		if val < min {
			min = val
		}
	}
	return
}

func (v Vector) Max() (max float64) {
	data := v.Data()
	max = data[0]
	for _, val := range data {
		if val > max {
			max = val
		}
	}
	return
}

// MaxAbs is the infinity norm; zero for an empty vector.
func (v Vector) MaxAbs() (max float64) {
	for _, val := range v.Data() {
		if math.Abs(val) > max {
			max = math.Abs(val)
		}
	}
	return
}
