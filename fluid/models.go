package fluid

import (
	"fmt"
	"math"
)

// ConstantFluid has pressure-independent properties and linear relative
// permeability. With B = mu = 1 the pressure equation reduces to pure
// diffusion.
type ConstantFluid struct {
	B  []float64 // formation volume factor per phase
	Mu []float64 // viscosity per phase
}

func NewConstantFluid(b, mu []float64) (f *ConstantFluid) {
	if len(b) != len(mu) {
		err := fmt.Errorf("phase count mismatch: len(b) = %v, len(mu) = %v\n", len(b), len(mu))
		panic(err)
	}
	f = &ConstantFluid{B: b, Mu: mu}
	return
}

func (f *ConstantFluid) NumPhases() int { return len(f.B) }

func (f *ConstantFluid) Relperm(nc int, s []float64, cells []int) (kr []float64) {
	kr = make([]float64, len(s))
	copy(kr, s)
	return
}

func (f *ConstantFluid) Matrix(nc int, p, z []float64, cells []int) (A, dA []float64) {
	var (
		np = f.NumPhases()
	)
	A = make([]float64, nc*np*np)
	dA = make([]float64, nc*np*np)
	for c := 0; c < nc; c++ {
		for ph := 0; ph < np; ph++ {
			A[c*np*np+ph*(np+1)] = f.B[ph]
		}
	}
	return
}

func (f *ConstantFluid) Viscosity(nc int, p, z []float64, cells []int) (mu, dmu []float64) {
	var (
		np = f.NumPhases()
	)
	mu = make([]float64, nc*np)
	for c := 0; c < nc; c++ {
		for ph := 0; ph < np; ph++ {
			mu[c*np+ph] = f.Mu[ph]
		}
	}
	return
}

// CompressibleFluid has an exponential pressure dependence of the FVF,
// B(p) = Bref*exp(-c*(p-pref)), constant viscosity and Corey-type
// relative permeability kr = s^n.
type CompressibleFluid struct {
	BRef, PRef []float64 // reference FVF and pressure per phase
	Compr      []float64 // compressibility per phase
	Mu         []float64
	CoreyExp   float64
}

func NewCompressibleFluid(bref, pref, compr, mu []float64, coreyExp float64) (f *CompressibleFluid) {
	if len(bref) != len(pref) || len(bref) != len(compr) || len(bref) != len(mu) {
		err := fmt.Errorf("phase count mismatch in compressible fluid\n")
		panic(err)
	}
	f = &CompressibleFluid{
		BRef: bref, PRef: pref, Compr: compr, Mu: mu,
		CoreyExp: coreyExp,
	}
	return
}

func (f *CompressibleFluid) NumPhases() int { return len(f.BRef) }

func (f *CompressibleFluid) Relperm(nc int, s []float64, cells []int) (kr []float64) {
	kr = make([]float64, len(s))
	for i, sat := range s {
		kr[i] = math.Pow(sat, f.CoreyExp)
	}
	return
}

func (f *CompressibleFluid) Matrix(nc int, p, z []float64, cells []int) (A, dA []float64) {
	var (
		np = f.NumPhases()
	)
	A = make([]float64, nc*np*np)
	dA = make([]float64, nc*np*np)
	for c := 0; c < nc; c++ {
		for ph := 0; ph < np; ph++ {
			b := f.BRef[ph] * math.Exp(-f.Compr[ph]*(p[c]-f.PRef[ph]))
			A[c*np*np+ph*(np+1)] = b
			dA[c*np*np+ph*(np+1)] = -f.Compr[ph] * b
		}
	}
	return
}

func (f *CompressibleFluid) Viscosity(nc int, p, z []float64, cells []int) (mu, dmu []float64) {
	var (
		np = f.NumPhases()
	)
	mu = make([]float64, nc*np)
	for c := 0; c < nc; c++ {
		for ph := 0; ph < np; ph++ {
			mu[c*np+ph] = f.Mu[ph]
		}
	}
	return
}
