// Package impes implements the implicit-pressure (IMPES) TPFA assembly:
// per-cell pressure- and saturation-dependent fluid quantities, upwind flux
// selection, and the residual/Jacobian construction driving one linear
// pressure update per step.
package impes

import (
	"fmt"

	"github.com/porousmedia/resim/autodiff"
	"github.com/porousmedia/resim/fluid"
	"github.com/porousmedia/resim/state"
	"github.com/porousmedia/resim/utils"
)

// PressureDependentFluidData caches per-cell derived quantities for the
// most recently supplied reservoir state. Callers must invoke the
// recompute hooks before reading the accessors.
type PressureDependentFluidData struct {
	nc, np int
	cells  []int
	fluid  fluid.Model

	// pressure dependent: FVF matrix and viscosity with derivatives
	A, dA   utils.Matrix // nc x np^2
	mu, dmu utils.Matrix // nc x np

	// saturation dependent: rel-perm only, derivatives discarded
	kr utils.Matrix // nc x np

	ones utils.Vector
}

func NewPressureDependentFluidData(nc int, f fluid.Model) (d *PressureDependentFluidData) {
	var (
		np    = f.NumPhases()
		cells = make([]int, nc)
	)
	for c := range cells {
		cells[c] = c
	}
	d = &PressureDependentFluidData{
		nc:    nc,
		np:    np,
		cells: cells,
		fluid: f,
		A:     utils.NewMatrix(nc, np*np),
		dA:    utils.NewMatrix(nc, np*np),
		mu:    utils.NewMatrix(nc, np),
		dmu:   utils.NewMatrix(nc, np),
		kr:    utils.NewMatrix(nc, np),
		ones:  utils.NewVectorConstant(nc, 1),
	}
	return
}

// ComputeSatQuant refreshes the saturation-dependent quantities. Rel-perm
// derivatives are intentionally discarded.
func (d *PressureDependentFluidData) ComputeSatQuant(st *state.Reservoir) {
	if len(st.Saturation) != d.nc*d.np {
		err := fmt.Errorf("saturation length mismatch: want %v, have %v\n", d.nc*d.np, len(st.Saturation))
		panic(err)
	}
	kr := d.fluid.Relperm(d.nc, st.Saturation, d.cells)
	copy(d.kr.Data(), kr)
}

// ComputePressQuant refreshes the pressure-dependent quantities.
func (d *PressureDependentFluidData) ComputePressQuant(st *state.Reservoir) {
	if len(st.Pressure) != d.nc {
		err := fmt.Errorf("pressure length mismatch: want %v, have %v\n", d.nc, len(st.Pressure))
		panic(err)
	}
	if len(st.SurfaceVol) != d.nc*d.np {
		err := fmt.Errorf("surface volume length mismatch: want %v, have %v\n", d.nc*d.np, len(st.SurfaceVol))
		panic(err)
	}
	A, dA := d.fluid.Matrix(d.nc, st.Pressure, st.SurfaceVol, d.cells)
	copy(d.A.Data(), A)
	copy(d.dA.Data(), dA)
	mu, dmu := d.fluid.Viscosity(d.nc, st.Pressure, st.SurfaceVol, d.cells)
	copy(d.mu.Data(), mu)
	if dmu != nil {
		copy(d.dmu.Data(), dmu)
	} else {
		dmuData := d.dmu.Data()
		for i := range dmuData {
			dmuData[i] = 0
		}
	}
}

func (d *PressureDependentFluidData) checkPhase(phase int) {
	if phase < 0 || phase >= d.np {
		err := fmt.Errorf("phase index out of range: %v not in [0,%v)\n", phase, d.np)
		panic(err)
	}
}

// FVF returns the reciprocal formation volume factor 1/A as an AD value.
// The FVF depends on pressure only, so the Jacobian w.r.t. the pressure
// group is diagonal and every other group's block is zero.
func (d *PressureDependentFluidData) FVF(phase int, p autodiff.Block) (R autodiff.Block) {
	d.checkPhase(phase)
	var (
		a       = d.A.Col(phase * (d.np + 1))
		da      = d.dA.Col(phase * (d.np + 1))
		pattern = p.BlockPattern()
		jac     = make([]utils.CSR, p.NumBlocks())
	)
	jac[0] = utils.NewCSRDiag(da)
	for k := 1; k < len(jac); k++ {
		jac[k] = utils.NewCSRZeros(d.nc, pattern[k])
	}
	R = autodiff.Constant(d.ones, pattern).ElDiv(autodiff.Function(a, jac))
	return
}

// PhaseViscosity returns viscosity as an AD value with the same
// diagonal-by-pressure Jacobian pattern as FVF.
func (d *PressureDependentFluidData) PhaseViscosity(phase int, p autodiff.Block) (R autodiff.Block) {
	d.checkPhase(phase)
	var (
		mu      = d.mu.Col(phase)
		dmu     = d.dmu.Col(phase)
		pattern = p.BlockPattern()
		jac     = make([]utils.CSR, p.NumBlocks())
	)
	jac[0] = utils.NewCSRDiag(dmu)
	for k := 1; k < len(jac); k++ {
		jac[k] = utils.NewCSRZeros(d.nc, pattern[k])
	}
	R = autodiff.Function(mu, jac)
	return
}

// PhaseRelPerm returns the plain per-cell rel-perm vector; it carries no
// derivative information.
func (d *PressureDependentFluidData) PhaseRelPerm(phase int) (kr utils.Vector) {
	d.checkPhase(phase)
	kr = d.kr.Col(phase)
	return
}
