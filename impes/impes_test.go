package impes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/porousmedia/resim/autodiff"
	"github.com/porousmedia/resim/fluid"
	"github.com/porousmedia/resim/grid"
	"github.com/porousmedia/resim/linsolve"
	"github.com/porousmedia/resim/state"
	"github.com/porousmedia/resim/utils"
)

// singlePhaseState builds an equilibrium single-phase state: full
// saturation, unit surface volume, uniform pressure.
func singlePhaseState(nc int, p float64) (st *state.Reservoir) {
	st = state.NewReservoir(nc, 1)
	for c := 0; c < nc; c++ {
		st.Pressure[c] = p
		st.Saturation[c] = 1
		st.SurfaceVol[c] = 1
	}
	return
}

// unitFluid reduces the pressure equation to pure diffusion.
func unitFluid() *fluid.ConstantFluid {
	return fluid.NewConstantFluid([]float64{1}, []float64{1})
}

func TestSteadyStateTPFAPressure(t *testing.T) {
	// 1-D chain with a high-WI bhp well at each end behaves like a
	// Dirichlet problem: the converged profile is linear between the
	// well pressures.
	var (
		nx = 10
		wi = 1.e8
		g  = grid.NewUniformCartGrid(nx, 1, 1, 1, 1, 1, 0.2)
		w  = grid.NewWells(
			[]grid.Completion{{Cell: 0, WI: wi}},
			[]grid.Completion{{Cell: nx - 1, WI: wi}},
		)
	)
	o := NewImpesTPFAAD(g, unitFluid(), w, linsolve.Dense{})
	st := singlePhaseState(nx, 1.5)
	wst := &state.Well{BHP: []float64{2, 1}}

	assert.NoError(t, o.Solve(1, st, wst))

	// face transmissibility is 1, so the drop per face is constant
	slope := (2. - 1.) / float64(nx-1)
	for c := 0; c < nx; c++ {
		want := 2. - slope*float64(c)
		assert.InDelta(t, want, st.Pressure[c], 1.e-4)
	}
}

func TestConvergedStateRoundTrip(t *testing.T) {
	var (
		nx = 8
		g  = grid.NewUniformCartGrid(nx, 1, 1, 1, 1, 1, 0.2)
		w  = grid.NewWells(
			[]grid.Completion{{Cell: 0, WI: 1.e8}},
			[]grid.Completion{{Cell: nx - 1, WI: 1.e8}},
		)
	)
	o := NewImpesTPFAAD(g, unitFluid(), w, linsolve.Dense{})
	st := singlePhaseState(nx, 1.5)
	wst := &state.Well{BHP: []float64{2, 1}}
	assert.NoError(t, o.Solve(1, st, wst))

	before := make([]float64, nx)
	copy(before, st.Pressure)
	// a second solve from the converged state must not move the pressure
	assert.NoError(t, o.Solve(1, st, wst))
	for c := range before {
		assert.InDelta(t, before[c], st.Pressure[c], 1.e-7)
	}
}

func TestZeroWellsDegenerates(t *testing.T) {
	var (
		g = grid.NewUniformCartGrid(4, 1, 1, 1, 1, 1, 0.2)
		w = grid.NewWells()
	)
	o := NewImpesTPFAAD(g, unitFluid(), w, linsolve.Dense{})
	st := singlePhaseState(4, 1)
	wst := state.NewWell(0)

	o.PrepareStep(0.1, st, wst)
	assert.NoError(t, o.Assemble(st, wst, true))
	// uniform pressure, no wells: equilibrium, residual already zero
	assert.InDelta(t, 0, o.CellResidual().Value().MaxAbs(), 1.e-12)
	assert.True(t, o.GetConvergence(0.1, 0))
}

func TestZeroInternalFaces(t *testing.T) {
	var (
		g = grid.NewUniformCartGrid(1, 1, 1, 1, 1, 1, 0.2)
		w = grid.NewWells([]grid.Completion{{Cell: 0, WI: 2}})
	)
	o := NewImpesTPFAAD(g, unitFluid(), w, linsolve.Dense{})
	st := singlePhaseState(1, 1)
	wst := &state.Well{BHP: []float64{3}}

	o.PrepareStep(0.5, st, wst)
	assert.NoError(t, o.Assemble(st, wst, true))
	// no faces: the residual is the well inflow alone,
	// -dt * WI * mob * (bhp - p) = -0.5*2*(3-1)
	assert.InDelta(t, -2, o.CellResidual().Value().AtVec(0), 1.e-12)
}

func TestRecomputeIdempotence(t *testing.T) {
	var (
		nc = 3
		f  = fluid.NewCompressibleFluid(
			[]float64{1.1}, []float64{1}, []float64{1.e-2}, []float64{0.7}, 2)
	)
	d := NewPressureDependentFluidData(nc, f)
	st := singlePhaseState(nc, 5)
	for c := 0; c < nc; c++ {
		st.Saturation[c] = 0.5
	}
	d.ComputePressQuant(st)
	d.ComputeSatQuant(st)
	p := pressureVariable(nc)
	b1 := d.FVF(0, p).Value().Copy()
	mu1 := d.PhaseViscosity(0, p).Value().Copy()
	kr1 := d.PhaseRelPerm(0).Copy()

	d.ComputePressQuant(st)
	d.ComputeSatQuant(st)
	assert.Equal(t, b1.Data(), d.FVF(0, p).Value().Data())
	assert.Equal(t, mu1.Data(), d.PhaseViscosity(0, p).Value().Data())
	assert.Equal(t, kr1.Data(), d.PhaseRelPerm(0).Data())
}

func TestFVFReciprocalDerivative(t *testing.T) {
	var (
		nc    = 2
		compr = 1.e-2
		f     = fluid.NewCompressibleFluid(
			[]float64{1}, []float64{0}, []float64{compr}, []float64{1}, 1)
	)
	d := NewPressureDependentFluidData(nc, f)
	st := singlePhaseState(nc, 10)
	d.ComputePressQuant(st)
	d.ComputeSatQuant(st)

	p := pressureVariable(nc)
	b := d.FVF(0, p)
	// A = exp(-c*p); 1/A and d(1/A)/dp = c/A = c*exp(c*p)
	aVal := b.Value().AtVec(0)
	assert.InDelta(t, 1.10517091808, aVal, 1.e-9)
	assert.InDelta(t, compr*aVal, b.Deriv(0).At(0, 0), 1.e-9)
	// off-diagonal and cross-block derivatives stay zero
	assert.Equal(t, 0., b.Deriv(0).At(0, 1))
}

func TestPhaseIndexPrecondition(t *testing.T) {
	d := NewPressureDependentFluidData(2, unitFluid())
	st := singlePhaseState(2, 1)
	d.ComputePressQuant(st)
	d.ComputeSatQuant(st)
	p := pressureVariable(2)
	assert.Panics(t, func() { d.FVF(1, p) })
	assert.Panics(t, func() { d.PhaseViscosity(-1, p) })
	assert.Panics(t, func() { d.PhaseRelPerm(3) })
}

func TestStateSizePrecondition(t *testing.T) {
	d := NewPressureDependentFluidData(4, unitFluid())
	st := singlePhaseState(3, 1) // wrong cell count
	assert.Panics(t, func() { d.ComputePressQuant(st) })
	assert.Panics(t, func() { d.ComputeSatQuant(st) })
}

func TestFatalLinearSolve(t *testing.T) {
	var (
		nx = 4
		g  = grid.NewUniformCartGrid(nx, 1, 1, 1, 1, 1, 0.2)
		w  = grid.NewWells([]grid.Completion{{Cell: 0, WI: 1}})
	)
	o := NewImpesTPFAAD(g, unitFluid(), w, failSolver{})
	st := singlePhaseState(nx, 1)
	before := make([]float64, nx)
	copy(before, st.Pressure)

	err := o.Solve(1, st, &state.Well{BHP: []float64{5}})
	assert.Error(t, err)
	// no state mutation on failure
	assert.Equal(t, before, st.Pressure)
}

type failSolver struct{}

func (failSolver) Solve(n, nnz int, rowPtr, colIdx []int, vals, rhs []float64) ([]float64, linsolve.Report) {
	return make([]float64, n), linsolve.Report{Converged: false}
}

// pressureVariable builds a single-group AD pressure variable, enough for
// exercising the fluid-data accessors outside a full assembly.
func pressureVariable(nc int) autodiff.Block {
	return autodiff.Variables([]utils.Vector{utils.NewVector(nc)})[0]
}
