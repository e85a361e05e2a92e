package impes

import (
	"github.com/porousmedia/resim/state"
	"github.com/porousmedia/resim/utils"
)

// The methods below expose ImpesTPFAAD through the nonlinear.PhysicalModel
// capability so the Newton driver can run it. The IMPES pressure equation
// is linear for mildly compressible fluids, so the driver typically
// converges in one iteration; compressibility makes further iterations do
// real work.

func (o *ImpesTPFAAD) PrepareStep(dt float64, st *state.Reservoir, wst *state.Well) {
	o.dt = dt
	o.residual0 = 0
}

// Assemble recomputes derived quantities and rebuilds the residual and
// Jacobian from the current state. Saturation-dependent quantities are
// refreshed on the initial call only; the pressure step does not alter
// saturations.
func (o *ImpesTPFAAD) Assemble(st *state.Reservoir, wst *state.Well, initial bool) (err error) {
	if initial {
		o.pdep.ComputeSatQuant(st)
	}
	o.assemble(o.dt, st, wst)
	if initial {
		o.residual0 = o.cellResidual.Value().MaxAbs()
	}
	return
}

func (o *ImpesTPFAAD) ComputeResidualNorms() (norms []float64) {
	norms = make([]float64, len(o.phaseNorms))
	copy(norms, o.phaseNorms)
	return
}

func (o *ImpesTPFAAD) GetConvergence(dt float64, iteration int) bool {
	res := o.cellResidual.Value().MaxAbs()
	if res < o.ATol {
		return true
	}
	return o.residual0 > 0 && res < o.RTol*o.residual0
}

// SolveJacobianSystem solves the pressure block of the Jacobian for the
// Newton update. Linear-solver non-convergence is fatal.
func (o *ImpesTPFAAD) SolveJacobianSystem() (dx utils.Vector, err error) {
	dx, err = o.solvePressureSystem()
	return
}

// UpdateState applies the Newton update to the pressure field; bhp is a
// control, not an unknown, so the well state is left alone.
func (o *ImpesTPFAAD) UpdateState(dx utils.Vector, st *state.Reservoir, wst *state.Well) {
	for c := range st.Pressure {
		st.Pressure[c] -= dx.AtVec(c)
	}
}

func (o *ImpesTPFAAD) AfterStep(dt float64, st *state.Reservoir, wst *state.Well) {}

func (o *ImpesTPFAAD) SizeNonLinear() int { return o.grid.NumCells() }

func (o *ImpesTPFAAD) NumPhases() int { return o.fluid.NumPhases() }

func (o *ImpesTPFAAD) TerminalOutputEnabled() bool { return o.Verbose }

func (o *ImpesTPFAAD) LinearIterationsLastSolve() int { return o.linIters }
