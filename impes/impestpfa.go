package impes

import (
	"fmt"

	"github.com/porousmedia/resim/autodiff"
	"github.com/porousmedia/resim/fluid"
	"github.com/porousmedia/resim/grid"
	"github.com/porousmedia/resim/linsolve"
	"github.com/porousmedia/resim/state"
	"github.com/porousmedia/resim/utils"
)

// ImpesTPFAAD builds one linearized pressure system per call and applies
// its solution to the pressure field. The residual is the IMPES collapse
// of the per-phase mass balances into a single equation per cell, with
// the Jacobian obtained by forward-mode AD over the {cell pressure, well
// bhp} variable groups.
type ImpesTPFAAD struct {
	grid      *grid.CartGrid
	fluid     fluid.Model
	wells     *grid.Wells
	linsolver linsolve.Solver
	pdep      *PressureDependentFluidData
	ops       *grid.HelperOps

	// PerfGravityDP is the gravity pressure adjustment per perforation
	// added to the well-side perforation pressure. Nil means zero, the
	// only supported physics so far; the hook exists so gravity can be
	// supplied without touching the assembly.
	PerfGravityDP []float64

	// convergence controls for the Newton adapter
	ATol, RTol float64
	Verbose    bool

	cellResidual autodiff.Block
	phaseNorms   []float64
	residual0    float64
	dt           float64
	linIters     int
}

func NewImpesTPFAAD(g *grid.CartGrid, f fluid.Model, w *grid.Wells, ls linsolve.Solver) (o *ImpesTPFAAD) {
	o = &ImpesTPFAAD{
		grid:      g,
		fluid:     f,
		wells:     w,
		linsolver: ls,
		pdep:      NewPressureDependentFluidData(g.NumCells(), f),
		ops:       grid.NewHelperOps(g),
		ATol:      1.e-8,
		RTol:      1.e-6,
	}
	return
}

// Solve performs one IMPES pressure update: recompute saturation
// quantities, assemble, solve the pressure block of the Jacobian and
// apply p -= dp in place. A failing linear solve is fatal for the step
// and leaves the state untouched.
func (o *ImpesTPFAAD) Solve(dt float64, st *state.Reservoir, wst *state.Well) (err error) {
	o.pdep.ComputeSatQuant(st)
	o.assemble(dt, st, wst)
	dp, err := o.solvePressureSystem()
	if err != nil {
		return
	}
	for c := range st.Pressure {
		st.Pressure[c] -= dp.AtVec(c)
	}
	return
}

func (o *ImpesTPFAAD) solvePressureSystem() (dp utils.Vector, err error) {
	var (
		nc                  = o.grid.NumCells()
		matr                = o.cellResidual.Deriv(0)
		rowPtr, colIdx, vals = matr.Raw()
		rhs                 = make([]float64, nc)
	)
	copy(rhs, o.cellResidual.Value().Data())
	x, rep := o.linsolver.Solve(nc, matr.NNZ(), rowPtr, colIdx, vals, rhs)
	if !rep.Converged {
		err = fmt.Errorf("pressure solve: linear solver convergence failure after %d iterations, residual %g", rep.Iterations, rep.Residual)
		return
	}
	o.linIters = rep.Iterations
	dp = utils.NewVector(nc, x)
	return
}

// assemble builds the cell residual and its Jacobian from the current
// state. Follows the IMPES accumulation order: the residual starts at
// pore volume and subtracts cell_B times each phase's contribution.
func (o *ImpesTPFAAD) assemble(dt float64, st *state.Reservoir, wst *state.Well) {
	var (
		pv     = o.grid.PoreVolume()
		nc     = o.grid.NumCells()
		np     = o.fluid.NumPhases()
		nw     = o.wells.NumWells
		nperf  = o.wells.NumPerforations()
		transi = o.grid.Transmissibility()
	)
	o.pdep.ComputePressQuant(st)

	z0data := make([]float64, nc*np)
	copy(z0data, st.SurfaceVol)
	z0all := utils.NewMatrix(nc, np, z0data)
	deltaT := utils.NewVectorConstant(nc, dt)

	// Primary AD variables: cell pressures and well bhp.
	p0data := make([]float64, nc)
	copy(p0data, st.Pressure)
	bhp0data := make([]float64, nw)
	copy(bhp0data, wst.BHP)
	vars := autodiff.Variables([]utils.Vector{
		utils.NewVector(nc, p0data),
		utils.NewVector(nw, bhp0data),
	})
	var (
		p    = vars[0]
		bhp  = vars[1]
		bpat = p.BlockPattern()
	)

	// T_ij * (p_i - p_j) per internal face; its sign picks the upstream cell.
	nkgradp := autodiff.MatVec(o.ops.Ngrad, p).ScaleVec(transi)
	upwind := NewUpwindSelector(o.ops, nkgradp.Value())

	// Perforation pressures on the cell side and the well side. The well
	// side maps bhp through the 0/1 well-to-perforation incidence plus
	// the (zero unless hooked) gravity adjustment.
	wellCells := o.wells.Cells
	pPerfCell := p.Subset(wellCells)
	w2p := utils.NewDOK(nperf, nw)
	for w := 0; w < nw; w++ {
		lo, hi := o.wells.PerfRange(w)
		for perf := lo; perf < hi; perf++ {
			w2p.Set(perf, w, 1)
		}
	}
	wellPerfDP := utils.NewVector(nperf, o.perfGravity(nperf))
	pPerfWell := autodiff.MatVec(w2p.ToCSR(), bhp).AddVec(wellPerfDP)

	// Perforation inflow scatters into the perforated cells.
	perfToCell := utils.NewDOK(nc, nperf)
	for perf, c := range wellCells {
		perfToCell.Set(c, perf, 1)
	}
	scatter := perfToCell.ToCSR()
	wi := utils.NewVector(nperf, append([]float64{}, o.wells.WI...))
	drawdown := pPerfWell.Sub(pPerfCell)

	o.phaseNorms = make([]float64, np)
	cellResidual := autodiff.Constant(pv, bpat)
	for phase := 0; phase < np; phase++ {
		cellB := o.pdep.FVF(phase, p)

		kr := o.pdep.PhaseRelPerm(phase)
		mu := o.pdep.PhaseViscosity(phase, p)
		mob := autodiff.Constant(kr, bpat).ElDiv(mu)
		mf := upwind.SelectBlock(mob)
		flux := mf.ElMul(nkgradp)

		faceB := upwind.SelectBlock(cellB)

		// Well inflow WI * mob * (p_well - p_cell) at each perforation,
		// with the perforated cell's mobility on both flow directions.
		q := autodiff.MatVec(scatter, mob.Subset(wellCells).ElMul(drawdown).ScaleVec(wi))

		z0 := z0all.Col(phase)
		rate := q.Sub(autodiff.MatVec(o.ops.Div, flux.ElDiv(faceB))).ScaleVec(deltaT)
		contrib := autodiff.Constant(pv.ElMul(z0), bpat).Add(rate)
		// per-phase norm tracks the mass-balance rate part, which is the
		// piece driven to zero by the pressure update
		o.phaseNorms[phase] = cellB.ElMul(rate).Value().MaxAbs()
		cellResidual = cellResidual.Sub(cellB.ElMul(contrib))
	}
	o.cellResidual = cellResidual
	o.dt = dt
}

func (o *ImpesTPFAAD) perfGravity(nperf int) (dp []float64) {
	dp = make([]float64, nperf)
	if o.PerfGravityDP != nil {
		if len(o.PerfGravityDP) != nperf {
			err := fmt.Errorf("gravity adjustment length mismatch: want %v, have %v\n", nperf, len(o.PerfGravityDP))
			panic(err)
		}
		copy(dp, o.PerfGravityDP)
	}
	return
}

// CellResidual exposes the assembled residual for inspection.
func (o *ImpesTPFAAD) CellResidual() autodiff.Block { return o.cellResidual }
