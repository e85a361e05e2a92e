// Package nonlinear drives a physical model through one implicit timestep
// with Newton iteration, stabilizing the updates with damping or
// successive over-relaxation when the residual history oscillates.
package nonlinear

import (
	"fmt"
	"math"
	"os"

	"github.com/porousmedia/resim/state"
	"github.com/porousmedia/resim/utils"
)

// PhysicalModel is the capability the Newton solver is generic over: the
// model owns assembly, convergence measurement, the linear solve, and any
// model-specific chopping of the update.
type PhysicalModel interface {
	PrepareStep(dt float64, st *state.Reservoir, wst *state.Well)
	Assemble(st *state.Reservoir, wst *state.Well, initial bool) error
	GetConvergence(dt float64, iteration int) bool
	ComputeResidualNorms() []float64
	SolveJacobianSystem() (utils.Vector, error)
	UpdateState(dx utils.Vector, st *state.Reservoir, wst *state.Well)
	AfterStep(dt float64, st *state.Reservoir, wst *state.Well)
	SizeNonLinear() int
	NumPhases() int
	TerminalOutputEnabled() bool
	LinearIterationsLastSolve() int
}

// StepReport is the structured outcome of one timestep attempt. A
// non-converged step is an expected outcome of stiff physics: the caller
// restarts with an adjusted timestep rather than treating it as an error.
type StepReport struct {
	Converged        bool
	NewtonIterations int
	LinearIterations int
}

type NewtonSolver struct {
	param SolverParameters
	model PhysicalModel

	newtonIterations     int
	linearIterations     int
	newtonIterationsLast int
	linearIterationsLast int
}

func NewNewtonSolver(param SolverParameters, model PhysicalModel) (s *NewtonSolver) {
	s = &NewtonSolver{
		param: param,
		model: model,
	}
	return
}

// Cumulative counters across successful steps of this solver instance.
func (s *NewtonSolver) NewtonIterations() int     { return s.newtonIterations }
func (s *NewtonSolver) LinearIterations() int     { return s.linearIterations }
func (s *NewtonSolver) NewtonIterationsLast() int { return s.newtonIterationsLast }
func (s *NewtonSolver) LinearIterationsLast() int { return s.linearIterationsLast }

// Step advances the model by one timestep of length dt. The returned
// error is reserved for fatal conditions (assembly or linear-solver
// failure); running out of iterations is reported through StepReport
// with the cumulative counters left untouched.
func (s *NewtonSolver) Step(dt float64, st *state.Reservoir, wst *state.Well) (rep StepReport, err error) {
	s.model.PrepareStep(dt, st, wst)

	// one per-phase residual-norm snapshot per iteration, including
	// iteration 0; consumed only by the oscillation detector
	var history [][]float64

	if err = s.model.Assemble(st, wst, true); err != nil {
		return
	}
	history = append(history, s.model.ComputeResidualNorms())

	var (
		omega            = 1.0
		iteration        = 0
		converged        = s.model.GetConvergence(dt, iteration)
		dxOld            = utils.NewVector(s.model.SizeNonLinear())
		linearIterations = 0
	)

	for (!converged && iteration < s.param.MaxIter) || s.param.MinIter > iteration {
		var dx utils.Vector
		if dx, err = s.model.SolveJacobianSystem(); err != nil {
			return
		}
		linearIterations += s.model.LinearIterationsLastSolve()

		oscillate, _ := detectOscillations(history, iteration, s.model.NumPhases(), s.param.RelaxRelTol)
		if oscillate {
			omega -= s.param.RelaxIncrement
			omega = math.Max(omega, s.param.RelaxMax)
			if s.model.TerminalOutputEnabled() {
				fmt.Printf(" Oscillating behavior detected: Relaxation set to %g\n", omega)
			}
		}
		dx, dxOld = stabilizeNewton(dx, dxOld, omega, s.param.RelaxType)

		// the model may chop or limit the update
		s.model.UpdateState(dx, st, wst)

		if err = s.model.Assemble(st, wst, false); err != nil {
			return
		}
		history = append(history, s.model.ComputeResidualNorms())

		iteration++
		converged = s.model.GetConvergence(dt, iteration)
	}

	rep = StepReport{
		Converged:        converged,
		NewtonIterations: iteration,
		LinearIterations: linearIterations,
	}
	if !converged {
		if s.model.TerminalOutputEnabled() {
			fmt.Fprintf(os.Stderr, "WARNING: Failed to compute converged solution in %d iterations.\n", iteration)
		}
		return
	}

	s.newtonIterations += iteration
	s.linearIterations += linearIterations
	s.newtonIterationsLast = iteration
	s.linearIterationsLast = linearIterations

	s.model.AfterStep(dt, st, wst)
	return
}

// detectOscillations inspects the three most recent residual-norm
// snapshots. A phase oscillates when its relative distance to the
// second-to-last iterate is inside the tolerance while the distance to the
// last iterate is outside it; the process oscillates when more than one
// phase does. Stagnation holds unless some phase shows a relative change
// above a fixed floor.
func detectOscillations(history [][]float64, it, numPhases int, relaxRelTol float64) (oscillate, stagnate bool) {
	if it < 2 {
		return false, false
	}
	var (
		F0 = history[it]
		F1 = history[it-1]
		F2 = history[it-2]
	)
	stagnate = true
	oscillatePhase := 0
	for p := 0; p < numPhases; p++ {
		d1 := math.Abs((F0[p] - F2[p]) / F0[p])
		d2 := math.Abs((F0[p] - F1[p]) / F0[p])
		if d1 < relaxRelTol && relaxRelTol < d2 {
			oscillatePhase++
		}
		stagnate = stagnate && !(math.Abs((F1[p]-F2[p])/F2[p]) > 1.0e-3)
	}
	oscillate = oscillatePhase > 1
	return
}

// stabilizeNewton relaxes the update dx given omega; dxOld always becomes
// the unstabilized dx regardless of omega. With omega == 1 both kinds
// leave dx untouched.
func stabilizeNewton(dx, dxOld utils.Vector, omega float64, relax RelaxType) (dxNew, dxOldNew utils.Vector) {
	dxOldNew = dx
	switch relax {
	case Dampen:
		if omega == 1. {
			dxNew = dx
			return
		}
		dxNew = dx.Scale(omega)
		return
	case SOR:
		if omega == 1. {
			dxNew = dx
			return
		}
		dxNew = dx.Scale(omega).Add(dxOld.Scale(1 - omega))
		return
	}
	err := fmt.Errorf("can only handle DAMPEN and SOR relaxation type, got %v\n", relax)
	panic(err)
}
