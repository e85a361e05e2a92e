package nonlinear

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/porousmedia/resim/state"
	"github.com/porousmedia/resim/utils"
)

// mockModel converges once the iteration counter reaches convergeAt;
// convergeAt < 0 never converges.
type mockModel struct {
	convergeAt int
	size       int
	phases     int
	assembles  int
	updates    int
	solveErr   error
	lastDx     utils.Vector
	afterSteps int
}

func (m *mockModel) PrepareStep(dt float64, st *state.Reservoir, wst *state.Well) {}
func (m *mockModel) Assemble(st *state.Reservoir, wst *state.Well, initial bool) error {
	m.assembles++
	return nil
}
func (m *mockModel) GetConvergence(dt float64, iteration int) bool {
	return m.convergeAt >= 0 && iteration >= m.convergeAt
}
func (m *mockModel) ComputeResidualNorms() []float64 {
	norms := make([]float64, m.phases)
	for p := range norms {
		norms[p] = 1. / float64(m.assembles)
	}
	return norms
}
func (m *mockModel) SolveJacobianSystem() (utils.Vector, error) {
	if m.solveErr != nil {
		return utils.Vector{}, m.solveErr
	}
	return utils.NewVectorConstant(m.size, 1), nil
}
func (m *mockModel) UpdateState(dx utils.Vector, st *state.Reservoir, wst *state.Well) {
	m.updates++
	m.lastDx = dx
}
func (m *mockModel) AfterStep(dt float64, st *state.Reservoir, wst *state.Well) { m.afterSteps++ }
func (m *mockModel) SizeNonLinear() int                                         { return m.size }
func (m *mockModel) NumPhases() int                                             { return m.phases }
func (m *mockModel) TerminalOutputEnabled() bool                                { return false }
func (m *mockModel) LinearIterationsLastSolve() int                             { return 3 }

func newMock(convergeAt int) *mockModel {
	return &mockModel{convergeAt: convergeAt, size: 4, phases: 2}
}

func TestImmediateConvergenceRunsMinIter(t *testing.T) {
	m := newMock(0)
	s := NewNewtonSolver(DefaultSolverParameters(), m)
	rep, err := s.Step(1, state.NewReservoir(4, 2), state.NewWell(0))
	assert.NoError(t, err)
	assert.True(t, rep.Converged)
	// converged at iteration 0, but MinIter forces exactly one iteration
	assert.Equal(t, 1, rep.NewtonIterations)
	assert.Equal(t, 1, m.updates)
	assert.Equal(t, 3, rep.LinearIterations)
	assert.Equal(t, 1, s.NewtonIterations())
	assert.Equal(t, 1, m.afterSteps)
}

func TestNoMinIterSkipsLoop(t *testing.T) {
	m := newMock(0)
	p := DefaultSolverParameters()
	p.MinIter = 0
	s := NewNewtonSolver(p, m)
	rep, err := s.Step(1, state.NewReservoir(4, 2), state.NewWell(0))
	assert.NoError(t, err)
	assert.True(t, rep.Converged)
	assert.Equal(t, 0, rep.NewtonIterations)
	assert.Equal(t, 0, m.updates)
}

func TestMaxIterFailureLeavesCountersUntouched(t *testing.T) {
	m := newMock(-1)
	p := DefaultSolverParameters()
	p.MaxIter = 5
	s := NewNewtonSolver(p, m)
	rep, err := s.Step(1, state.NewReservoir(4, 2), state.NewWell(0))
	assert.NoError(t, err)
	assert.False(t, rep.Converged)
	assert.Equal(t, 5, rep.NewtonIterations)
	assert.Equal(t, 15, rep.LinearIterations)
	// global counters record only successful steps
	assert.Equal(t, 0, s.NewtonIterations())
	assert.Equal(t, 0, s.LinearIterations())
	assert.Equal(t, 0, m.afterSteps)
}

func TestFatalSolveError(t *testing.T) {
	m := newMock(-1)
	m.solveErr = errors.New("linear solver convergence failure")
	s := NewNewtonSolver(DefaultSolverParameters(), m)
	_, err := s.Step(1, state.NewReservoir(4, 2), state.NewWell(0))
	assert.Error(t, err)
	assert.Equal(t, 0, m.updates)
}

func TestDetectOscillations(t *testing.T) {
	const tol = 0.2
	mk := func(f0, f1, f2 float64) [][]float64 {
		// two phases with identical histories, newest last
		return [][]float64{{f2, f2}, {f1, f1}, {f0, f0}}
	}
	// fewer than 3 snapshots: both flags false
	osc, stag := detectOscillations([][]float64{{1, 1}, {1, 1}}, 1, 2, tol)
	assert.False(t, osc)
	assert.False(t, stag)

	// d1 = 0.1 < tol, d2 = 0.5 > tol on both phases: oscillating
	osc, _ = detectOscillations(mk(1, 0.5, 0.9), 2, 2, tol)
	assert.True(t, osc)

	// d1 exactly at tol fails the strict inequality
	osc, _ = detectOscillations(mk(1, 0.5, 0.8), 2, 2, tol)
	assert.False(t, osc)

	// d2 exactly at tol fails the strict inequality
	osc, _ = detectOscillations(mk(1, 0.8, 0.9), 2, 2, tol)
	assert.False(t, osc)

	// a single oscillating phase is not enough
	osc, _ = detectOscillations([][]float64{{0.9, 1}, {0.5, 1}, {1, 1}}, 2, 2, tol)
	assert.False(t, osc)

	// stagnate holds when no phase moves between the two prior iterates
	_, stag = detectOscillations(mk(1, 0.9, 0.9), 2, 2, tol)
	assert.True(t, stag)
	_, stag = detectOscillations(mk(1, 0.9, 0.5), 2, 2, tol)
	assert.False(t, stag)
}

func TestStabilizeNewton(t *testing.T) {
	dx := utils.NewVector(3, []float64{1, 2, 3})
	dxOld := utils.NewVector(3, []float64{10, 20, 30})

	// omega == 1 leaves dx untouched, bit for bit, for both kinds
	out, old := stabilizeNewton(dx, dxOld, 1, Dampen)
	assert.Equal(t, dx.Data(), out.Data())
	assert.Equal(t, dx.Data(), old.Data())
	out, _ = stabilizeNewton(dx, dxOld, 1, SOR)
	assert.Equal(t, dx.Data(), out.Data())

	// dampen scales by omega
	out, old = stabilizeNewton(dx, dxOld, 0.5, Dampen)
	assert.Equal(t, []float64{0.5, 1, 1.5}, out.Data())
	// the stored previous update is the unstabilized dx
	assert.Equal(t, []float64{1, 2, 3}, old.Data())

	// SOR blends with the previous unstabilized update
	out, _ = stabilizeNewton(dx, dxOld, 0.5, SOR)
	assert.Equal(t, []float64{5.5, 11, 16.5}, out.Data())

	assert.Panics(t, func() { stabilizeNewton(dx, dxOld, 0.5, RelaxType(9)) })
}

func TestParseRelaxType(t *testing.T) {
	r, err := ParseRelaxType("dampen")
	assert.NoError(t, err)
	assert.Equal(t, Dampen, r)
	r, err = ParseRelaxType("sor")
	assert.NoError(t, err)
	assert.Equal(t, SOR, r)
	_, err = ParseRelaxType("chord")
	assert.Error(t, err)
}
