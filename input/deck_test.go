package input

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/porousmedia/resim/linsolve"
	"github.com/porousmedia/resim/nonlinear"
)

var deckYAML = `
Title: quarter five spot
Nx: 10
Ny: 10
Dx: 10
Dy: 10
Dz: 2
Perm: 100
Poro: 0.25
Fluid:
  Model: compressible
  B: [1.1]
  Mu: [0.7]
  PRef: [200]
  Compr: [1.e-4]
  CoreyExp: 2
InitPressure: 200
Wells:
  - Name: INJ
    Cell: 0
    WI: 1.5
    BHP: 250
  - Name: PROD
    Cell: 99
    WI: 1.5
    BHP: 150
Dt: 5
NumSteps: 20
LinearSolver: dense
Relaxation: sor
RelaxMax: 0.4
MaxIterations: 25
`

func TestDeckParse(t *testing.T) {
	d := DefaultDeck()
	assert.NoError(t, d.Parse([]byte(deckYAML)))
	assert.Equal(t, "quarter five spot", d.Title)
	assert.Equal(t, 10, d.Nx)
	assert.Equal(t, 1, d.NumPhases())
	assert.Len(t, d.Wells, 2)
	assert.Equal(t, 99, d.Wells[1].Cell)
	assert.Equal(t, 150., d.Wells[1].BHP)

	{ // materialized grid
		g := d.Grid()
		assert.Equal(t, 100, g.NumCells())
		assert.InDelta(t, 0.25*10*10*2, g.PoreVolume().AtVec(0), 1.e-12)
	}
	{ // fluid and wells
		f, err := d.FluidModel()
		assert.NoError(t, err)
		assert.Equal(t, 1, f.NumPhases())
		w, bhp := d.WellModel()
		assert.Equal(t, 2, w.NumWells)
		assert.Equal(t, []float64{250, 150}, bhp)
	}
	{ // solver settings: deck overrides on top of defaults
		assert.IsType(t, linsolve.Dense{}, d.LinSolver())
		sp := d.SolverParameters()
		assert.Equal(t, nonlinear.SOR, sp.RelaxType)
		assert.Equal(t, 0.4, sp.RelaxMax)
		assert.Equal(t, 25, sp.MaxIter)
		// untouched fields keep defaults
		assert.Equal(t, 0.1, sp.RelaxIncrement)
		assert.Equal(t, 1, sp.MinIter)
	}
}

func TestDeckDefaults(t *testing.T) {
	d := DefaultDeck()
	assert.NoError(t, d.Validate())
	assert.IsType(t, &linsolve.BiCGStab{}, d.LinSolver())
	assert.Equal(t, nonlinear.DefaultSolverParameters(), d.SolverParameters())
}

func TestDeckValidation(t *testing.T) {
	cases := []struct {
		name string
		edit func(*Deck)
	}{
		{"bad grid", func(d *Deck) { d.Nx = 0 }},
		{"bad cell size", func(d *Deck) { d.Dz = -1 }},
		{"phase mismatch", func(d *Deck) { d.Fluid.Mu = []float64{1, 2} }},
		{"well outside grid", func(d *Deck) {
			d.Wells = []WellSpec{{Name: "W", Cell: 5, WI: 1}}
		}},
		{"negative WI", func(d *Deck) {
			d.Wells = []WellSpec{{Name: "W", Cell: 0, WI: -1}}
		}},
		{"bad dt", func(d *Deck) { d.Dt = 0 }},
		{"unknown linear solver", func(d *Deck) { d.LinearSolver = "amg" }},
		{"unknown relaxation", func(d *Deck) { d.Relaxation = "chaos" }},
		{"compressible missing pref", func(d *Deck) {
			d.Fluid.Model = "compressible"
			d.Fluid.Compr = []float64{1.e-4}
		}},
	}
	for _, tc := range cases {
		d := DefaultDeck()
		tc.edit(d)
		assert.Error(t, d.Validate(), tc.name)
	}
}
