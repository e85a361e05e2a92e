// Package input parses the YAML simulation deck and materializes the
// grid, fluid, wells and solver settings it describes.
package input

import (
	"fmt"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/porousmedia/resim/fluid"
	"github.com/porousmedia/resim/grid"
	"github.com/porousmedia/resim/linsolve"
	"github.com/porousmedia/resim/nonlinear"
)

// WellSpec describes one single-completion well in the deck.
type WellSpec struct {
	Name string  `yaml:"Name"`
	Cell int     `yaml:"Cell"`
	WI   float64 `yaml:"WI"`
	BHP  float64 `yaml:"BHP"`
}

// FluidSpec selects and parameterizes the fluid model. Per-phase slices
// must all have the same length; that length is the phase count.
type FluidSpec struct {
	Model    string    `yaml:"Model"` // "constant" or "compressible"
	B        []float64 `yaml:"B"`
	Mu       []float64 `yaml:"Mu"`
	PRef     []float64 `yaml:"PRef"`
	Compr    []float64 `yaml:"Compr"`
	CoreyExp float64   `yaml:"CoreyExp"`
}

// Parameters obtained from the YAML input deck
type Deck struct {
	Title string `yaml:"Title"`

	Nx   int     `yaml:"Nx"`
	Ny   int     `yaml:"Ny"`
	Dx   float64 `yaml:"Dx"`
	Dy   float64 `yaml:"Dy"`
	Dz   float64 `yaml:"Dz"`
	Perm float64 `yaml:"Perm"`
	Poro float64 `yaml:"Poro"`

	Fluid FluidSpec `yaml:"Fluid"`

	InitPressure   float64   `yaml:"InitPressure"`
	InitSaturation []float64 `yaml:"InitSaturation"`

	Wells []WellSpec `yaml:"Wells"`

	Dt       float64 `yaml:"Dt"`
	NumSteps int     `yaml:"NumSteps"`

	LinearSolver string `yaml:"LinearSolver"` // "bicgstab" or "dense"

	Relaxation     string  `yaml:"Relaxation"`
	RelaxMax       float64 `yaml:"RelaxMax"`
	RelaxIncrement float64 `yaml:"RelaxIncrement"`
	RelaxRelTol    float64 `yaml:"RelaxRelTol"`
	MaxIter        int     `yaml:"MaxIterations"`
	MinIter        int     `yaml:"MinIterations"`
}

// DefaultDeck carries the defaults a deck may override; zero-valued
// solver fields keep the nonlinear package defaults.
func DefaultDeck() (d *Deck) {
	d = &Deck{
		Title: "resim",
		Nx:    1, Ny: 1,
		Dx: 1, Dy: 1, Dz: 1,
		Perm: 1, Poro: 0.2,
		Fluid: FluidSpec{
			Model: "constant",
			B:     []float64{1},
			Mu:    []float64{1},
		},
		InitPressure: 1,
		Dt:           1,
		NumSteps:     1,
		LinearSolver: "bicgstab",
	}
	return
}

func (d *Deck) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, d); err != nil {
		return err
	}
	return d.Validate()
}

func (d *Deck) Validate() error {
	if d.Nx < 1 || d.Ny < 1 {
		return fmt.Errorf("grid dimensions must be positive: %d x %d", d.Nx, d.Ny)
	}
	if d.Dx <= 0 || d.Dy <= 0 || d.Dz <= 0 {
		return fmt.Errorf("cell sizes must be positive: %g, %g, %g", d.Dx, d.Dy, d.Dz)
	}
	np := len(d.Fluid.B)
	if np == 0 || len(d.Fluid.Mu) != np {
		return fmt.Errorf("fluid B and Mu must list the same nonzero phase count")
	}
	if d.Fluid.Model == "compressible" &&
		(len(d.Fluid.PRef) != np || len(d.Fluid.Compr) != np) {
		return fmt.Errorf("compressible fluid needs PRef and Compr per phase")
	}
	if len(d.InitSaturation) != 0 && len(d.InitSaturation) != np {
		return fmt.Errorf("initial saturation needs one entry per phase, have %d want %d", len(d.InitSaturation), np)
	}
	nc := d.Nx * d.Ny
	for _, w := range d.Wells {
		if w.Cell < 0 || w.Cell >= nc {
			return fmt.Errorf("well %q perforates cell %d outside the grid", w.Name, w.Cell)
		}
		if w.WI < 0 {
			return fmt.Errorf("well %q has negative well index", w.Name)
		}
	}
	if d.Dt <= 0 || d.NumSteps < 1 {
		return fmt.Errorf("need positive Dt and at least one step")
	}
	switch strings.ToLower(d.LinearSolver) {
	case "bicgstab", "dense":
	default:
		return fmt.Errorf("unknown linear solver: %q", d.LinearSolver)
	}
	if d.Relaxation != "" {
		if _, err := nonlinear.ParseRelaxType(strings.ToLower(d.Relaxation)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deck) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", d.Title)
	fmt.Printf("[%d x %d]\t\t= Grid\n", d.Nx, d.Ny)
	fmt.Printf("%8.5f\t\t= Dt\n", d.Dt)
	fmt.Printf("[%d]\t\t\t= NumSteps\n", d.NumSteps)
	fmt.Printf("[%s]\t\t= Fluid model\n", d.Fluid.Model)
	fmt.Printf("[%s]\t\t= Linear solver\n", d.LinearSolver)
	for _, w := range d.Wells {
		fmt.Printf("Well[%s] = cell %d, WI %g, bhp %g\n", w.Name, w.Cell, w.WI, w.BHP)
	}
}

func (d *Deck) NumPhases() int { return len(d.Fluid.B) }

func (d *Deck) Grid() *grid.CartGrid {
	return grid.NewUniformCartGrid(d.Nx, d.Ny, d.Dx, d.Dy, d.Dz, d.Perm, d.Poro)
}

func (d *Deck) FluidModel() (f fluid.Model, err error) {
	switch strings.ToLower(d.Fluid.Model) {
	case "constant", "":
		f = fluid.NewConstantFluid(d.Fluid.B, d.Fluid.Mu)
	case "compressible":
		exp := d.Fluid.CoreyExp
		if exp == 0 {
			exp = 1
		}
		f = fluid.NewCompressibleFluid(d.Fluid.B, d.Fluid.PRef, d.Fluid.Compr, d.Fluid.Mu, exp)
	default:
		err = fmt.Errorf("unknown fluid model: %q", d.Fluid.Model)
	}
	return
}

// WellModel returns the static well description and the bhp controls in
// deck order, one completion per well.
func (d *Deck) WellModel() (w *grid.Wells, bhp []float64) {
	comps := make([][]grid.Completion, len(d.Wells))
	bhp = make([]float64, len(d.Wells))
	for i, ws := range d.Wells {
		comps[i] = []grid.Completion{{Cell: ws.Cell, WI: ws.WI}}
		bhp[i] = ws.BHP
	}
	w = grid.NewWells(comps...)
	return
}

func (d *Deck) LinSolver() linsolve.Solver {
	if strings.ToLower(d.LinearSolver) == "dense" {
		return linsolve.Dense{}
	}
	return &linsolve.BiCGStab{}
}

// SolverParameters starts from the package defaults and applies only the
// deck fields that were set.
func (d *Deck) SolverParameters() (sp nonlinear.SolverParameters) {
	sp = nonlinear.DefaultSolverParameters()
	if d.Relaxation != "" {
		sp.RelaxType, _ = nonlinear.ParseRelaxType(strings.ToLower(d.Relaxation))
	}
	if d.RelaxMax != 0 {
		sp.RelaxMax = d.RelaxMax
	}
	if d.RelaxIncrement != 0 {
		sp.RelaxIncrement = d.RelaxIncrement
	}
	if d.RelaxRelTol != 0 {
		sp.RelaxRelTol = d.RelaxRelTol
	}
	if d.MaxIter != 0 {
		sp.MaxIter = d.MaxIter
	}
	if d.MinIter != 0 {
		sp.MinIter = d.MinIter
	}
	return
}
