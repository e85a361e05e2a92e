/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/notargets/avs/chart2d"
	utils2 "github.com/notargets/avs/utils"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/porousmedia/resim/fluid"
	"github.com/porousmedia/resim/grid"
	"github.com/porousmedia/resim/impes"
	"github.com/porousmedia/resim/input"
	"github.com/porousmedia/resim/nonlinear"
	"github.com/porousmedia/resim/state"
)

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an IMPES pressure simulation from a YAML deck",
	Long: `
Reads the simulation deck, assembles the TPFA pressure system each step
and advances it with the damped Newton driver,

resim run -i deck.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		rp := &RunParams{}
		rp.DeckFile, _ = cmd.Flags().GetString("input")
		rp.Graph, _ = cmd.Flags().GetBool("graph")
		delay, _ := cmd.Flags().GetInt("delay")
		rp.Delay = time.Duration(delay)
		rp.Profile, _ = cmd.Flags().GetBool("profile")
		rp.Verbose, _ = cmd.Flags().GetBool("verbose")
		RunSimulation(rp)
	},
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().StringP("input", "i", "", "YAML simulation deck; built-in defaults when omitted")
	RunCmd.Flags().BoolP("graph", "g", false, "display the pressure profile while computing solution")
	RunCmd.Flags().IntP("delay", "d", 0, "milliseconds of delay for plotting")
	RunCmd.Flags().Bool("profile", false, "write a CPU profile for the run")
}

type RunParams struct {
	DeckFile string
	Graph    bool
	Delay    time.Duration
	Profile  bool
	Verbose  bool
}

func RunSimulation(rp *RunParams) {
	if rp.Profile {
		defer profile.Start().Stop()
	}
	deck := input.DefaultDeck()
	if rp.DeckFile != "" {
		data, err := os.ReadFile(rp.DeckFile)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if err = deck.Parse(data); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}
	deck.Print()
	sim, err := NewSimulation(deck, rp.Verbose)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err = sim.Run(rp.Graph, rp.Delay*time.Millisecond); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Simulation owns the assembled model, the Newton driver and the evolving
// reservoir and well states for one deck.
type Simulation struct {
	Deck   *input.Deck
	Grid   *grid.CartGrid
	Model  *impes.ImpesTPFAAD
	Solver *nonlinear.NewtonSolver
	St     *state.Reservoir
	Wst    *state.Well
}

func NewSimulation(deck *input.Deck, verbose bool) (sim *Simulation, err error) {
	g := deck.Grid()
	f, err := deck.FluidModel()
	if err != nil {
		return
	}
	w, bhp := deck.WellModel()
	model := impes.NewImpesTPFAAD(g, f, w, deck.LinSolver())
	model.Verbose = verbose

	sp := deck.SolverParameters()
	// a config file tunes the Newton settings on top of the deck
	if sp, err = sp.OverlayViper(viper.GetViper()); err != nil {
		return
	}

	wst := state.NewWell(w.NumWells)
	copy(wst.BHP, bhp)
	sim = &Simulation{
		Deck:   deck,
		Grid:   g,
		Model:  model,
		Solver: nonlinear.NewNewtonSolver(sp, model),
		St:     initState(deck, g.NumCells(), f),
		Wst:    wst,
	}
	return
}

// initState builds an equilibrium starting state: the surface volumes are
// chosen so the accumulation term vanishes at the initial pressure.
func initState(deck *input.Deck, nc int, f fluid.Model) (st *state.Reservoir) {
	var (
		np    = f.NumPhases()
		cells = make([]int, nc)
		p     = make([]float64, nc)
	)
	st = state.NewReservoir(nc, np)
	for c := 0; c < nc; c++ {
		cells[c] = c
		p[c] = deck.InitPressure
		st.Pressure[c] = deck.InitPressure
	}
	sat := deck.InitSaturation
	if len(sat) == 0 {
		sat = make([]float64, np)
		for ph := range sat {
			sat[ph] = 1. / float64(np)
		}
	}
	A, _ := f.Matrix(nc, p, st.SurfaceVol, cells)
	for c := 0; c < nc; c++ {
		for ph := 0; ph < np; ph++ {
			b := A[c*np*np+ph*(np+1)]
			st.Saturation[c*np+ph] = sat[ph]
			st.SurfaceVol[c*np+ph] = sat[ph] / b
		}
	}
	return
}

func (sim *Simulation) Run(showGraph bool, graphDelay ...time.Duration) (err error) {
	var (
		deck      = sim.Deck
		chart     *chart2d.Chart2D
		colorMap  *utils2.ColorMap
		chartName string
		x, y      []float64
	)
	if showGraph {
		x, y = sim.pressureProfile()
		pmin, pmax := profileBounds(y, sim.Wst.BHP)
		chart = chart2d.NewChart2D(1024, 768, 0, float32(float64(deck.Nx)*deck.Dx), float32(pmin), float32(pmax))
		colorMap = utils2.NewColorMap(-1, 1, 1)
		chartName = "Pressure"
		go chart.Plot()
	}
	var simTime float64
	for tstep := 0; tstep < deck.NumSteps; tstep++ {
		report, stepErr := sim.Solver.Step(deck.Dt, sim.St, sim.Wst)
		if stepErr != nil {
			err = fmt.Errorf("step %d: %w", tstep, stepErr)
			return
		}
		simTime += deck.Dt
		fmt.Printf("Time = %8.4f, newton[%d] = %d, linear = %d, pmin = %8.4f, pmax = %8.4f\n",
			simTime, tstep, report.NewtonIterations, report.LinearIterations,
			floatsMin(sim.St.Pressure), floatsMax(sim.St.Pressure))
		if showGraph {
			x, y = sim.pressureProfile()
			if err := chart.AddSeries(chartName, x, y,
				chart2d.CrossGlyph, chart2d.Dashed, colorMap.GetRGB(0)); err != nil {
				panic("unable to add graph series")
			}
			if len(graphDelay) != 0 {
				time.Sleep(graphDelay[0])
			}
		}
	}
	return
}

// pressureProfile samples the first grid row, which is the whole domain
// for 1-D decks.
func (sim *Simulation) pressureProfile() (x, y []float64) {
	var (
		deck = sim.Deck
		nx   = deck.Nx
	)
	x = make([]float64, nx)
	y = make([]float64, nx)
	for i := 0; i < nx; i++ {
		x[i] = (float64(i) + 0.5) * deck.Dx
		y[i] = sim.St.Pressure[i]
	}
	return
}

func profileBounds(p, bhp []float64) (lo, hi float64) {
	lo, hi = floatsMin(p), floatsMax(p)
	for _, v := range bhp {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return
}

func floatsMin(v []float64) (min float64) {
	min = v[0]
	for _, val := range v {
		if val < min {
			min = val
		}
	}
	return
}

func floatsMax(v []float64) (max float64) {
	max = v[0]
	for _, val := range v {
		if val > max {
			max = val
		}
	}
	return
}
