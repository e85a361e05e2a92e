// Package state holds the mutable simulation state owned by the caller
// across timesteps. The solver core mutates it in place only at the end of
// an accepted step.
package state

type Reservoir struct {
	NumCells  int
	NumPhases int
	// Pressure has one entry per cell; Saturation and SurfaceVol are
	// cell-major with NumPhases entries per cell.
	Pressure   []float64
	Saturation []float64
	SurfaceVol []float64
}

func NewReservoir(nc, np int) (s *Reservoir) {
	s = &Reservoir{
		NumCells:   nc,
		NumPhases:  np,
		Pressure:   make([]float64, nc),
		Saturation: make([]float64, nc*np),
		SurfaceVol: make([]float64, nc*np),
	}
	return
}

type Well struct {
	// BHP has one bottom-hole pressure per well.
	BHP []float64
}

func NewWell(nw int) (s *Well) {
	s = &Well{
		BHP: make([]float64, nw),
	}
	return
}
