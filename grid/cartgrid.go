// Package grid supplies the TPFA discretization inputs: a cartesian grid
// with rock properties, the sparse gradient/divergence operators over its
// internal faces, and the well-connection table.
package grid

import (
	"fmt"

	"github.com/porousmedia/resim/utils"
)

type CartGrid struct {
	Nx, Ny     int
	Dx, Dy, Dz float64
	Perm       utils.Vector // cell permeability, isotropic
	Poro       utils.Vector // cell porosity
	c1, c2     utils.Index  // internal faces: first/second cell per face
}

// NewCartGrid builds an nx x ny grid of dx x dy x dz cells with per-cell
// permeability and porosity. perm and poro must have nx*ny entries.
func NewCartGrid(nx, ny int, dx, dy, dz float64, perm, poro []float64) (g *CartGrid) {
	var (
		nc = nx * ny
	)
	if len(perm) != nc || len(poro) != nc {
		err := fmt.Errorf("rock property length mismatch: nc = %v, len(perm) = %v, len(poro) = %v\n", nc, len(perm), len(poro))
		panic(err)
	}
	g = &CartGrid{
		Nx: nx, Ny: ny,
		Dx: dx, Dy: dy, Dz: dz,
		Perm: utils.NewVector(nc, perm),
		Poro: utils.NewVector(nc, poro),
	}
	g.buildFaces()
	return
}

// NewUniformCartGrid is NewCartGrid with homogeneous rock.
func NewUniformCartGrid(nx, ny int, dx, dy, dz, perm, poro float64) (g *CartGrid) {
	var (
		nc = nx * ny
	)
	return NewCartGrid(nx, ny, dx, dy, dz,
		utils.NewVectorConstant(nc, perm).Data(),
		utils.NewVectorConstant(nc, poro).Data())
}

func (g *CartGrid) NumCells() int { return g.Nx * g.Ny }

// InternalFaces enumerates faces between neighbouring cells; face f joins
// cells c1[f] and c2[f] and is oriented from c1 to c2.
func (g *CartGrid) InternalFaces() (c1, c2 utils.Index) { return g.c1, g.c2 }

func (g *CartGrid) NumFaces() int { return len(g.c1) }

func (g *CartGrid) buildFaces() {
	// x-direction faces first, then y-direction, row-major cell numbering
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx-1; i++ {
			c := i + j*g.Nx
			g.c1 = append(g.c1, c)
			g.c2 = append(g.c2, c+1)
		}
	}
	for j := 0; j < g.Ny-1; j++ {
		for i := 0; i < g.Nx; i++ {
			c := i + j*g.Nx
			g.c1 = append(g.c1, c)
			g.c2 = append(g.c2, c+g.Nx)
		}
	}
}

// PoreVolume is cell bulk volume times porosity.
func (g *CartGrid) PoreVolume() (pv utils.Vector) {
	pv = g.Poro.Scale(g.Dx * g.Dy * g.Dz)
	return
}

// Transmissibility returns the TPFA face transmissibility as the harmonic
// combination of the two half transmissibilities k*A/(d/2).
func (g *CartGrid) Transmissibility() (trans utils.Vector) {
	var (
		nf    = g.NumFaces()
		areaX = g.Dy * g.Dz
		areaY = g.Dx * g.Dz
		perm  = g.Perm.Data()
	)
	trans = utils.NewVector(nf)
	for f := 0; f < nf; f++ {
		var (
			area = areaX
			d    = g.Dx
		)
		if g.c2[f] == g.c1[f]+g.Nx { // y-direction face
			area = areaY
			d = g.Dy
		}
		t1 := perm[g.c1[f]] * area / (0.5 * d)
		t2 := perm[g.c2[f]] * area / (0.5 * d)
		trans.SetVec(f, t1*t2/(t1+t2))
	}
	return
}
