package grid

import (
	"github.com/porousmedia/resim/utils"
)

// HelperOps holds the sparse operators derived from grid topology: the
// gradient across each internal face and the cell-wise divergence of face
// quantities. Div is the transpose pattern of Ngrad, so that
// div(T*ngrad(p)) yields the TPFA pressure stencil.
type HelperOps struct {
	NumFaces int
	C1, C2   utils.Index
	Ngrad    utils.CSR // nf x nc: (ngrad p)_f = p_c1 - p_c2
	Div      utils.CSR // nc x nf: (div q)_c = sum of oriented face values
}

func NewHelperOps(g *CartGrid) (ops *HelperOps) {
	var (
		c1, c2 = g.InternalFaces()
		nf     = len(c1)
		nc     = g.NumCells()
		ngrad  = utils.NewDOK(nf, nc)
		div    = utils.NewDOK(nc, nf)
	)
	for f := 0; f < nf; f++ {
		ngrad.Set(f, c1[f], 1)
		ngrad.Set(f, c2[f], -1)
		div.Set(c1[f], f, 1)
		div.Set(c2[f], f, -1)
	}
	ops = &HelperOps{
		NumFaces: nf,
		C1:       c1,
		C2:       c2,
		Ngrad:    ngrad.ToCSR(),
		Div:      div.ToCSR(),
	}
	return
}
