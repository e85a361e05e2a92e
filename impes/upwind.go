package impes

import (
	"github.com/porousmedia/resim/autodiff"
	"github.com/porousmedia/resim/grid"
	"github.com/porousmedia/resim/utils"
)

// UpwindSelector picks the upstream cell per internal face from the sign
// of the face flux. Decisions use only the numeric flux value, never its
// derivatives: flow direction is treated as locally exact.
type UpwindSelector struct {
	cells utils.Index // upstream cell per face
}

func NewUpwindSelector(ops *grid.HelperOps, flux utils.Vector) (u *UpwindSelector) {
	u = &UpwindSelector{
		cells: make(utils.Index, ops.NumFaces),
	}
	for f := 0; f < ops.NumFaces; f++ {
		// positive flux flows from C1 to C2
		if flux.AtVec(f) >= 0 {
			u.cells[f] = ops.C1[f]
		} else {
			u.cells[f] = ops.C2[f]
		}
	}
	return
}

// Select maps a per-cell quantity to faces, taking the upstream value.
func (u *UpwindSelector) Select(v utils.Vector) utils.Vector {
	return v.Subset(u.cells)
}

// SelectBlock is Select for AD quantities; Jacobian rows follow the cells.
func (u *UpwindSelector) SelectBlock(b autodiff.Block) autodiff.Block {
	return b.Subset(u.cells)
}
