package grid

import (
	"fmt"

	"github.com/porousmedia/resim/utils"
)

// Completion is a single well perforation: the perforated cell and the
// well (productivity) index coupling well and cell pressure.
type Completion struct {
	Cell int
	WI   float64
}

// Wells is the well-connection table. Perforations of well w are entries
// ConnPos[w] through ConnPos[w+1]-1 of Cells and WI. Zero wells is a
// valid, fully degenerate table.
type Wells struct {
	NumWells int
	ConnPos  utils.Index // length NumWells+1
	Cells    utils.Index // perforation cell indices
	WI       []float64   // perforation well indices
}

// NewWells builds the table from one completion list per well.
func NewWells(wells ...[]Completion) (w *Wells) {
	w = &Wells{
		NumWells: len(wells),
		ConnPos:  make(utils.Index, 1, len(wells)+1),
	}
	for _, comps := range wells {
		if len(comps) == 0 {
			err := fmt.Errorf("well with no perforations\n")
			panic(err)
		}
		for _, c := range comps {
			w.Cells = append(w.Cells, c.Cell)
			w.WI = append(w.WI, c.WI)
		}
		w.ConnPos = append(w.ConnPos, len(w.Cells))
	}
	return
}

func (w *Wells) NumPerforations() int { return len(w.Cells) }

// PerfRange returns the perforation index range of well i.
func (w *Wells) PerfRange(i int) (lo, hi int) {
	return w.ConnPos[i], w.ConnPos[i+1]
}
