package autodiff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/porousmedia/resim/utils"
)

func TestVariablesAndConstant(t *testing.T) {
	vars := Variables([]utils.Vector{
		utils.NewVector(3, []float64{1, 2, 3}),
		utils.NewVector(2, []float64{10, 20}),
	})
	p, bhp := vars[0], vars[1]
	assert.Equal(t, utils.Index{3, 2}, p.BlockPattern())
	assert.Equal(t, utils.Index{3, 2}, bhp.BlockPattern())
	// dp/dp = I, dp/dbhp = 0
	assert.Equal(t, 1., p.Deriv(0).At(1, 1))
	assert.Equal(t, 0., p.Deriv(0).At(1, 0))
	assert.Equal(t, 0, p.Deriv(1).NNZ())
	assert.Equal(t, 0, bhp.Deriv(0).NNZ())
	assert.Equal(t, 1., bhp.Deriv(1).At(0, 0))

	c := Constant(utils.NewVector(3, []float64{5, 5, 5}), p.BlockPattern())
	assert.Equal(t, 0, c.Deriv(0).NNZ())
	assert.Equal(t, 0, c.Deriv(1).NNZ())
}

func TestProductRule(t *testing.T) {
	vars := Variables([]utils.Vector{utils.NewVector(2, []float64{3, 4})})
	x := vars[0]
	// d(x*x)/dx = 2x
	sq := x.ElMul(x)
	assert.Equal(t, []float64{9, 16}, sq.Value().Data())
	assert.InDelta(t, 6., sq.Deriv(0).At(0, 0), 1.e-14)
	assert.InDelta(t, 8., sq.Deriv(0).At(1, 1), 1.e-14)
	assert.Equal(t, 0., sq.Deriv(0).At(0, 1))
}

func TestQuotientRule(t *testing.T) {
	vars := Variables([]utils.Vector{utils.NewVector(2, []float64{2, 4})})
	x := vars[0]
	one := Constant(utils.NewVectorConstant(2, 1), x.BlockPattern())
	// d(1/x)/dx = -1/x^2
	inv := one.ElDiv(x)
	assert.InDelta(t, 0.5, inv.Value().AtVec(0), 1.e-14)
	assert.InDelta(t, 0.25, inv.Value().AtVec(1), 1.e-14)
	assert.InDelta(t, -0.25, inv.Deriv(0).At(0, 0), 1.e-14)
	assert.InDelta(t, -1./16., inv.Deriv(0).At(1, 1), 1.e-14)
}

func TestMatVecChain(t *testing.T) {
	vars := Variables([]utils.Vector{utils.NewVector(3, []float64{1, 2, 4})})
	x := vars[0]
	// Two-point difference operator
	d := utils.NewDOK(2, 3)
	d.Set(0, 0, 1)
	d.Set(0, 1, -1)
	d.Set(1, 1, 1)
	d.Set(1, 2, -1)
	G := d.ToCSR()
	g := MatVec(G, x)
	assert.Equal(t, []float64{-1, -2}, g.Value().Data())
	assert.Equal(t, 1., g.Deriv(0).At(0, 0))
	assert.Equal(t, -1., g.Deriv(0).At(0, 1))
	// Chain through a product: d(g*g) = 2 diag(g) G
	gg := g.ElMul(g)
	assert.InDelta(t, -2., gg.Deriv(0).At(0, 0), 1.e-14)
	assert.InDelta(t, 2., gg.Deriv(0).At(0, 1), 1.e-14)
}

func TestSubset(t *testing.T) {
	vars := Variables([]utils.Vector{utils.NewVector(3, []float64{1, 2, 3})})
	x := vars[0]
	s := x.Subset(utils.Index{2, 2, 0})
	assert.Equal(t, []float64{3, 3, 1}, s.Value().Data())
	assert.Equal(t, 1., s.Deriv(0).At(0, 2))
	assert.Equal(t, 1., s.Deriv(0).At(1, 2))
	assert.Equal(t, 1., s.Deriv(0).At(2, 0))
}

func TestPatternMismatchPanics(t *testing.T) {
	a := Constant(utils.NewVectorConstant(3, 1), utils.Index{3})
	b := Constant(utils.NewVectorConstant(3, 1), utils.Index{3, 2})
	assert.Panics(t, func() { a.Add(b) })
	c := Constant(utils.NewVectorConstant(3, 1), utils.Index{4})
	assert.Panics(t, func() { a.ElMul(c) })
}
