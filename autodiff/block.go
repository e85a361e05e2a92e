// Package autodiff implements forward-mode automatic differentiation on
// vectors of unknowns partitioned into named variable groups. A Block pairs
// a value vector with one sparse Jacobian per group; arithmetic on Blocks
// propagates the Jacobians exactly through the chain rule.
package autodiff

import (
	"fmt"

	"github.com/porousmedia/resim/utils"
)

type Block struct {
	val utils.Vector
	jac []utils.CSR
}

// Variables builds the primary AD variables for the given value vectors.
// Variable i carries an identity Jacobian w.r.t. its own group and zero
// Jacobians w.r.t. every other group.
func Variables(vals []utils.Vector) (R []Block) {
	var (
		n       = len(vals)
		pattern = make(utils.Index, n)
	)
	for i, v := range vals {
		pattern[i] = v.Len()
	}
	R = make([]Block, n)
	for i, v := range vals {
		jac := make([]utils.CSR, n)
		for k := range jac {
			if k == i {
				jac[k] = utils.NewCSREye(v.Len())
			} else {
				jac[k] = utils.NewCSRZeros(v.Len(), pattern[k])
			}
		}
		R[i] = Block{val: v.Copy(), jac: jac}
	}
	return
}

// Constant wraps a plain vector: all Jacobian blocks are zero.
func Constant(v utils.Vector, pattern utils.Index) (R Block) {
	jac := make([]utils.CSR, len(pattern))
	for k, cols := range pattern {
		jac[k] = utils.NewCSRZeros(v.Len(), cols)
	}
	R = Block{val: v.Copy(), jac: jac}
	return
}

// Function builds a Block from an already computed value and Jacobians.
func Function(v utils.Vector, jac []utils.CSR) (R Block) {
	for k, j := range jac {
		nr, _ := j.Dims()
		if nr != v.Len() {
			err := fmt.Errorf("jacobian block %d has %d rows, value has %d\n", k, nr, v.Len())
			panic(err)
		}
	}
	R = Block{val: v, jac: jac}
	return
}

func (a Block) Value() utils.Vector { return a.val }
func (a Block) Size() int           { return a.val.Len() }
func (a Block) NumBlocks() int      { return len(a.jac) }

// Deriv returns the Jacobian w.r.t. variable group k.
func (a Block) Deriv(k int) utils.CSR { return a.jac[k] }

// BlockPattern is the ordered list of variable-group sizes.
func (a Block) BlockPattern() (p utils.Index) {
	p = make(utils.Index, len(a.jac))
	for k, j := range a.jac {
		_, p[k] = j.Dims()
	}
	return
}

// checkPattern guards every binary operator: mismatched operand patterns
// are a programming error, not a recoverable state.
func (a Block) checkPattern(b Block) {
	if a.NumBlocks() != b.NumBlocks() {
		err := fmt.Errorf("block count mismatch: %d != %d\n", a.NumBlocks(), b.NumBlocks())
		panic(err)
	}
	for k := range a.jac {
		_, ca := a.jac[k].Dims()
		_, cb := b.jac[k].Dims()
		if ca != cb {
			err := fmt.Errorf("block pattern mismatch at group %d: %d != %d\n", k, ca, cb)
			panic(err)
		}
	}
	if a.Size() != b.Size() {
		err := fmt.Errorf("value length mismatch: %d != %d\n", a.Size(), b.Size())
		panic(err)
	}
}

func (a Block) Add(b Block) (R Block) {
	a.checkPattern(b)
	jac := make([]utils.CSR, len(a.jac))
	for k := range jac {
		jac[k] = a.jac[k].Add(b.jac[k])
	}
	R = Block{val: a.val.Add(b.val), jac: jac}
	return
}

func (a Block) Sub(b Block) (R Block) {
	a.checkPattern(b)
	jac := make([]utils.CSR, len(a.jac))
	for k := range jac {
		jac[k] = a.jac[k].Add(b.jac[k].Scale(-1))
	}
	R = Block{val: a.val.Subtract(b.val), jac: jac}
	return
}

// ElMul is the elementwise product with the product rule:
// d(a*b) = diag(b) da + diag(a) db.
func (a Block) ElMul(b Block) (R Block) {
	a.checkPattern(b)
	jac := make([]utils.CSR, len(a.jac))
	for k := range jac {
		jac[k] = a.jac[k].ScaleRows(b.val).Add(b.jac[k].ScaleRows(a.val))
	}
	R = Block{val: a.val.ElMul(b.val), jac: jac}
	return
}

// ElDiv is the elementwise quotient with the quotient rule:
// d(a/b) = diag(1/b) da - diag(a/b^2) db.
func (a Block) ElDiv(b Block) (R Block) {
	a.checkPattern(b)
	var (
		binv = b.val.Apply(func(x float64) float64 { return 1. / x })
		q    = a.val.ElMul(binv).ElMul(binv)
	)
	jac := make([]utils.CSR, len(a.jac))
	for k := range jac {
		jac[k] = a.jac[k].ScaleRows(binv).Add(b.jac[k].ScaleRows(q).Scale(-1))
	}
	R = Block{val: a.val.ElMul(binv), jac: jac}
	return
}

// ScaleVec multiplies elementwise by a plain (derivative free) vector.
func (a Block) ScaleVec(v utils.Vector) (R Block) {
	jac := make([]utils.CSR, len(a.jac))
	for k := range jac {
		jac[k] = a.jac[k].ScaleRows(v)
	}
	R = Block{val: a.val.ElMul(v), jac: jac}
	return
}

func (a Block) Scale(f float64) (R Block) {
	jac := make([]utils.CSR, len(a.jac))
	for k := range jac {
		jac[k] = a.jac[k].Scale(f)
	}
	R = Block{val: a.val.Scale(f), jac: jac}
	return
}

// AddVec adds a plain vector; the Jacobians are unchanged.
func (a Block) AddVec(v utils.Vector) (R Block) {
	R = Block{val: a.val.Add(v), jac: a.jac}
	return
}

func (a Block) Neg() (R Block) {
	R = a.Scale(-1)
	return
}

// Subset picks rows I of the value and of every Jacobian block.
func (a Block) Subset(I utils.Index) (R Block) {
	jac := make([]utils.CSR, len(a.jac))
	for k := range jac {
		jac[k] = a.jac[k].SubsetRows(I)
	}
	R = Block{val: a.val.Subset(I), jac: jac}
	return
}

// MatVec applies a constant sparse matrix: value A*b, Jacobians A*Jk.
func MatVec(A utils.CSR, b Block) (R Block) {
	var (
		_, nc = A.Dims()
	)
	if nc != b.Size() {
		err := fmt.Errorf("dimension mismatch in MatVec: cols = %v, block size = %v\n", nc, b.Size())
		panic(err)
	}
	jac := make([]utils.CSR, len(b.jac))
	for k := range jac {
		jac[k] = A.Mul(b.jac[k])
	}
	R = Block{val: A.MulVec(b.val), jac: jac}
	return
}
