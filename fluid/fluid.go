// Package fluid defines the fluid-property capability consumed by the
// pressure assembly, plus simple concrete models. Property evaluations are
// batched over cells; the formation-volume-factor "matrix" A is np x np per
// cell (cells x np^2 row-major) with its pressure derivative alongside.
package fluid

type Model interface {
	NumPhases() int
	// Relperm evaluates relative permeability from saturations s
	// (cell-major, nc*np entries) for the listed cells.
	Relperm(nc int, s []float64, cells []int) (kr []float64)
	// Matrix evaluates the FVF matrix A and its pressure derivative dA,
	// both nc x np^2 row-major.
	Matrix(nc int, p, z []float64, cells []int) (A, dA []float64)
	// Viscosity evaluates mu (nc*np); dmu may be nil when the model does
	// not provide pressure derivatives of viscosity.
	Viscosity(nc int, p, z []float64, cells []int) (mu, dmu []float64)
}
