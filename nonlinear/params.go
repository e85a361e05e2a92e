package nonlinear

import (
	"fmt"

	"github.com/spf13/viper"
)

type RelaxType int

const (
	Dampen RelaxType = iota
	SOR
)

// ParseRelaxType maps the configuration string to a relaxation kind; an
// unknown string is a configuration error the caller must treat as fatal.
func ParseRelaxType(s string) (RelaxType, error) {
	switch s {
	case "dampen":
		return Dampen, nil
	case "sor":
		return SOR, nil
	}
	return Dampen, fmt.Errorf("unknown relaxation type %q", s)
}

// SolverParameters configure one Newton solver instance; immutable per run.
// RelaxMax acts as the lower clamp on the relaxation factor once
// decrementing begins; the name follows the conventional parameter name.
type SolverParameters struct {
	RelaxType      RelaxType
	RelaxMax       float64
	RelaxIncrement float64
	RelaxRelTol    float64
	MaxIter        int
	MinIter        int
}

func DefaultSolverParameters() SolverParameters {
	return SolverParameters{
		RelaxType:      Dampen,
		RelaxMax:       0.5,
		RelaxIncrement: 0.1,
		RelaxRelTol:    0.2,
		MaxIter:        15,
		MinIter:        1,
	}
}

// SolverParametersFromViper overlays configured values onto the defaults.
func SolverParametersFromViper(v *viper.Viper) (SolverParameters, error) {
	return DefaultSolverParameters().OverlayViper(v)
}

// OverlayViper applies configured values on top of the receiver, so a
// config file can tune solver settings coming from any base.
func (base SolverParameters) OverlayViper(v *viper.Viper) (p SolverParameters, err error) {
	p = base
	if v.IsSet("relax_max") {
		p.RelaxMax = v.GetFloat64("relax_max")
	}
	if v.IsSet("relax_increment") {
		p.RelaxIncrement = v.GetFloat64("relax_increment")
	}
	if v.IsSet("relax_rel_tol") {
		p.RelaxRelTol = v.GetFloat64("relax_rel_tol")
	}
	if v.IsSet("max_iter") {
		p.MaxIter = v.GetInt("max_iter")
	}
	if v.IsSet("min_iter") {
		p.MinIter = v.GetInt("min_iter")
	}
	if v.IsSet("relax_type") {
		if p.RelaxType, err = ParseRelaxType(v.GetString("relax_type")); err != nil {
			return
		}
	}
	return
}
