package miqps

import (
	"gonum.org/v1/gonum/mat"
)

// ProblemWithOptions bundles a problem with the options to solve it, for
// callers passing a single descriptor to FromArgs.
type ProblemWithOptions struct {
	Problem
	Opt Options
}

var argNames = [...]string{"H", "c", "A", "l", "u", "xmin", "xmax", "x0", "vtype", "opt"}

// FromArgs builds a problem from either a single descriptor (Problem,
// *Problem, ProblemWithOptions or *ProblemWithOptions) or the positional
// arguments
//
//	H, c, A, l[, u, xmin, xmax, x0, vtype, opt]
//
// Omitted trailing arguments and nil arguments are absent. Matrices may be
// given as mat.Matrix or [][]float64, vectors as []float64, vtype as string,
// VarType or []VarType and opt as Options or *Options. The problem is not
// normalized.
func FromArgs(args ...interface{}) (*Problem, Options, error) {
	if len(args) == 1 {
		switch v := args[0].(type) {
		case Problem:
			return &v, Options{}, nil
		case *Problem:
			if v != nil {
				p := *v
				return &p, Options{}, nil
			}
		case ProblemWithOptions:
			return &v.Problem, v.Opt, nil
		case *ProblemWithOptions:
			if v != nil {
				p := v.Problem
				return &p, v.Opt, nil
			}
		}
		return nil, Options{}, structuralf("single argument must be a problem descriptor, got %T", args[0])
	}
	if len(args) < 4 || len(args) > len(argNames) {
		return nil, Options{}, structuralf("expected 1 or 4 to %d arguments, got %d", len(argNames), len(args))
	}

	padded := make([]interface{}, len(argNames))
	copy(padded, args)

	var (
		p   Problem
		opt Options
		err error
	)
	if p.H, err = matrixArg(padded, 0); err != nil {
		return nil, opt, err
	}
	if p.A, err = matrixArg(padded, 2); err != nil {
		return nil, opt, err
	}
	for i, dst := range []*[]float64{1: &p.C, 3: &p.L, 4: &p.U, 5: &p.XMin, 6: &p.XMax, 7: &p.X0} {
		if dst == nil {
			continue
		}
		if *dst, err = vectorArg(padded, i); err != nil {
			return nil, opt, err
		}
	}
	if p.VType, err = vtypeArg(padded, 8); err != nil {
		return nil, opt, err
	}

	switch v := padded[9].(type) {
	case nil:
	case Options:
		opt = v
	case *Options:
		if v != nil {
			opt = *v
		}
	default:
		return nil, opt, badArg(9, v)
	}

	return &p, opt, nil
}

func matrixArg(args []interface{}, i int) (mat.Matrix, error) {
	switch v := args[i].(type) {
	case nil:
		return nil, nil
	case mat.Matrix:
		return v, nil
	case [][]float64:
		if len(v) == 0 || len(v[0]) == 0 {
			return nil, nil
		}
		m := mat.NewDense(len(v), len(v[0]), nil)
		for r, row := range v {
			if len(row) != len(v[0]) {
				return nil, structuralf("%s: row %d has %d elements, expected %d", argNames[i], r, len(row), len(v[0]))
			}
			m.SetRow(r, row)
		}
		return m, nil
	default:
		return nil, badArg(i, v)
	}
}

func vectorArg(args []interface{}, i int) ([]float64, error) {
	switch v := args[i].(type) {
	case nil:
		return nil, nil
	case []float64:
		return v, nil
	default:
		return nil, badArg(i, v)
	}
}

func vtypeArg(args []interface{}, i int) ([]VarType, error) {
	switch v := args[i].(type) {
	case nil:
		return nil, nil
	case string:
		return ParseVarTypes(v)
	case VarType:
		return []VarType{v}, nil
	case []VarType:
		return v, nil
	default:
		return nil, badArg(i, v)
	}
}

func badArg(i int, v interface{}) error {
	return structuralf("argument %d (%s) has unsupported type %T", i+1, argNames[i], v)
}
