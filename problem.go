/*
Copyright © 2015-2022 Leo Antunes <leo@costela.net>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package miqps

import (
	"fmt"
	"math"
	"reflect"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

/* Types */

// VarType is the type of a single variable, written as the usual one-letter
// code.
type VarType byte

const (
	Continuous     = VarType('C')
	Binary         = VarType('B')
	Integer        = VarType('I')
	SemiContinuous = VarType('S')
	SemiInteger    = VarType('N')
)

func (t VarType) String() string {
	switch t {
	case Continuous:
		return "continuous"
	case Binary:
		return "binary"
	case Integer:
		return "integer"
	case SemiContinuous:
		return "semi-continuous"
	case SemiInteger:
		return "semi-integer"
	default:
		return fmt.Sprintf("VarType(%q)", byte(t))
	}
}

func (t VarType) valid() bool {
	switch t {
	case Continuous, Binary, Integer, SemiContinuous, SemiInteger:
		return true
	}
	return false
}

// ParseVarTypes reads one type per character from a string such as "CCBI".
// A single character is broadcast to all variables by Normalize.
func ParseVarTypes(s string) ([]VarType, error) {
	types := make([]VarType, len(s))
	for i := 0; i < len(s); i++ {
		types[i] = VarType(s[i])
		if !types[i].valid() {
			return nil, structuralf("unknown variable type %q at position %d", s[i], i)
		}
	}
	return types, nil
}

// Problem describes
//
//	min  ½ xᵀHx + cᵀx
//	s.t. L <= A x <= U
//	     XMin <= x <= XMax
//	     x[i] of type VType[i]
//
// Only C (or H), A and one of L/U are required; see Normalize for the
// defaults of the rest. Infinite bounds are given as ±Inf; magnitudes of
// 1e10 and above are treated as infinite as well.
type Problem struct {
	H    mat.Matrix
	C    []float64
	A    mat.Matrix
	L, U []float64
	XMin []float64
	XMax []float64
	X0   []float64
	// VType holds one type per variable, or a single type applying to all.
	VType []VarType
}

// Normalize returns a copy of the problem with every optional field filled:
// XMin = -Inf, XMax = +Inf, X0 = 0, VType = Continuous, a missing side of
// L/U = ∓Inf and a missing C = 0 (when H is given). It fails with
// ErrStructural when a required field is missing or a dimension disagrees.
// The receiver is not modified; H and A are shared, not copied, and must not
// be modified while a solve is running.
func (p *Problem) Normalize() (*Problem, error) {
	h, a := present(p.H), present(p.A)

	n := len(p.C)
	if h != nil {
		r, c := h.Dims()
		if r != c {
			return nil, structuralf("H must be square, got %dx%d", r, c)
		}
		if n == 0 {
			n = r
		} else if r != n {
			return nil, structuralf("H is %dx%d but c has %d elements", r, c, n)
		}
	}
	if n == 0 {
		return nil, structuralf("cannot determine the number of variables: c and H are both empty")
	}
	if a == nil {
		return nil, structuralf("constraint matrix A is required")
	}
	if len(p.L) == 0 && len(p.U) == 0 {
		return nil, structuralf("at least one of the constraint bounds l and u is required")
	}

	m, ac := a.Dims()
	if ac != n {
		return nil, structuralf("A has %d columns, expected %d", ac, n)
	}

	out := &Problem{
		H: h,
		A: a,
	}

	var err error
	if out.C, err = fill(p.C, n, 0, "c"); err != nil {
		return nil, err
	}
	if out.L, err = fill(p.L, m, math.Inf(-1), "l"); err != nil {
		return nil, err
	}
	if out.U, err = fill(p.U, m, math.Inf(1), "u"); err != nil {
		return nil, err
	}
	if out.XMin, err = fill(p.XMin, n, math.Inf(-1), "xmin"); err != nil {
		return nil, err
	}
	if out.XMax, err = fill(p.XMax, n, math.Inf(1), "xmax"); err != nil {
		return nil, err
	}
	if out.X0, err = fill(p.X0, n, 0, "x0"); err != nil {
		return nil, err
	}

	switch len(p.VType) {
	case 0:
		out.VType = broadcast(Continuous, n)
	case 1:
		out.VType = broadcast(p.VType[0], n)
	case n:
		out.VType = append([]VarType(nil), p.VType...)
	default:
		return nil, structuralf("vtype has %d elements, expected 1 or %d", len(p.VType), n)
	}
	for i, t := range out.VType {
		if !t.valid() {
			return nil, errors.Wrapf(ErrStructural, "unknown variable type %q for variable %d", byte(t), i)
		}
	}

	return out, nil
}

// fill copies v, or returns a vector of def values when v is empty.
func fill(v []float64, size int, def float64, name string) ([]float64, error) {
	if len(v) == 0 {
		out := make([]float64, size)
		if def != 0 {
			for i := range out {
				out[i] = def
			}
		}
		return out, nil
	}
	if len(v) != size {
		return nil, structuralf("%s has %d elements, expected %d", name, len(v), size)
	}
	return append([]float64(nil), v...), nil
}

// present returns nil for nil or empty matrices, including typed nils.
func present(m mat.Matrix) mat.Matrix {
	if m == nil {
		return nil
	}
	if v := reflect.ValueOf(m); v.Kind() == reflect.Ptr && v.IsNil() {
		return nil
	}
	if e, ok := m.(interface{ IsEmpty() bool }); ok && e.IsEmpty() {
		return nil
	}
	if r, c := m.Dims(); r == 0 || c == 0 {
		return nil
	}
	return m
}

func broadcast(t VarType, n int) []VarType {
	types := make([]VarType, n)
	for i := range types {
		types[i] = t
	}
	return types
}

/* Queries on normalized problems */

func (p *Problem) numVars() int { return len(p.C) }

func (p *Problem) numRows() int { return len(p.L) }

// quadratic reports whether H has any nonzero entry.
func (p *Problem) quadratic() bool {
	return !isZero(p.H)
}

// mixedInteger reports whether any variable is not continuous.
func (p *Problem) mixedInteger() bool {
	for _, t := range p.VType {
		if t != Continuous {
			return true
		}
	}
	return false
}

func (p *Problem) hasSemi() bool {
	for _, t := range p.VType {
		if t == SemiContinuous || t == SemiInteger {
			return true
		}
	}
	return false
}

// class names the problem class for log messages.
func (p *Problem) class() string {
	switch {
	case p.quadratic() && p.mixedInteger():
		return "MIQP"
	case p.quadratic():
		return "QP"
	case p.mixedInteger():
		return "MILP"
	default:
		return "LP"
	}
}

func isZero(m mat.Matrix) bool {
	if m == nil {
		return true
	}
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}
