/*
Copyright © 2015 Leo Antunes <leo@costela.net>

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

// Package glpk is a cgo engine for the GLPK backend of miqps, linking
// against libglpk.
package glpk

// #cgo LDFLAGS: -lglpk
// #include <glpk.h>
// #include <stdlib.h>
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/costela/miqps"
)

/* Types */

// Engine implements miqps.GLPKEngine. Each call builds and frees its own
// problem object.
type Engine struct {
	name     string
	presolve bool
}

type Option func(*Engine) error

// WithName sets the problem name shown in GLPK's messages.
func WithName(name string) Option {
	return func(e *Engine) error {
		e.name = name

		return nil
	}
}

// WithPresolve switches GLPK's presolver, which is on by default. Without it
// mixed-integer problems first get their relaxation solved by the simplex.
func WithPresolve(on bool) Option {
	return func(e *Engine) error {
		e.presolve = on

		return nil
	}
}

func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		name:     "miqps",
		presolve: true,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("applying engine option: %w", err)
		}
	}

	return e, nil
}

// model wraps one glp_prob with the triplets of its constraint matrix.
type model struct {
	prob *C.glp_prob
	ia   []C.int
	ja   []C.int
	ar   []C.double
}

var boundTypes = map[miqps.GLPKBound]C.int{
	miqps.GLPKFree:   C.GLP_FR,
	miqps.GLPKUpper:  C.GLP_UP,
	miqps.GLPKLower:  C.GLP_LO,
	miqps.GLPKFixed:  C.GLP_FX,
	miqps.GLPKDouble: C.GLP_DB,
}

var varKinds = map[byte]C.int{
	'C': C.GLP_CV,
	'I': C.GLP_IV,
	'B': C.GLP_BV,
}

/* Model related functions */

func (e *Engine) newModel(p *miqps.GLPKProblem) (*model, error) {
	n := len(p.C)
	if n == 0 {
		return nil, errors.New("glpk: problem has no columns")
	}
	if len(p.ColKind) != n || len(p.ColLower) != n || len(p.ColUpper) != n || len(p.VarType) != n {
		return nil, errors.Errorf("glpk: column data does not match %d columns", n)
	}
	m := len(p.RowKind)
	if len(p.RowLower) != m || len(p.RowUpper) != m {
		return nil, errors.Errorf("glpk: row data does not match %d rows", m)
	}
	if p.A != nil {
		if r, c := p.A.Dims(); r != m || c != n {
			return nil, errors.Errorf("glpk: A is %dx%d, expected %dx%d", r, c, m, n)
		}
	} else if m > 0 {
		return nil, errors.New("glpk: rows given without A")
	}

	prob := C.glp_create_prob()
	c_name := C.CString(e.name)
	defer C.free(unsafe.Pointer(c_name))
	C.glp_set_prob_name(prob, c_name)
	C.glp_set_obj_dir(prob, C.GLP_MIN)

	// glpk indices start at 1; index 0 is reserved
	mod := &model{
		prob: prob,
		ia:   []C.int{0},
		ja:   []C.int{0},
		ar:   []C.double{0},
	}

	C.glp_add_cols(prob, C.int(n))
	for j := 0; j < n; j++ {
		kind, ok := varKinds[p.VarType[j]]
		if !ok {
			mod.delete()
			return nil, errors.Errorf("glpk: unknown variable type %q for column %d", p.VarType[j], j)
		}
		bnd, ok := boundTypes[p.ColKind[j]]
		if !ok {
			mod.delete()
			return nil, errors.Errorf("glpk: unknown bound type %q for column %d", p.ColKind[j], j)
		}
		// GLP_BV resets the column to [0,1], so the bounds must come after it
		C.glp_set_col_kind(prob, C.int(j+1), kind)
		C.glp_set_col_bnds(prob, C.int(j+1), bnd, C.double(p.ColLower[j]), C.double(p.ColUpper[j]))
		C.glp_set_obj_coef(prob, C.int(j+1), C.double(p.C[j]))
	}

	if m > 0 {
		C.glp_add_rows(prob, C.int(m))
	}
	for i := 0; i < m; i++ {
		bnd, ok := boundTypes[p.RowKind[i]]
		if !ok {
			mod.delete()
			return nil, errors.Errorf("glpk: unknown bound type %q for row %d", p.RowKind[i], i)
		}
		C.glp_set_row_bnds(prob, C.int(i+1), bnd, C.double(p.RowLower[i]), C.double(p.RowUpper[i]))
		for j := 0; j < n; j++ {
			if v := p.A.At(i, j); v != 0 {
				mod.ia = append(mod.ia, C.int(i+1))
				mod.ja = append(mod.ja, C.int(j+1))
				mod.ar = append(mod.ar, C.double(v))
			}
		}
	}
	C.glp_load_matrix(prob, C.int(len(mod.ia)-1), &mod.ia[0], &mod.ja[0], &mod.ar[0])

	return mod, nil
}

func (mod *model) delete() {
	C.glp_delete_prob(mod.prob)
}

/* Solving */

// Solve runs the simplex on continuous problems and the branch-and-cut on
// mixed-integer ones. Failures of GLPK itself are reported in the solution's
// ErrNum and Status; the error is reserved for malformed problems.
func (e *Engine) Solve(p *miqps.GLPKProblem) (*miqps.GLPKSolution, error) {
	mod, err := e.newModel(p)
	if err != nil {
		return nil, err
	}
	defer mod.delete()

	prm, err := readParams(p.Params, e.presolve)
	if err != nil {
		return nil, err
	}

	mip := false
	for i := 0; i < len(p.VarType); i++ {
		if p.VarType[i] != 'C' {
			mip = true
		}
	}

	if mip {
		return mod.solveBranchCut(prm), nil
	}
	return mod.solveSimplex(prm), nil
}

func (mod *model) solveSimplex(prm params) *miqps.GLPKSolution {
	var parm C.glp_smcp
	C.glp_init_smcp(&parm)
	prm.applySimplex(&parm)

	sol := &miqps.GLPKSolution{
		ErrNum: int(C.glp_simplex(mod.prob, &parm)),
	}
	sol.Status = int(C.glp_get_status(mod.prob))

	n := int(C.glp_get_num_cols(mod.prob))
	m := int(C.glp_get_num_rows(mod.prob))
	sol.X = make([]float64, n)
	sol.ColDual = make([]float64, n)
	for j := 0; j < n; j++ {
		sol.X[j] = float64(C.glp_get_col_prim(mod.prob, C.int(j+1)))
		sol.ColDual[j] = float64(C.glp_get_col_dual(mod.prob, C.int(j+1)))
	}
	sol.RowDual = make([]float64, m)
	for i := 0; i < m; i++ {
		sol.RowDual[i] = float64(C.glp_get_row_dual(mod.prob, C.int(i+1)))
	}
	sol.F = float64(C.glp_get_obj_val(mod.prob))

	return sol
}

// solveBranchCut solves mixed-integer problems. Without the presolver the
// relaxation must be solved first.
func (mod *model) solveBranchCut(prm params) *miqps.GLPKSolution {
	if !prm.presolve {
		var parm C.glp_smcp
		C.glp_init_smcp(&parm)
		prm.applySimplex(&parm)
		if ret := int(C.glp_simplex(mod.prob, &parm)); ret != 0 {
			return &miqps.GLPKSolution{
				ErrNum: ret,
				Status: int(C.glp_get_status(mod.prob)),
			}
		}
	}

	var parm C.glp_iocp
	C.glp_init_iocp(&parm)
	prm.applyBranchCut(&parm)

	sol := &miqps.GLPKSolution{
		ErrNum: int(C.glp_intopt(mod.prob, &parm)),
	}
	sol.Status = int(C.glp_mip_status(mod.prob))

	n := int(C.glp_get_num_cols(mod.prob))
	sol.X = make([]float64, n)
	for j := 0; j < n; j++ {
		sol.X[j] = float64(C.glp_mip_col_val(mod.prob, C.int(j+1)))
	}
	sol.F = float64(C.glp_mip_obj_val(mod.prob))

	return sol
}
