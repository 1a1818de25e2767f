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

package miqps

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

/* Types */

// GLPKBound is the kind of a row or column bound, as in glp_set_row_bnds.
type GLPKBound byte

const (
	GLPKFree   = GLPKBound('F') // GLP_FR: -inf < x < +inf
	GLPKUpper  = GLPKBound('U') // GLP_UP: -inf < x <= ub
	GLPKLower  = GLPKBound('L') // GLP_LO: lb <= x < +inf
	GLPKFixed  = GLPKBound('S') // GLP_FX: x = lb
	GLPKDouble = GLPKBound('D') // GLP_DB: lb <= x <= ub
)

// GLPKParams are passed to the GLPK engine as given. "msglev" (0 off,
// 1 errors, 2 normal, 3 all) follows Options.Verbose unless set.
type GLPKParams map[string]interface{}

// GLPKProblem is a minimization problem in GLPK's form:
//
//	min  Cᵀx
//	s.t. rows A x bounded by RowKind/RowLower/RowUpper
//	     x bounded by ColKind/ColLower/ColUpper
//
// Infinite sides of a bound are passed as 0. VarType holds one of 'C', 'I'
// or 'B' per column.
type GLPKProblem struct {
	C        []float64
	A        *mat.Dense
	RowKind  []GLPKBound
	RowLower []float64
	RowUpper []float64
	ColKind  []GLPKBound
	ColLower []float64
	ColUpper []float64
	VarType  string
	Params   GLPKParams
}

// GLPKSolution is the engine's answer. ErrNum is the return code of
// glp_simplex or glp_intopt, Status the glp_get_status or glp_mip_status
// value. RowDual and ColDual are nil for mixed-integer problems.
type GLPKSolution struct {
	X       []float64
	F       float64
	ErrNum  int
	Status  int
	RowDual []float64
	ColDual []float64
}

// GLPKEngine runs one GLPK optimization.
type GLPKEngine interface {
	Solve(p *GLPKProblem) (*GLPKSolution, error)
}

// GLPK solution status values.
const (
	GLPKStatusUndefined  = 1 // GLP_UNDEF
	GLPKStatusFeasible   = 2 // GLP_FEAS
	GLPKStatusInfeasible = 3 // GLP_INFEAS
	GLPKStatusNoFeasible = 4 // GLP_NOFEAS
	GLPKStatusOptimal    = 5 // GLP_OPT
	GLPKStatusUnbounded  = 6 // GLP_UNBND
)

// GLPKError is a non-zero return code of glp_simplex or glp_intopt.
type GLPKError int

const (
	GLPKErrBadBasis  = GLPKError(0x01) // GLP_EBADB
	GLPKErrSingular  = GLPKError(0x02) // GLP_ESING
	GLPKErrCond      = GLPKError(0x03) // GLP_ECOND
	GLPKErrBound     = GLPKError(0x04) // GLP_EBOUND
	GLPKErrFail      = GLPKError(0x05) // GLP_EFAIL
	GLPKErrObjLower  = GLPKError(0x06) // GLP_EOBJLL
	GLPKErrObjUpper  = GLPKError(0x07) // GLP_EOBJUL
	GLPKErrIterLimit = GLPKError(0x08) // GLP_EITLIM
	GLPKErrTimeLimit = GLPKError(0x09) // GLP_ETMLIM
	GLPKErrNoPrimal  = GLPKError(0x0A) // GLP_ENOPFS
	GLPKErrNoDual    = GLPKError(0x0B) // GLP_ENODFS
	GLPKErrRoot      = GLPKError(0x0C) // GLP_EROOT
	GLPKErrStop      = GLPKError(0x0D) // GLP_ESTOP
	GLPKErrMIPGap    = GLPKError(0x0E) // GLP_EMIPGAP
)

func (e GLPKError) Error() string {
	switch e {
	case GLPKErrBadBasis:
		return "initial basis invalid"
	case GLPKErrSingular:
		return "initial basis is exactly singular"
	case GLPKErrCond:
		return "initial basis is ill-conditioned"
	case GLPKErrBound:
		return "double-bounded (auxiliary or structural) variables has incorrect bounds"
	case GLPKErrFail:
		return "problem instance has no rows/columns"
	case GLPKErrObjLower:
		return "objective function reached its lower limit"
	case GLPKErrObjUpper:
		return "objective function reached its upper limit"
	case GLPKErrIterLimit:
		return "simplex iteration limit exceeded"
	case GLPKErrTimeLimit:
		return "time limit exceeded"
	case GLPKErrNoPrimal:
		return "LP relaxation of MIP problem has no primal feasible solution"
	case GLPKErrNoDual:
		return "LP relaxation of MIP problem has no dual feasible solution"
	case GLPKErrRoot:
		return "optimal basis for initial LP relaxation not provided and presolver not used"
	case GLPKErrStop:
		return "search terminated by application"
	case GLPKErrMIPGap:
		return "MIP gap tolerance exceeded"
	default:
		return fmt.Sprintf("unknown glpk error: %d", int(e))
	}
}

// glpkExit maps GLPK's return code and status:
//
//	errnum iteration/time limit, gap, stop    →  0
//	errnum no primal feasible solution        → -2
//	errnum no dual feasible solution          → -3
//	errnum ill-conditioned or singular basis  → -4
//	any other errnum                          → -1
//	status optimal                            →  1
//	status feasible                           →  0
//	status infeasible, no feasible solution   → -2
//	status unbounded                          → -3
//	status undefined                          → -1
func glpkExit(errnum, status int) int {
	switch GLPKError(errnum) {
	case 0:
	case GLPKErrIterLimit, GLPKErrTimeLimit, GLPKErrMIPGap, GLPKErrStop, GLPKErrObjLower, GLPKErrObjUpper:
		return ExitLimit
	case GLPKErrNoPrimal:
		return ExitInfeasible
	case GLPKErrNoDual:
		return ExitUnbounded
	case GLPKErrSingular, GLPKErrCond:
		return ExitNumerical
	default:
		return ExitFailed
	}

	switch status {
	case GLPKStatusOptimal:
		return ExitOptimal
	case GLPKStatusFeasible:
		return ExitLimit
	case GLPKStatusInfeasible, GLPKStatusNoFeasible:
		return ExitInfeasible
	case GLPKStatusUnbounded:
		return ExitUnbounded
	default:
		return ExitFailed
	}
}

func glpkStatusText(status int) string {
	switch status {
	case GLPKStatusUndefined:
		return "undefined"
	case GLPKStatusFeasible:
		return "feasible"
	case GLPKStatusInfeasible:
		return "infeasible"
	case GLPKStatusNoFeasible:
		return "no feasible solution"
	case GLPKStatusOptimal:
		return "optimal"
	case GLPKStatusUnbounded:
		return "unbounded"
	default:
		return fmt.Sprintf("status %d", status)
	}
}

/* Adapter */

var glpkMsgLev = [...]int{0, 1, 3}

type glpkAdapter struct {
	engine GLPKEngine
}

func (a glpkAdapter) solve(p *Problem, opt *Options) (*Result, error) {
	if p.quadratic() {
		return nil, unsupportedf(GLPK, "quadratic objective")
	}
	for j, t := range p.VType {
		if t == SemiContinuous || t == SemiInteger {
			return nil, unsupportedf(GLPK, "%s variable %d", t, j)
		}
	}

	params := opt.passthrough(GLPK)
	setDefault(params, "msglev", glpkMsgLev[verbosity(opt)])

	prob := &GLPKProblem{
		C:       p.C,
		A:       mat.DenseCopyOf(p.A),
		VarType: typeString(p.VType),
		Params:  params,
	}
	prob.RowKind, prob.RowLower, prob.RowUpper = glpkBounds(p.L, p.U)
	prob.ColKind, prob.ColLower, prob.ColUpper = glpkBounds(binaryBounds(p.VType, p.XMin, p.XMax))

	sol, err := a.engine.Solve(prob)
	if err != nil {
		return engineFailure(p, err), nil
	}

	res := newResult(p)
	res.X = sol.X
	res.F = sol.F
	res.ExitFlag = glpkExit(sol.ErrNum, sol.Status)
	res.Output.NativeCode = sol.Status
	res.Output.Status = glpkStatusText(sol.Status)
	if sol.ErrNum != 0 {
		res.Output.Message = GLPKError(sol.ErrNum).Error()
		res.Output.Native = map[string]interface{}{"errnum": sol.ErrNum}
	}

	// GLPK duals are ∂f/∂(row activity): positive when a lower side binds.
	if sol.RowDual != nil {
		res.Lambda.setRows(negate(resize(sol.RowDual, p.numRows())))
	}
	if sol.ColDual != nil {
		res.Lambda.setBounds(negate(resize(sol.ColDual, p.numVars())))
	}

	return res, nil
}

// glpkBounds classifies each lower/upper pair the way glp_set_row_bnds and
// glp_set_col_bnds expect them.
func glpkBounds(lower, upper []float64) (kinds []GLPKBound, lo, hi []float64) {
	kinds = make([]GLPKBound, len(lower))
	lo = make([]float64, len(lower))
	hi = make([]float64, len(lower))
	for i := range lower {
		switch classify(lower[i], upper[i]) {
		case boundFree:
			kinds[i] = GLPKFree
		case boundUpper:
			kinds[i], hi[i] = GLPKUpper, upper[i]
		case boundLower:
			kinds[i], lo[i] = GLPKLower, lower[i]
		case boundFixed:
			kinds[i], lo[i], hi[i] = GLPKFixed, lower[i], lower[i]
		default:
			kinds[i], lo[i], hi[i] = GLPKDouble, lower[i], upper[i]
		}
	}
	return
}
