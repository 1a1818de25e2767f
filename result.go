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
	"strconv"
)

/* Types */

// Values of Result.ExitFlag. Every backend maps its native status codes
// onto this scale; anything below ExitOptimal means X should not be trusted.
const (
	ExitOptimal          = 1
	ExitLimit            = 0 // stopped at a limit, or feasible but not proven optimal
	ExitFailed           = -1
	ExitInfeasible       = -2
	ExitUnbounded        = -3
	ExitNumerical        = -4
	ExitInfeasibleOrUnbd = -5
)

// ExitText describes an exit flag value.
func ExitText(flag int) string {
	switch flag {
	case ExitOptimal:
		return "optimal solution found"
	case ExitLimit:
		return "stopped at a limit before proving optimality"
	case ExitFailed:
		return "solver failed"
	case ExitInfeasible:
		return "problem is infeasible"
	case ExitUnbounded:
		return "problem is unbounded"
	case ExitNumerical:
		return "numerical failure while solving"
	case ExitInfeasibleOrUnbd:
		return "problem is infeasible or unbounded"
	default:
		return "exit flag " + strconv.Itoa(flag)
	}
}

// Result is the outcome of a solve.
type Result struct {
	// X is the solution; only meaningful when ExitFlag is ExitOptimal.
	X []float64
	// F is the objective value at X.
	F        float64
	ExitFlag int
	Output   Output
	Lambda   Lambda
}

// Output carries solver diagnostics.
type Output struct {
	// Alg is the backend that actually ran, never Default.
	Alg Backend
	// Status is the backend's native status text and NativeCode its native
	// status code, where it has one.
	Status     string
	NativeCode int
	Iterations int
	Nodes      int
	Gap        float64
	Message    string
	// Warnings collects non-fatal problems, including those of the price
	// computation stage.
	Warnings []string
	// PriceStage holds the diagnostics of the price computation stage, if
	// it ran.
	PriceStage *Output
	// Native holds any further backend specific values.
	Native map[string]interface{}
}

func (o *Output) warn(format string, args ...interface{}) {
	o.Warnings = append(o.Warnings, fmt.Sprintf(format, args...))
}

// Lambda holds the multipliers of a solution. All values are non-negative,
// with the sign convention
//
//	H x + c + Aᵀ(MuU − MuL) + Upper − Lower = 0
//
// at an optimal point. Classes the backend does not report are zero.
type Lambda struct {
	// MuL and MuU belong to the lower and upper sides of L <= A x <= U.
	MuL, MuU []float64
	// Lower and Upper belong to XMin and XMax.
	Lower, Upper []float64
}

func newLambda(n, m int) Lambda {
	return Lambda{
		MuL:   make([]float64, m),
		MuU:   make([]float64, m),
		Lower: make([]float64, n),
		Upper: make([]float64, n),
	}
}

// setRows splits signed row multipliers (positive when the upper side binds)
// into MuL and MuU.
func (l *Lambda) setRows(signed []float64) {
	for i, v := range signed {
		l.MuL[i], l.MuU[i] = split(v)
	}
}

// setBounds splits signed bound multipliers (positive when the upper bound
// binds) into Lower and Upper.
func (l *Lambda) setBounds(signed []float64) {
	for j, v := range signed {
		l.Lower[j], l.Upper[j] = split(v)
	}
}

func split(v float64) (lower, upper float64) {
	if v > 0 {
		return 0, v
	}
	return -v, 0
}

/* Assembly */

// newResult returns a failed result of the right shape for p.
func newResult(p *Problem) *Result {
	return &Result{
		X:        make([]float64, p.numVars()),
		ExitFlag: ExitFailed,
		Lambda:   newLambda(p.numVars(), p.numRows()),
	}
}

// engineFailure reports an error returned by a backend engine. Such errors
// are solve failures, not fatal errors.
func engineFailure(p *Problem, err error) *Result {
	res := newResult(p)
	res.Output.Message = err.Error()
	return res
}

// assemble fixes up an adapter's result: the resolved backend is recorded and
// every vector gets its full length.
func assemble(b Backend, p *Problem, res *Result) *Result {
	n, m := p.numVars(), p.numRows()

	res.Output.Alg = b
	res.X = resize(res.X, n)
	res.Lambda.MuL = resize(res.Lambda.MuL, m)
	res.Lambda.MuU = resize(res.Lambda.MuU, m)
	res.Lambda.Lower = resize(res.Lambda.Lower, n)
	res.Lambda.Upper = resize(res.Lambda.Upper, n)

	return res
}

func resize(v []float64, size int) []float64 {
	if len(v) == size {
		return v
	}
	out := make([]float64, size)
	copy(out, v)
	return out
}
