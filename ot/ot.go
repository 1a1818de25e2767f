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

/*
Package ot is a pure Go engine for the OT backend of miqps. Linear problems
are solved with gonum's simplex, which is run a second time on the dual
problem to obtain multipliers. Mixed-integer linear problems are solved by
depth-first branch and bound over the same simplex. Convex quadratic problems
are solved by a primal active-set method; mixed-integer quadratic problems are
not supported.
*/
package ot

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/costela/miqps"
)

// Toolbox exit flags set by this engine.
const (
	exitOptimal    = 1
	exitLimit      = 0
	exitStopped    = 2 // intlinprog: stopped with an integer feasible point
	exitInfeasible = -2
	exitUnbounded  = -3
	exitNumerical  = -4
)

const (
	defaultTol      = 1e-10
	defaultIntTol   = 1e-6
	defaultMaxNodes = 100000
)

// Engine implements miqps.OTEngine. An Engine holds no state between calls.
type Engine struct {
	tol      float64
	intTol   float64
	maxNodes int
	logger   miqps.Logger
}

type noopLogger struct{}

func (noopLogger) Print(v ...interface{}) {}

// New returns an engine configured by opts.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		tol:      defaultTol,
		intTol:   defaultIntTol,
		maxNodes: defaultMaxNodes,
		logger:   noopLogger{},
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("applying engine option: %w", err)
		}
	}

	return e, nil
}

// settings are the engine defaults overridden by the per-call options
// "OptimalityTolerance", "IntegerTolerance", "MaxNodes", "MaxIterations" and
// "Display". A zero maxIter lets quadprog pick a limit from the problem size.
type settings struct {
	tol      float64
	intTol   float64
	maxNodes int
	maxIter  int
	display  string
}

func (e *Engine) settings(o miqps.OTOptions) settings {
	s := settings{
		tol:      e.tol,
		intTol:   e.intTol,
		maxNodes: e.maxNodes,
		display:  "off",
	}
	if v, ok := o["OptimalityTolerance"].(float64); ok && v > 0 {
		s.tol = v
	}
	if v, ok := o["IntegerTolerance"].(float64); ok && v > 0 {
		s.intTol = v
	}
	switch v := o["MaxNodes"].(type) {
	case int:
		if v > 0 {
			s.maxNodes = v
		}
	case float64:
		if v >= 1 {
			s.maxNodes = int(v)
		}
	}
	switch v := o["MaxIterations"].(type) {
	case int:
		if v > 0 {
			s.maxIter = v
		}
	case float64:
		if v >= 1 {
			s.maxIter = int(v)
		}
	}
	if v, ok := o["Display"].(string); ok {
		s.display = v
	}
	return s
}

func (e *Engine) logf(s settings, iter bool, format string, args ...interface{}) {
	if s.display == "off" || (iter && s.display != "iter") {
		return
	}
	e.logger.Print(fmt.Sprintf(format, args...))
}

/* Linear problems */

// Linprog solves the linear problem p. IntCon and H are ignored.
func (e *Engine) Linprog(p *miqps.OTProblem) (*miqps.OTSolution, error) {
	lb, ub, err := check(p)
	if err != nil {
		return nil, err
	}
	s := e.settings(p.Options)

	sol := &miqps.OTSolution{
		Output: miqps.OTOutput{Algorithm: "simplex"},
	}

	sf, err := newStandardForm(p, lb, ub)
	var x []float64
	if err == nil {
		x, err = sf.solve(s.tol)
	}
	sol.Output.Iterations = 1
	if err != nil {
		sol.ExitFlag = exitFlag(err)
		sol.Output.Message = err.Error()
		e.logf(s, false, "ot: linprog: %s", err)
		return sol, nil
	}

	sol.X = x
	sol.FVal = floats.Dot(p.F, x)
	sol.ExitFlag = exitOptimal
	sol.Output.Message = "optimal solution found"

	mu, err := sf.duals(s.tol)
	if err != nil {
		sol.Output.Message = "optimal solution found, multipliers unavailable: " + err.Error()
	} else {
		sol.Lambda = sf.lambda(p, lb, ub, mu)
	}
	sol.Output.Iterations++

	e.logf(s, false, "ot: linprog: f = %g", sol.FVal)

	return sol, nil
}

func exitFlag(err error) int {
	switch errors.Cause(err) {
	case lp.ErrInfeasible:
		return exitInfeasible
	case lp.ErrUnbounded:
		return exitUnbounded
	default:
		return exitNumerical
	}
}

// check validates the dimensions of p and returns its bounds, where nil
// bounds are infinite.
func check(p *miqps.OTProblem) (lb, ub []float64, err error) {
	n := len(p.F)
	if n == 0 {
		return nil, nil, errors.New("ot: problem has no variables")
	}
	if p.Aineq != nil {
		if r, c := p.Aineq.Dims(); c != n || r != len(p.Bineq) {
			return nil, nil, errors.Errorf("ot: Aineq is %dx%d, expected %dx%d", r, c, len(p.Bineq), n)
		}
	} else if len(p.Bineq) != 0 {
		return nil, nil, errors.New("ot: bineq given without Aineq")
	}
	if p.Aeq != nil {
		if r, c := p.Aeq.Dims(); c != n || r != len(p.Beq) {
			return nil, nil, errors.Errorf("ot: Aeq is %dx%d, expected %dx%d", r, c, len(p.Beq), n)
		}
	} else if len(p.Beq) != 0 {
		return nil, nil, errors.New("ot: beq given without Aeq")
	}
	for _, j := range p.IntCon {
		if j < 0 || j >= n {
			return nil, nil, errors.Errorf("ot: intcon index %d out of range", j)
		}
	}

	if lb, err = bound(p.LB, n, math.Inf(-1), "lb"); err != nil {
		return nil, nil, err
	}
	if ub, err = bound(p.UB, n, math.Inf(1), "ub"); err != nil {
		return nil, nil, err
	}
	return lb, ub, nil
}

func bound(v []float64, n int, def float64, name string) ([]float64, error) {
	out := make([]float64, n)
	switch len(v) {
	case 0:
		for i := range out {
			out[i] = def
		}
	case n:
		copy(out, v)
	default:
		return nil, errors.Errorf("ot: %s has %d elements, expected %d", name, len(v), n)
	}
	return out, nil
}
