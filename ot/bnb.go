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

package ot

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/costela/miqps"
)

// node is a subproblem of the branch and bound: the original problem with
// tightened bounds. bound is the relaxation objective of its parent, a lower
// bound on anything found below it.
type node struct {
	lb, ub []float64
	bound  float64
	depth  int
}

func (nd node) child(j int, lower, upper float64, bound float64) node {
	c := node{
		lb:    append([]float64(nil), nd.lb...),
		ub:    append([]float64(nil), nd.ub...),
		bound: bound,
		depth: nd.depth + 1,
	}
	c.lb[j], c.ub[j] = lower, upper
	return c
}

// Intlinprog solves the mixed-integer linear problem p by depth-first branch
// and bound, always branching on the most fractional integer variable. H is
// ignored and no multipliers are reported.
//
// The exit flag is 1 once the search is complete, 2 when it stopped at the
// node limit or at a failed subproblem with an integer feasible point at hand,
// 0 when it stopped without one, -2 if no integer feasible point exists and
// -3 if the root relaxation is unbounded.
func (e *Engine) Intlinprog(p *miqps.OTProblem) (*miqps.OTSolution, error) {
	lb, ub, err := check(p)
	if err != nil {
		return nil, err
	}
	s := e.settings(p.Options)

	isInt := make([]bool, len(p.F))
	for _, j := range p.IntCon {
		isInt[j] = true
		lb[j] = math.Ceil(lb[j] - s.intTol)
		ub[j] = math.Floor(ub[j] + s.intTol)
	}

	sol := &miqps.OTSolution{
		Output: miqps.OTOutput{Algorithm: "branch and bound"},
	}

	var (
		stack     = []node{{lb: lb, ub: ub, bound: math.Inf(-1)}}
		incumbent []float64
		best      = math.Inf(1)
		complete  = true
		nodes     int
	)

	for len(stack) > 0 {
		if nodes >= s.maxNodes {
			complete = false
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if nd.bound >= best-pruneTol(best) {
			continue
		}
		nodes++

		sf, err := newStandardForm(p, nd.lb, nd.ub)
		var x []float64
		if err == nil {
			x, err = sf.solve(s.tol)
		}
		switch {
		case err == nil:
		case nodes == 1 && err == lp.ErrUnbounded:
			sol.ExitFlag = exitUnbounded
			sol.Output.NumNodes = nodes
			sol.Output.Message = "root relaxation is unbounded"
			return sol, nil
		case err == lp.ErrInfeasible:
			e.logf(s, true, "ot: node %d (depth %d): infeasible", nodes, nd.depth)
			continue
		default:
			// A failed relaxation leaves its subtree unexplored.
			e.logf(s, true, "ot: node %d (depth %d): %s", nodes, nd.depth, err)
			complete = false
			continue
		}

		f := floats.Dot(p.F, x)
		if f >= best-pruneTol(best) {
			e.logf(s, true, "ot: node %d (depth %d): f = %g, pruned", nodes, nd.depth, f)
			continue
		}

		j := mostFractional(x, isInt, s.intTol)
		if j < 0 {
			incumbent, best = x, f
			e.logf(s, true, "ot: node %d (depth %d): new incumbent f = %g", nodes, nd.depth, f)
			continue
		}

		// the nearer side is pushed last, so it is explored first
		down := nd.child(j, nd.lb[j], math.Floor(x[j]), f)
		up := nd.child(j, math.Ceil(x[j]), nd.ub[j], f)
		if x[j]-math.Floor(x[j]) < 0.5 {
			stack = append(stack, up, down)
		} else {
			stack = append(stack, down, up)
		}
		e.logf(s, true, "ot: node %d (depth %d): f = %g, branching on x[%d] = %g", nodes, nd.depth, f, j, x[j])
	}

	sol.Output.NumNodes = nodes
	sol.Output.Iterations = nodes

	switch {
	case incumbent == nil && complete:
		sol.ExitFlag = exitInfeasible
		sol.Output.Message = "no integer feasible point found"
	case incumbent == nil:
		sol.ExitFlag = exitLimit
		sol.Output.Message = "stopped before finding an integer feasible point"
	case complete:
		sol.X, sol.FVal = incumbent, best
		sol.ExitFlag = exitOptimal
		sol.Output.Message = "optimal solution found"
	default:
		sol.X, sol.FVal = incumbent, best
		sol.ExitFlag = exitStopped
		sol.Output.Message = "stopped with an integer feasible point"
		sol.Output.RelativeGap = gap(best, stack)
	}

	e.logf(s, false, "ot: intlinprog: %s after %d nodes, f = %g", sol.Output.Message, nodes, sol.FVal)

	return sol, nil
}

// mostFractional returns the integer variable farthest from an integer, or
// -1 if all are integral within tol.
func mostFractional(x []float64, isInt []bool, tol float64) int {
	best, idx := tol, -1
	for j, v := range x {
		if !isInt[j] {
			continue
		}
		frac := v - math.Floor(v)
		if d := math.Min(frac, 1-frac); d > best {
			best, idx = d, j
		}
	}
	return idx
}

func pruneTol(best float64) float64 {
	if math.IsInf(best, 0) {
		return 0
	}
	return 1e-9 * math.Max(1, math.Abs(best))
}

// gap is the relative distance between best and the weakest bound left in
// stack.
func gap(best float64, stack []node) float64 {
	lower := best
	for _, nd := range stack {
		lower = math.Min(lower, nd.bound)
	}
	if math.IsInf(lower, -1) {
		return math.Inf(1)
	}
	return (best - lower) / math.Max(1, math.Abs(best))
}
