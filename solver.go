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

Package miqps solves mixed-integer quadratic programs of the form

    min  ½ xᵀHx + cᵀx
    s.t. l <= A x <= u
         xmin <= x <= xmax
         x[i] continuous, binary, integer, semi-continuous or semi-integer

through whichever backend engine is available: CPLEX, GLPK, Gurobi, MOSEK
or the pure Go OT engine. Every backend's status codes and multiplier signs
are mapped onto one Result. For mixed-integer problems the integer variables
are then fixed at their solution and the continuous problem is solved again to
obtain meaningful prices.

A solver for linear and mixed-integer linear problems, using the engine from
the ot package:

	package main

	import (
		"fmt"
		"math"

		"github.com/costela/miqps"
		"github.com/costela/miqps/ot"
		"gonum.org/v1/gonum/mat"
	)

	func main() {
		engine, _ := ot.New()
		solver, _ := miqps.NewSolver(miqps.WithOT(engine))

		res, _ := solver.Solve(miqps.Problem{
			C:    []float64{-1, -2, -3, -1},
			A:    mat.NewDense(3, 4, []float64{-1, 1, 1, 10, 1, -3, 1, 0, 0, 1, 0, -3.5}),
			L:    []float64{0, 0, 0},
			U:    []float64{20, 30, 0},
			XMin: []float64{0, 0, 0, 2},
			XMax: []float64{40, math.Inf(1), math.Inf(1), 3},
			VType: []miqps.VarType{
				miqps.Continuous, miqps.Continuous, miqps.Continuous, miqps.Integer,
			},
		}, miqps.Options{})

		fmt.Printf("solution optimal? %t\n", res.ExitFlag == miqps.ExitOptimal)
		fmt.Printf("f = %f, x = %v\n", res.F, res.X)
		fmt.Printf("row prices: %v %v\n", res.Lambda.MuL, res.Lambda.MuU)
	}

*/
package miqps

import (
	"fmt"

	"github.com/pkg/errors"
)

/* Types */

// Solver dispatches problems to the registered backend engines. It holds no
// state between calls, so it may be shared by several goroutines as long as
// the engines allow concurrent use.
type Solver struct {
	adapters map[Backend]adapter
	probe    Probe
	logger   Logger
}

// adapter translates a normalized problem into one backend's native
// convention and the backend's answer back into a Result.
type adapter interface {
	solve(p *Problem, opt *Options) (*Result, error)
}

// NewSolver returns a solver using the engines registered by opts.
func NewSolver(opts ...Option) (*Solver, error) {
	s := &Solver{
		adapters: make(map[Backend]adapter),
		logger:   noopLogger{},
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("applying solver option: %w", err)
		}
	}

	return s, nil
}

func (s *Solver) register(b Backend, ok bool, a adapter) error {
	if !ok {
		return errors.Errorf("nil engine for %s", b)
	}
	s.adapters[b] = a

	return nil
}

/* Solving */

// Solve normalizes prob, picks a backend according to opt.Alg and solves.
// The returned error wraps ErrStructural, ErrInvalidAlgorithm,
// ErrSolverUnavailable, ErrNoSolver or ErrUnsupported. A backend that fails
// to solve is not an error: Result.ExitFlag tells the outcome.
func (s *Solver) Solve(prob Problem, opt Options) (*Result, error) {
	p, err := prob.Normalize()
	if err != nil {
		return nil, err
	}

	return s.solve(p, &opt)
}

// SolveArgs is Solve with the positional arguments accepted by FromArgs.
func (s *Solver) SolveArgs(args ...interface{}) (*Result, error) {
	prob, opt, err := FromArgs(args...)
	if err != nil {
		return nil, err
	}

	return s.Solve(*prob, opt)
}

func (s *Solver) solve(p *Problem, opt *Options) (*Result, error) {
	b, err := s.selectBackend(opt.Alg, p)
	if err != nil {
		return nil, err
	}

	s.logf(opt, 1, "miqps: solving %s with %s", p.class(), b)
	s.logf(opt, 2, "miqps: %d variables, %d constraints", p.numVars(), p.numRows())

	res, err := s.adapters[b].solve(p, opt)
	if err != nil {
		return nil, err
	}
	res = assemble(b, p, res)

	// Only the price computation stage sets multipliers of mixed-integer
	// problems.
	if p.mixedInteger() {
		res.Lambda = newLambda(p.numVars(), p.numRows())
		if !opt.SkipPrices && res.ExitFlag == ExitOptimal {
			s.recoverPrices(p, opt, res)
		}
	}

	s.logf(opt, 1, "miqps: %s finished with exit flag %d (%s), f = %g", b, res.ExitFlag, ExitText(res.ExitFlag), res.F)
	if res.Output.Message != "" {
		s.logf(opt, 2, "miqps: %s: %s", b, res.Output.Message)
	}

	return res, nil
}
