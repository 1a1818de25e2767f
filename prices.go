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

import "math"

// recoverPrices fixes every non-continuous variable of p at its value in res
// and solves the remaining continuous problem, whose multipliers replace the
// zero multipliers of res. Failures only add warnings to res.
func (s *Solver) recoverPrices(p *Problem, opt *Options, res *Result) {
	fixed := pinned(p, res.X)

	stageOpt := *opt
	stageOpt.Alg = Algorithm{}
	stageOpt.SkipPrices = true

	b, err := s.selectBackend(stageOpt.Alg, fixed)
	if err != nil {
		res.Output.warn("price computation skipped: %v", err)
		return
	}
	s.logf(opt, 2, "miqps: computing prices of fixed %s with %s", fixed.class(), b)

	stage, err := s.adapters[b].solve(fixed, &stageOpt)
	if err != nil {
		res.Output.warn("price computation failed: %v", err)
		return
	}
	stage = assemble(b, fixed, stage)

	out := stage.Output
	res.Output.PriceStage = &out

	if stage.ExitFlag != ExitOptimal {
		res.Output.warn("price computation with %s failed: exit flag %d (%s)", b, stage.ExitFlag, ExitText(stage.ExitFlag))
		return
	}

	tol := opt.warnTol()
	if d := relDiff(stage.F, res.F); d > tol {
		res.Output.warn("price computation objective %g differs from %g (relative difference %g)", stage.F, res.F, d)
	}
	for j := range res.X {
		if d := relDiff(stage.X[j], res.X[j]); d > tol {
			res.Output.warn("price computation solution differs at x[%d]: %g instead of %g", j, stage.X[j], res.X[j])
			break
		}
	}

	s.logf(opt, 2, "miqps: prices computed with %s", b)
	res.Lambda = stage.Lambda
}

// pinned returns the continuous problem with every non-continuous variable
// fixed at its value in x. Integer valued types are rounded first.
func pinned(p *Problem, x []float64) *Problem {
	n := p.numVars()
	fixed := &Problem{
		H:     p.H,
		C:     p.C,
		A:     p.A,
		L:     p.L,
		U:     p.U,
		XMin:  append([]float64(nil), p.XMin...),
		XMax:  append([]float64(nil), p.XMax...),
		X0:    append([]float64(nil), x...),
		VType: broadcast(Continuous, n),
	}
	for j, t := range p.VType {
		switch t {
		case Continuous:
			continue
		case Binary, Integer, SemiInteger:
			fixed.X0[j] = math.Round(fixed.X0[j])
		}
		fixed.XMin[j] = fixed.X0[j]
		fixed.XMax[j] = fixed.X0[j]
	}
	return fixed
}

func relDiff(a, b float64) float64 {
	return math.Abs(a-b) / math.Max(1, math.Abs(b))
}
