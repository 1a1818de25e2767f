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

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/costela/miqps"
)

// quadprog exit flags
const (
	exitNonConvex = -6
	exitNoStep    = -8
)

const (
	qpTol   = 1e-9 // step, multiplier and blocking tolerance, relative
	curvTol = 1e-9 // smallest eigenvalue of H allowed, relative to its norm
)

var errIterations = errors.New("iteration limit reached")

type qpKind int

const (
	qpIneq  qpKind = iota // Aineq x <= bineq
	qpEq                  // Aeq x = beq
	qpLower               // -x <= -lb
	qpUpper               // x <= ub
	qpFixed               // x = lb = ub
)

// qpRow is aᵀx <= b, or aᵀx = b for the equality kinds.
type qpRow struct {
	a     []float64
	b     float64
	kind  qpKind
	index int
}

func (r qpRow) equality() bool {
	return r.kind == qpEq || r.kind == qpFixed
}

/* Quadratic problems */

// Quadprog solves the convex quadratic problem p with a primal active-set
// method. It starts from X0 when X0 is feasible and from a point found by the
// simplex otherwise. An all-zero H is solved by Linprog. IntCon is ignored.
func (e *Engine) Quadprog(p *miqps.OTProblem) (*miqps.OTSolution, error) {
	lb, ub, err := check(p)
	if err != nil {
		return nil, err
	}
	n := len(p.F)
	if p.H == nil {
		return e.Linprog(p)
	}
	if r, c := p.H.Dims(); r != n || c != n {
		return nil, errors.Errorf("ot: H is %dx%d, expected %dx%d", r, c, n, n)
	}
	if mat.Norm(p.H, 1) == 0 {
		return e.Linprog(p)
	}
	s := e.settings(p.Options)

	sol := &miqps.OTSolution{
		Output: miqps.OTOutput{Algorithm: "active-set"},
	}
	stop := func(flag int, msg string) (*miqps.OTSolution, error) {
		sol.ExitFlag = flag
		sol.Output.Message = msg
		e.logf(s, false, "ot: quadprog: %s", msg)
		return sol, nil
	}

	h := symmetric(p.H)
	if !convex(h) {
		return stop(exitNonConvex, "non-convex problem detected")
	}

	qs := newActiveSet(h, p, lb, ub)

	var x []float64
	if len(p.X0) == n && qs.satisfied(p.X0) {
		x = append([]float64(nil), p.X0...)
	} else {
		if x, err = feasible(p, lb, ub, s.tol); err != nil {
			return stop(exitFlag(err), err.Error())
		}
		sol.Output.Iterations++
	}

	limit := s.maxIter
	if limit == 0 {
		limit = 10*(n+len(qs.rows)) + 100
	}
	mu, iters, err := qs.run(x, limit, func(k int, f float64) {
		e.logf(s, true, "ot: quadprog: iteration %d, f = %g, %d active", k, f, len(qs.work))
	})
	sol.Output.Iterations += iters
	switch {
	case err == errIterations:
		sol.X = x
		sol.FVal = qs.objective(x)
		return stop(exitLimit, err.Error())
	case err != nil:
		return stop(exitNoStep, err.Error())
	}

	sol.X = x
	sol.FVal = qs.objective(x)
	sol.ExitFlag = exitOptimal
	sol.Output.Message = "optimal solution found"
	sol.Lambda = qs.lambda(p, mu)

	e.logf(s, false, "ot: quadprog: f = %g", sol.FVal)

	return sol, nil
}

// symmetric returns (A + Aᵀ)/2.
func symmetric(a mat.Matrix) *mat.SymDense {
	n, _ := a.Dims()
	h := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			h.SetSym(i, j, (a.At(i, j)+a.At(j, i))/2)
		}
	}
	return h
}

func convex(h *mat.SymDense) bool {
	var eig mat.EigenSym
	if !eig.Factorize(h, false) {
		return false
	}
	scale := math.Max(1, mat.Norm(h, 1))
	return floats.Min(eig.Values(nil)) >= -curvTol*scale
}

// feasible returns a point satisfying the constraints of p, found by the
// simplex with a zero objective.
func feasible(p *miqps.OTProblem, lb, ub []float64, tol float64) ([]float64, error) {
	phase1 := *p
	phase1.H = nil
	phase1.F = make([]float64, len(p.F))

	sf, err := newStandardForm(&phase1, lb, ub)
	if err != nil {
		return nil, err
	}
	return sf.solve(tol)
}

/* Active set */

type activeSet struct {
	h    *mat.SymDense
	f    []float64
	rows []qpRow
	work []int // indices into rows
	in   []bool
}

func newActiveSet(h *mat.SymDense, p *miqps.OTProblem, lb, ub []float64) *activeSet {
	n := len(p.F)
	qs := &activeSet{h: h, f: p.F}

	unit := func(j int, v float64) []float64 {
		a := make([]float64, n)
		a[j] = v
		return a
	}
	if p.Aeq != nil {
		r, _ := p.Aeq.Dims()
		for i := 0; i < r; i++ {
			qs.rows = append(qs.rows, qpRow{mat.Row(nil, i, p.Aeq), p.Beq[i], qpEq, i})
		}
	}
	for j := 0; j < n; j++ {
		lo, hi := lb[j], ub[j]
		if !math.IsInf(lo, 0) && !math.IsInf(hi, 0) && math.Abs(hi-lo) <= feasTol {
			qs.rows = append(qs.rows, qpRow{unit(j, 1), lo, qpFixed, j})
			continue
		}
		if !math.IsInf(lo, 0) {
			qs.rows = append(qs.rows, qpRow{unit(j, -1), -lo, qpLower, j})
		}
		if !math.IsInf(hi, 0) {
			qs.rows = append(qs.rows, qpRow{unit(j, 1), hi, qpUpper, j})
		}
	}
	if p.Aineq != nil {
		r, _ := p.Aineq.Dims()
		for i := 0; i < r; i++ {
			qs.rows = append(qs.rows, qpRow{mat.Row(nil, i, p.Aineq), p.Bineq[i], qpIneq, i})
		}
	}
	qs.in = make([]bool, len(qs.rows))

	// equality rows depending on earlier ones stay out of the working set,
	// any feasible point satisfies them
	var basis [][]float64
	for i, r := range qs.rows {
		if !r.equality() {
			continue
		}
		v := append([]float64(nil), r.a...)
		for _, q := range basis {
			floats.AddScaled(v, -floats.Dot(v, q), q)
		}
		norm := floats.Norm(v, 2)
		if norm <= qpTol*math.Max(1, floats.Norm(r.a, 2)) {
			continue
		}
		floats.Scale(1/norm, v)
		basis = append(basis, v)
		qs.add(i)
	}

	return qs
}

func (qs *activeSet) add(i int) {
	qs.work = append(qs.work, i)
	qs.in[i] = true
}

func (qs *activeSet) remove(w int) {
	qs.in[qs.work[w]] = false
	qs.work = append(qs.work[:w], qs.work[w+1:]...)
}

func (qs *activeSet) satisfied(x []float64) bool {
	for _, r := range qs.rows {
		v := floats.Dot(r.a, x) - r.b
		if v > feasTol || (r.equality() && v < -feasTol) {
			return false
		}
	}
	return true
}

func (qs *activeSet) objective(x []float64) float64 {
	v := mat.NewVecDense(len(x), x)
	return 0.5*mat.Inner(v, qs.h, v) + floats.Dot(qs.f, x)
}

func (qs *activeSet) gradient(dst, x []float64) {
	g := mat.NewVecDense(len(dst), dst)
	g.MulVec(qs.h, mat.NewVecDense(len(x), x))
	floats.Add(dst, qs.f)
}

// step solves the problem restricted to the working set,
//
//	[H  Awᵀ] [p]   [-g]
//	[Aw  0 ] [μ] = [ 0]
func (qs *activeSet) step(g []float64) (p, mu []float64, err error) {
	n, k := len(g), len(qs.work)

	kkt := mat.NewDense(n+k, n+k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			kkt.Set(i, j, qs.h.At(i, j))
		}
	}
	for w, i := range qs.work {
		for j, v := range qs.rows[i].a {
			kkt.Set(n+w, j, v)
			kkt.Set(j, n+w, v)
		}
	}
	b := mat.NewVecDense(n+k, nil)
	for j, v := range g {
		b.SetVec(j, -v)
	}

	var z mat.VecDense
	if err := z.SolveVec(kkt, b); err != nil {
		return nil, nil, errors.Wrap(err, "unable to compute a step")
	}
	out := make([]float64, n+k)
	for i := range out {
		out[i] = z.AtVec(i)
	}
	return out[:n], out[n:], nil
}

// run moves x to the optimum and returns the multipliers of the working set.
func (qs *activeSet) run(x []float64, limit int, trace func(k int, f float64)) (mu []float64, iters int, err error) {
	g := make([]float64, len(x))
	for iters = 1; iters <= limit; iters++ {
		qs.gradient(g, x)
		p, m, err := qs.step(g)
		if err != nil {
			return nil, iters, err
		}

		if floats.Norm(p, math.Inf(1)) <= qpTol*(1+floats.Norm(x, math.Inf(1))) {
			drop, least := -1, -qpTol*(1+floats.Norm(g, math.Inf(1)))
			for w, i := range qs.work {
				if !qs.rows[i].equality() && m[w] < least {
					drop, least = w, m[w]
				}
			}
			if drop < 0 {
				return m, iters, nil
			}
			qs.remove(drop)
			continue
		}

		alpha, block := 1.0, -1
		pnorm := floats.Norm(p, 2)
		for i, r := range qs.rows {
			if qs.in[i] || r.equality() {
				continue
			}
			ap := floats.Dot(r.a, p)
			if ap <= qpTol*pnorm*floats.Norm(r.a, 2) {
				continue
			}
			if t := (r.b - floats.Dot(r.a, x)) / ap; t < alpha {
				alpha, block = math.Max(t, 0), i
			}
		}
		floats.AddScaled(x, alpha, p)
		if block >= 0 {
			qs.add(block)
		}
		trace(iters, qs.objective(x))
	}
	return nil, limit, errIterations
}

// lambda maps the working set multipliers mu onto the toolbox multipliers.
// Rows outside the working set have zero multipliers.
func (qs *activeSet) lambda(p *miqps.OTProblem, mu []float64) *miqps.OTLambda {
	n := len(p.F)
	lam := &miqps.OTLambda{
		Ineqlin: make([]float64, len(p.Bineq)),
		Eqlin:   make([]float64, len(p.Beq)),
		Lower:   make([]float64, n),
		Upper:   make([]float64, n),
	}
	for w, i := range qs.work {
		r, v := qs.rows[i], mu[w]
		switch r.kind {
		case qpIneq:
			lam.Ineqlin[r.index] = math.Max(v, 0)
		case qpEq:
			lam.Eqlin[r.index] = v
		case qpLower:
			lam.Lower[r.index] = math.Max(v, 0)
		case qpUpper:
			lam.Upper[r.index] = math.Max(v, 0)
		case qpFixed:
			if v > 0 {
				lam.Upper[r.index] = v
			} else {
				lam.Lower[r.index] = -v
			}
		}
	}
	return lam
}
