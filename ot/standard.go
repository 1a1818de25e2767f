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
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/costela/miqps"
)

// feasTol is the slack allowed when checking bounds and empty rows.
const feasTol = 1e-9

// column is one non-negative variable z of the standard form, standing for
// sign·z in original variable v.
type column struct {
	v    int
	sign float64
}

type rowKind int

const (
	ineqRow    rowKind = iota // Aineq x <= bineq
	eqUpperRow                // Aeq x <= beq
	eqLowerRow                // -Aeq x <= -beq
	boundRow                  // x <= ub, when lb is finite too
)

type rowOrigin struct {
	kind  rowKind
	index int
}

// standardForm is
//
//	min  fᵀx
//	s.t. Aineq x <= bineq
//	     Aeq x = beq
//	     lb <= x <= ub
//
// rewritten as min cᵀz s.t. G z <= h, z >= 0, with x = shift + Σ sign·z.
// Fixed variables only contribute to shift. Rows without any nonzero entry
// and columns without any nonzero entry are removed.
type standardForm struct {
	shift []float64
	cols  []column
	c     []float64
	g     *mat.Dense // nil without rows
	h     []float64
	rows  []rowOrigin
}

func newStandardForm(p *miqps.OTProblem, lb, ub []float64) (*standardForm, error) {
	n := len(p.F)
	sf := &standardForm{shift: make([]float64, n)}

	var cols []column
	for j := 0; j < n; j++ {
		lo, hi := lb[j], ub[j]
		switch {
		case lo > hi+feasTol:
			return nil, lp.ErrInfeasible
		case !math.IsInf(lo, 0) && !math.IsInf(hi, 0) && hi-lo <= feasTol:
			sf.shift[j] = lo
		case !math.IsInf(lo, 0):
			sf.shift[j] = lo
			cols = append(cols, column{j, 1})
		case !math.IsInf(hi, 0):
			sf.shift[j] = hi
			cols = append(cols, column{j, -1})
		default:
			cols = append(cols, column{j, 1}, column{j, -1})
		}
	}

	// rows in terms of x
	var (
		xrows   [][]float64
		rhs     []float64
		origins []rowOrigin
	)
	add := func(a []float64, b float64, o rowOrigin) {
		xrows = append(xrows, a)
		rhs = append(rhs, b)
		origins = append(origins, o)
	}
	if p.Aineq != nil {
		r, _ := p.Aineq.Dims()
		for i := 0; i < r; i++ {
			add(mat.Row(nil, i, p.Aineq), p.Bineq[i], rowOrigin{ineqRow, i})
		}
	}
	if p.Aeq != nil {
		r, _ := p.Aeq.Dims()
		for i := 0; i < r; i++ {
			a := mat.Row(nil, i, p.Aeq)
			add(a, p.Beq[i], rowOrigin{eqUpperRow, i})
			neg := make([]float64, n)
			floats.ScaleTo(neg, -1, a)
			add(neg, -p.Beq[i], rowOrigin{eqLowerRow, i})
		}
	}
	for _, col := range cols {
		j := col.v
		if col.sign > 0 && !math.IsInf(ub[j], 0) {
			a := make([]float64, n)
			a[j] = 1
			add(a, ub[j], rowOrigin{boundRow, j})
		}
	}

	// rows in terms of z, dropping empty ones
	var (
		zrows [][]float64
		used  = make([]bool, len(cols))
	)
	for r, a := range xrows {
		z := make([]float64, len(cols))
		empty := true
		for k, col := range cols {
			if v := col.sign * a[col.v]; v != 0 {
				z[k] = v
				used[k] = true
				empty = false
			}
		}
		h := rhs[r] - floats.Dot(a, sf.shift)
		if empty {
			if h < -feasTol {
				return nil, lp.ErrInfeasible
			}
			continue
		}
		zrows = append(zrows, z)
		sf.h = append(sf.h, h)
		sf.rows = append(sf.rows, origins[r])
	}

	// columns without rows stay at zero unless they improve the objective
	var keep []int
	for k, col := range cols {
		cost := col.sign * p.F[col.v]
		if !used[k] {
			if cost < 0 {
				return nil, lp.ErrUnbounded
			}
			continue
		}
		keep = append(keep, k)
		sf.cols = append(sf.cols, col)
		sf.c = append(sf.c, cost)
	}

	if len(zrows) > 0 {
		sf.g = mat.NewDense(len(zrows), len(keep), nil)
		for i, z := range zrows {
			for k, from := range keep {
				sf.g.Set(i, k, z[from])
			}
		}
	}

	return sf, nil
}

// solve returns the optimal x.
func (sf *standardForm) solve(tol float64) ([]float64, error) {
	x := append([]float64(nil), sf.shift...)
	if sf.g == nil {
		return x, nil
	}

	// [G I] [z; s] = h
	m, k := sf.g.Dims()
	a := mat.NewDense(m, k+m, nil)
	a.Slice(0, m, 0, k).(*mat.Dense).Copy(sf.g)
	for i := 0; i < m; i++ {
		a.Set(i, k+i, 1)
	}
	c := make([]float64, k+m)
	copy(c, sf.c)

	_, z, err := lp.Simplex(c, a, sf.h, tol, nil)
	if err != nil {
		return nil, err
	}
	for i, col := range sf.cols {
		x[col.v] += col.sign * z[i]
	}
	return x, nil
}

// duals returns the multiplier of every row of G by solving the dual
//
//	min hᵀμ  s.t.  -Gᵀμ <= c,  μ >= 0
func (sf *standardForm) duals(tol float64) ([]float64, error) {
	if sf.g == nil {
		return nil, nil
	}

	m, k := sf.g.Dims()
	a := mat.NewDense(k, m+k, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < k; j++ {
			a.Set(j, i, -sf.g.At(i, j))
		}
	}
	for j := 0; j < k; j++ {
		a.Set(j, m+j, 1)
	}
	c := make([]float64, m+k)
	copy(c, sf.h)

	_, y, err := lp.Simplex(c, a, sf.c, tol, nil)
	if err != nil {
		return nil, err
	}
	return y[:m], nil
}

// lambda maps row multipliers back onto the toolbox multipliers of p. Bound
// multipliers are the reduced costs fᵀ + Aineqᵀ ineqlin + Aeqᵀ eqlin, on the
// side of their sign.
func (sf *standardForm) lambda(p *miqps.OTProblem, lb, ub, mu []float64) *miqps.OTLambda {
	n := len(p.F)
	lam := &miqps.OTLambda{
		Ineqlin: make([]float64, len(p.Bineq)),
		Eqlin:   make([]float64, len(p.Beq)),
		Lower:   make([]float64, n),
		Upper:   make([]float64, n),
	}
	for r, o := range sf.rows {
		switch o.kind {
		case ineqRow:
			lam.Ineqlin[o.index] = mu[r]
		case eqUpperRow:
			lam.Eqlin[o.index] += mu[r]
		case eqLowerRow:
			lam.Eqlin[o.index] -= mu[r]
		}
	}

	reduced := mat.NewVecDense(n, append([]float64(nil), p.F...))
	if p.Aineq != nil && len(lam.Ineqlin) > 0 {
		reduced.AddVec(reduced, mulTrans(p.Aineq, lam.Ineqlin))
	}
	if p.Aeq != nil && len(lam.Eqlin) > 0 {
		reduced.AddVec(reduced, mulTrans(p.Aeq, lam.Eqlin))
	}
	for j := 0; j < n; j++ {
		switch r := reduced.AtVec(j); {
		case r > 0 && !math.IsInf(lb[j], 0):
			lam.Lower[j] = r
		case r < 0 && !math.IsInf(ub[j], 0):
			lam.Upper[j] = -r
		}
	}

	return lam
}

func mulTrans(a mat.Matrix, v []float64) *mat.VecDense {
	_, n := a.Dims()
	out := mat.NewVecDense(n, nil)
	out.MulVec(a.T(), mat.NewVecDense(len(v), v))
	return out
}
