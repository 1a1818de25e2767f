package miqps

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// infBound is the magnitude from which a bound counts as infinite.
const infBound = 1e10

// eqTol is the largest gap between l and u of an equality row.
const eqTol = 2.220446049250313e-16

func finite(v float64) bool {
	return math.Abs(v) < infBound
}

// withInf copies v with every infinite bound replaced by a true ±Inf.
func withInf(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		switch {
		case finite(x):
			out[i] = x
		case x < 0:
			out[i] = math.Inf(-1)
		default:
			out[i] = math.Inf(1)
		}
	}
	return out
}

type boundKind int

const (
	boundFree boundKind = iota
	boundUpper
	boundLower
	boundFixed
	boundDouble
)

// classify tells which sides of lower <= v <= upper are present.
func classify(lower, upper float64) boundKind {
	switch {
	case !finite(lower) && !finite(upper):
		return boundFree
	case !finite(lower):
		return boundUpper
	case !finite(upper):
		return boundLower
	case math.Abs(upper-lower) <= eqTol:
		return boundFixed
	default:
		return boundDouble
	}
}

/* Row splitting for backends without ranged rows */

type rowSide int

const (
	sideEq rowSide = iota
	sideUpper
	sideLower
)

// nativeRow is one row as passed to a backend: a side of canonical row.
type nativeRow struct {
	row  int
	side rowSide
}

// rowPlan splits l <= A x <= u into equality rows and one-sided rows, in the
// order: upper-only rows, lower-only rows, then the upper and the lower side
// of every double-bounded row. Free rows are dropped.
type rowPlan struct {
	eq   []nativeRow
	ineq []nativeRow
}

func planRows(l, u []float64) rowPlan {
	var plan rowPlan
	var lt, gt, bx []int
	for i := range l {
		switch classify(l[i], u[i]) {
		case boundFixed:
			plan.eq = append(plan.eq, nativeRow{i, sideEq})
		case boundUpper:
			lt = append(lt, i)
		case boundLower:
			gt = append(gt, i)
		case boundDouble:
			bx = append(bx, i)
		}
	}
	for _, i := range lt {
		plan.ineq = append(plan.ineq, nativeRow{i, sideUpper})
	}
	for _, i := range gt {
		plan.ineq = append(plan.ineq, nativeRow{i, sideLower})
	}
	for _, i := range bx {
		plan.ineq = append(plan.ineq, nativeRow{i, sideUpper})
	}
	for _, i := range bx {
		plan.ineq = append(plan.ineq, nativeRow{i, sideLower})
	}
	return plan
}

// stack returns the given rows of a, or nil when there are none. With
// negateLower, lower side rows are negated, turning l <= a x into -a x <= -l.
func stack(a mat.Matrix, rows []nativeRow, negateLower bool) *mat.Dense {
	if len(rows) == 0 {
		return nil
	}
	_, n := a.Dims()
	out := mat.NewDense(len(rows), n, nil)
	for k, r := range rows {
		sign := 1.0
		if negateLower && r.side == sideLower {
			sign = -1
		}
		for j := 0; j < n; j++ {
			if v := a.At(r.row, j); v != 0 {
				out.Set(k, j, sign*v)
			}
		}
	}
	return out
}

// rhs returns the bound of each row: u for equality and upper sides, l (or -l
// with negateLower) for lower sides.
func rhs(l, u []float64, rows []nativeRow, negateLower bool) []float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([]float64, len(rows))
	for k, r := range rows {
		switch {
		case r.side != sideLower:
			out[k] = u[r.row]
		case negateLower:
			out[k] = -l[r.row]
		default:
			out[k] = l[r.row]
		}
	}
	return out
}

// scatter adds scale times the multiplier of each native row to the signed
// multiplier of its canonical row. With negateLower the sign flips for lower
// sides, matching stack.
func scatter(signed []float64, rows []nativeRow, mult []float64, negateLower bool, scale float64) {
	for k, r := range rows {
		if k >= len(mult) {
			return
		}
		s := scale
		if negateLower && r.side == sideLower {
			s = -s
		}
		signed[r.row] += s * mult[k]
	}
}

/* Misc conversions */

// dense copies m into a *mat.Dense scaled by f, or returns nil when m is
// all zero.
func dense(m mat.Matrix, f float64) *mat.Dense {
	if isZero(m) {
		return nil
	}
	out := mat.DenseCopyOf(m)
	if f != 1 {
		out.Scale(f, out)
	}
	return out
}

// binaryBounds copies lb and ub clamping binary variables to [0, 1], for
// backends that only know integer variables.
func binaryBounds(types []VarType, lb, ub []float64) ([]float64, []float64) {
	lo := append([]float64(nil), lb...)
	hi := append([]float64(nil), ub...)
	for j, t := range types {
		if t == Binary {
			lo[j] = math.Max(lo[j], 0)
			hi[j] = math.Min(hi[j], 1)
		}
	}
	return lo, hi
}

func typeString(types []VarType) string {
	b := make([]byte, len(types))
	for i, t := range types {
		b[i] = byte(t)
	}
	return string(b)
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}

// diff returns a - b elementwise; missing elements count as zero.
func diff(a, b []float64, size int) []float64 {
	out := make([]float64, size)
	for i := range out {
		if i < len(a) {
			out[i] += a[i]
		}
		if i < len(b) {
			out[i] -= b[i]
		}
	}
	return out
}
