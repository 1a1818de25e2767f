package miqps

import (
	"strings"

	"gonum.org/v1/gonum/mat"
)

// MosekBound is a MOSEK bound key.
type MosekBound int

const (
	MosekFR MosekBound = iota // free
	MosekLO                   // lower bounded
	MosekUP                   // upper bounded
	MosekFX                   // fixed
	MosekRA                   // ranged
)

func (k MosekBound) String() string {
	switch k {
	case MosekFR:
		return "fr"
	case MosekLO:
		return "lo"
	case MosekUP:
		return "up"
	case MosekFX:
		return "fx"
	default:
		return "ra"
	}
}

// MosekParams are passed to the MOSEK engine as given. "verbose" follows
// Options.Verbose unless set.
type MosekParams map[string]interface{}

// MosekTask is a problem in MOSEK's task form:
//
//	min  ½ xᵀQx + Cᵀx
//	s.t. BLC <= A x <= BUC  keyed by BKC
//	     BLX <= x <= BUX    keyed by BKX
//	     x[j] integer for j in IntSub
//
// Q is given by its lower triangle in QSubI/QSubJ/QVal. Bounds a key marks
// absent hold ∓Inf.
type MosekTask struct {
	C            []float64
	QSubI, QSubJ []int
	QVal         []float64
	A            *mat.Dense
	BKC          []MosekBound
	BLC, BUC     []float64
	BKX          []MosekBound
	BLX, BUX     []float64
	IntSub       []int
	Params       MosekParams
}

// MosekSolution is the engine's answer for the solution MOSEK deems best:
// the integer solution of a mixed-integer problem, else the basic or
// interior one. The dual vectors are nil when there are none.
type MosekSolution struct {
	RCode      string // "MSK_RES_OK", ...
	RMsg       string
	ProSta     string // "PRIMAL_AND_DUAL_FEASIBLE", ...
	SolSta     string // "OPTIMAL", "INTEGER_OPTIMAL", ...
	XX         []float64
	PObj       float64
	SLC, SUC   []float64
	SLX, SUX   []float64
	Iterations int
}

// MosekEngine runs one MOSEK optimization.
type MosekEngine interface {
	Optimize(t *MosekTask) (*MosekSolution, error)
}

// mosekExit maps MOSEK's response code and solution status:
//
//	OPTIMAL, INTEGER_OPTIMAL        →  1
//	NEAR_OPTIMAL and the like       →  0
//	PRIM_INFEAS_CER                 → -2
//	DUAL_INFEAS_CER                 → -3
//	stopped at a limit (rcode)      →  0
//	any other non-OK response code  → -1
func mosekExit(rcode, solsta string) int {
	switch solsta {
	case "OPTIMAL", "INTEGER_OPTIMAL":
		return ExitOptimal
	case "PRIM_INFEAS_CER":
		return ExitInfeasible
	case "DUAL_INFEAS_CER":
		return ExitUnbounded
	}
	if strings.HasPrefix(solsta, "NEAR_") {
		return ExitLimit
	}
	if strings.HasPrefix(rcode, "MSK_RES_TRM_") {
		return ExitLimit
	}
	return ExitFailed
}

type mosekAdapter struct {
	engine MosekEngine
}

func (a mosekAdapter) solve(p *Problem, opt *Options) (*Result, error) {
	if p.hasSemi() {
		return nil, unsupportedf(Mosek, "semi-continuous and semi-integer variables")
	}

	params := opt.passthrough(Mosek)
	setDefault(params, "verbose", verbosity(opt))

	task := &MosekTask{
		C:      p.C,
		A:      mat.DenseCopyOf(p.A),
		Params: params,
	}
	task.QSubI, task.QSubJ, task.QVal = lowerTriangle(p.H)
	task.BKC, task.BLC, task.BUC = mosekBounds(p.L, p.U)
	task.BKX, task.BLX, task.BUX = mosekBounds(binaryBounds(p.VType, p.XMin, p.XMax))
	for j, t := range p.VType {
		if t != Continuous {
			task.IntSub = append(task.IntSub, j)
		}
	}

	sol, err := a.engine.Optimize(task)
	if err != nil {
		return engineFailure(p, err), nil
	}

	res := newResult(p)
	res.X = sol.XX
	res.F = sol.PObj
	res.ExitFlag = mosekExit(sol.RCode, sol.SolSta)
	res.Output.Status = sol.SolSta
	res.Output.Iterations = sol.Iterations
	res.Output.Message = sol.RMsg
	res.Output.Native = map[string]interface{}{
		"rcode":  sol.RCode,
		"prosta": sol.ProSta,
	}

	if sol.SLC != nil || sol.SUC != nil {
		res.Lambda.setRows(diff(sol.SUC, sol.SLC, p.numRows()))
	}
	if sol.SLX != nil || sol.SUX != nil {
		res.Lambda.setBounds(diff(sol.SUX, sol.SLX, p.numVars()))
	}

	return res, nil
}

func mosekBounds(lower, upper []float64) (keys []MosekBound, lo, hi []float64) {
	keys = make([]MosekBound, len(lower))
	lo, hi = withInf(lower), withInf(upper)
	for i := range lower {
		switch classify(lower[i], upper[i]) {
		case boundFree:
			keys[i] = MosekFR
		case boundUpper:
			keys[i] = MosekUP
		case boundLower:
			keys[i] = MosekLO
		case boundFixed:
			keys[i] = MosekFX
		default:
			keys[i] = MosekRA
		}
	}
	return
}

// lowerTriangle lists the nonzero entries of the lower triangle of h.
func lowerTriangle(h mat.Matrix) (subi, subj []int, val []float64) {
	if h == nil {
		return
	}
	n, _ := h.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			if v := h.At(i, j); v != 0 {
				subi = append(subi, i)
				subj = append(subj, j)
				val = append(val, v)
			}
		}
	}
	return
}
