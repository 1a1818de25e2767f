package miqps

import (
	"gonum.org/v1/gonum/mat"
)

// OTOptions are passed to the OT engine as given. "Display" ("off", "final"
// or "iter") follows Options.Verbose unless set.
type OTOptions map[string]interface{}

// OTProblem is a problem in the calling convention of the optimization
// toolbox functions linprog, quadprog and intlinprog:
//
//	min  ½ xᵀHx + Fᵀx
//	s.t. Aineq x <= Bineq
//	     Aeq x = Beq
//	     LB <= x <= UB
//	     x[j] integer for j in IntCon
//
// IntCon holds zero-based indices. H, Aineq and Aeq are nil when empty.
type OTProblem struct {
	H       *mat.Dense
	F       []float64
	IntCon  []int
	Aineq   *mat.Dense
	Bineq   []float64
	Aeq     *mat.Dense
	Beq     []float64
	LB, UB  []float64
	X0      []float64
	Options OTOptions
}

// OTLambda holds the toolbox multipliers, all non-negative except Eqlin:
//
//	H x + F + Aineqᵀ Ineqlin + Aeqᵀ Eqlin − Lower + Upper = 0
type OTLambda struct {
	Ineqlin, Eqlin []float64
	Lower, Upper   []float64
}

// OTOutput is the toolbox output record.
type OTOutput struct {
	Iterations  int
	Message     string
	Algorithm   string
	RelativeGap float64
	NumNodes    int
}

// OTSolution is the engine's answer. ExitFlag uses the exit flag values of
// the function that ran. Lambda is nil for intlinprog.
type OTSolution struct {
	X        []float64
	FVal     float64
	ExitFlag int
	Output   OTOutput
	Lambda   *OTLambda
}

// OTEngine provides the three toolbox functions.
type OTEngine interface {
	Linprog(p *OTProblem) (*OTSolution, error)
	Quadprog(p *OTProblem) (*OTSolution, error)
	Intlinprog(p *OTProblem) (*OTSolution, error)
}

// otExit maps toolbox exit flags. For linprog and quadprog:
//
//	1, 0, -2, -3, -5  → unchanged
//	-4, -7, -8        → -4 (numerical)
//	-6 (non-convex)   → -1
//	anything else     → -1
//
// For intlinprog, 2 (stopped with an integer feasible point) and 3 (feasible
// within relaxed tolerances) become 0.
func otExit(flag int, intlinprog bool) int {
	if intlinprog {
		switch flag {
		case 1:
			return ExitOptimal
		case 0, 2, 3:
			return ExitLimit
		case -2:
			return ExitInfeasible
		case -3:
			return ExitUnbounded
		default:
			return ExitFailed
		}
	}
	switch flag {
	case 1, 0, -2, -3, -5:
		return flag
	case -4, -7, -8:
		return ExitNumerical
	default:
		return ExitFailed
	}
}

var otDisplay = [...]string{"off", "final", "iter"}

type otAdapter struct {
	engine OTEngine
}

func (a otAdapter) solve(p *Problem, opt *Options) (*Result, error) {
	if p.hasSemi() {
		return nil, unsupportedf(OT, "semi-continuous and semi-integer variables")
	}
	quadratic, mip := p.quadratic(), p.mixedInteger()
	if quadratic && mip {
		return nil, unsupportedf(OT, "mixed-integer quadratic problems")
	}

	plan := planRows(p.L, p.U)

	options := opt.passthrough(OT)
	setDefault(options, "Display", otDisplay[verbosity(opt)])

	lb, ub := binaryBounds(p.VType, p.XMin, p.XMax)
	prob := &OTProblem{
		H:       dense(p.H, 1),
		F:       p.C,
		Aineq:   stack(p.A, plan.ineq, true),
		Bineq:   rhs(p.L, p.U, plan.ineq, true),
		Aeq:     stack(p.A, plan.eq, false),
		Beq:     rhs(p.L, p.U, plan.eq, false),
		LB:      withInf(lb),
		UB:      withInf(ub),
		X0:      p.X0,
		Options: options,
	}
	for j, t := range p.VType {
		if t != Continuous {
			prob.IntCon = append(prob.IntCon, j)
		}
	}

	var (
		sol *OTSolution
		err error
	)
	switch {
	case quadratic:
		sol, err = a.engine.Quadprog(prob)
	case mip:
		sol, err = a.engine.Intlinprog(prob)
	default:
		sol, err = a.engine.Linprog(prob)
	}
	if err != nil {
		return engineFailure(p, err), nil
	}

	res := newResult(p)
	res.X = sol.X
	res.F = sol.FVal
	res.ExitFlag = otExit(sol.ExitFlag, mip)
	res.Output.NativeCode = sol.ExitFlag
	res.Output.Status = sol.Output.Algorithm
	res.Output.Iterations = sol.Output.Iterations
	res.Output.Nodes = sol.Output.NumNodes
	res.Output.Gap = sol.Output.RelativeGap
	res.Output.Message = sol.Output.Message

	if lam := sol.Lambda; lam != nil {
		rows := make([]float64, p.numRows())
		scatter(rows, plan.eq, lam.Eqlin, false, 1)
		scatter(rows, plan.ineq, lam.Ineqlin, true, 1)
		res.Lambda.setRows(rows)
		res.Lambda.setBounds(diff(lam.Upper, lam.Lower, p.numVars()))
	}

	return res, nil
}
