package miqps

import (
	"gonum.org/v1/gonum/mat"
)

// CPLEXParams are passed to the CPLEX engine as given. The "display" entry
// ("off", "on" or "iter") follows Options.Verbose unless set.
type CPLEXParams map[string]interface{}

// CPLEXModel is a problem in the calling convention of cplexmiqp:
//
//	min  ½ xᵀHx + Fᵀx
//	s.t. Aineq x <= Bineq
//	     Aeq x = Beq
//	     LB <= x <= UB
//
// CType holds one of 'C', 'B', 'I', 'S' or 'N' per variable. H, Aineq and Aeq
// are nil when empty.
type CPLEXModel struct {
	H      *mat.Dense
	F      []float64
	Aineq  *mat.Dense
	Bineq  []float64
	Aeq    *mat.Dense
	Beq    []float64
	LB, UB []float64
	CType  string
	X0     []float64
	Params CPLEXParams
}

// CPLEXLambda holds the multipliers reported by CPLEX. CPLEX reports them
// with the opposite sign of the toolbox convention.
type CPLEXLambda struct {
	Ineqlin, Eqlin []float64
	Lower, Upper   []float64
}

// CPLEXSolution is the engine's answer. Lambda is nil when CPLEX reports no
// multipliers, as for mixed-integer problems.
type CPLEXSolution struct {
	X          []float64
	F          float64
	Status     int // CPX_STAT_* or CPXMIP_* solution status
	Iterations int
	Nodes      int
	Gap        float64
	Message    string
	Lambda     *CPLEXLambda
}

// CPLEXEngine runs one CPLEX optimization.
type CPLEXEngine interface {
	Solve(m *CPLEXModel) (*CPLEXSolution, error)
}

// CPLEX solution status codes.
const (
	CPXStatOptimal       = 1
	CPXStatUnbounded     = 2
	CPXStatInfeasible    = 3
	CPXStatInfOrUnbd     = 4
	CPXStatOptimalInfeas = 5
	CPXStatNumBest       = 6
	CPXStatAbortItLim    = 10
	CPXStatAbortTimeLim  = 11
	CPXStatAbortObjLim   = 12
	CPXStatAbortUser     = 13
	CPXMIPOptimal        = 101
	CPXMIPOptimalTol     = 102
	CPXMIPInfeasible     = 103
	CPXMIPSolLim         = 104
	CPXMIPNodeLimFeas    = 105
	CPXMIPNodeLimInfeas  = 106
	CPXMIPTimeLimFeas    = 107
	CPXMIPTimeLimInfeas  = 108
	CPXMIPFailFeas       = 109
	CPXMIPFailInfeas     = 110
	CPXMIPAbortFeas      = 113
	CPXMIPAbortInfeas    = 114
	CPXMIPOptimalInfeas  = 115
	CPXMIPUnbounded      = 118
	CPXMIPInfOrUnbd      = 119
)

// cplexExit maps CPLEX solution status codes:
//
//	optimal, optimal within tolerance             →  1
//	iteration/time/node/solution limit, aborted   →  0
//	infeasible                                    → -2
//	unbounded                                     → -3
//	optimal with infeasibilities, numerical best  → -4
//	infeasible or unbounded                       → -5
//	anything else                                 → -1
func cplexExit(status int) int {
	switch status {
	case CPXStatOptimal, CPXMIPOptimal, CPXMIPOptimalTol:
		return ExitOptimal
	case CPXStatAbortItLim, CPXStatAbortTimeLim, CPXStatAbortObjLim, CPXStatAbortUser,
		CPXMIPSolLim, CPXMIPNodeLimFeas, CPXMIPNodeLimInfeas, CPXMIPTimeLimFeas,
		CPXMIPTimeLimInfeas, CPXMIPAbortFeas, CPXMIPAbortInfeas:
		return ExitLimit
	case CPXStatInfeasible, CPXMIPInfeasible:
		return ExitInfeasible
	case CPXStatUnbounded, CPXMIPUnbounded:
		return ExitUnbounded
	case CPXStatOptimalInfeas, CPXStatNumBest, CPXMIPOptimalInfeas:
		return ExitNumerical
	case CPXStatInfOrUnbd, CPXMIPInfOrUnbd:
		return ExitInfeasibleOrUnbd
	default:
		return ExitFailed
	}
}

var cplexDisplay = [...]string{"off", "on", "iter"}

type cplexAdapter struct {
	engine CPLEXEngine
}

func (a cplexAdapter) solve(p *Problem, opt *Options) (*Result, error) {
	plan := planRows(p.L, p.U)

	params := opt.passthrough(CPLEX)
	setDefault(params, "display", cplexDisplay[verbosity(opt)])

	model := &CPLEXModel{
		H:      dense(p.H, 1),
		F:      p.C,
		Aineq:  stack(p.A, plan.ineq, true),
		Bineq:  rhs(p.L, p.U, plan.ineq, true),
		Aeq:    stack(p.A, plan.eq, false),
		Beq:    rhs(p.L, p.U, plan.eq, false),
		LB:     withInf(p.XMin),
		UB:     withInf(p.XMax),
		CType:  typeString(p.VType),
		X0:     p.X0,
		Params: params,
	}

	sol, err := a.engine.Solve(model)
	if err != nil {
		return engineFailure(p, err), nil
	}

	res := newResult(p)
	res.X = sol.X
	res.F = sol.F
	res.ExitFlag = cplexExit(sol.Status)
	res.Output.NativeCode = sol.Status
	res.Output.Status = ExitText(res.ExitFlag)
	res.Output.Iterations = sol.Iterations
	res.Output.Nodes = sol.Nodes
	res.Output.Gap = sol.Gap
	res.Output.Message = sol.Message

	if lam := sol.Lambda; lam != nil {
		rows := make([]float64, p.numRows())
		scatter(rows, plan.eq, lam.Eqlin, false, -1)
		scatter(rows, plan.ineq, lam.Ineqlin, true, -1)
		res.Lambda.setRows(rows)
		res.Lambda.setBounds(diff(lam.Lower, lam.Upper, p.numVars()))
	}

	return res, nil
}

// verbosity clamps Options.Verbose to 0..2.
func verbosity(opt *Options) int {
	switch {
	case opt.Verbose < 0:
		return 0
	case opt.Verbose > 2:
		return 2
	default:
		return opt.Verbose
	}
}
