package miqps

import (
	"gonum.org/v1/gonum/mat"
)

// GurobiParams are passed to the Gurobi engine as given. "OutputFlag"
// follows Options.Verbose unless set.
type GurobiParams map[string]interface{}

// GurobiModel is a problem in the form of Gurobi's matrix interface:
//
//	min  xᵀQx + Objᵀx
//	s.t. A x (Sense) RHS
//	     LB <= x <= UB
//
// Sense holds '=', '<' or '>' per row, VType one of 'C', 'B', 'I', 'S' or
// 'N' per variable. Q is nil for linear problems.
type GurobiModel struct {
	Q      *mat.Dense
	Obj    []float64
	A      *mat.Dense
	Sense  string
	RHS    []float64
	LB, UB []float64
	VType  string
	Start  []float64
	Params GurobiParams
}

// GurobiSolution is the engine's answer. Pi and RC are nil when Gurobi
// reports no duals, as for mixed-integer problems.
type GurobiSolution struct {
	Status    string // "OPTIMAL", "INFEASIBLE", ...
	X         []float64
	ObjVal    float64
	Pi        []float64
	RC        []float64
	IterCount int
	NodeCount int
	MIPGap    float64
}

// GurobiEngine runs one Gurobi optimization.
type GurobiEngine interface {
	Optimize(m *GurobiModel) (*GurobiSolution, error)
}

// gurobiExit maps Gurobi's status strings:
//
//	OPTIMAL                         →  1
//	SUBOPTIMAL, any limit, stopped  →  0
//	INFEASIBLE                      → -2
//	UNBOUNDED                       → -3
//	NUMERIC                         → -4
//	INF_OR_UNBD                     → -5
//	anything else                   → -1
func gurobiExit(status string) int {
	switch status {
	case "OPTIMAL":
		return ExitOptimal
	case "SUBOPTIMAL", "ITERATION_LIMIT", "NODE_LIMIT", "TIME_LIMIT", "SOLUTION_LIMIT",
		"INTERRUPTED", "WORK_LIMIT", "CUTOFF", "USER_OBJ_LIMIT", "MEM_LIMIT":
		return ExitLimit
	case "INFEASIBLE":
		return ExitInfeasible
	case "UNBOUNDED":
		return ExitUnbounded
	case "NUMERIC":
		return ExitNumerical
	case "INF_OR_UNBD":
		return ExitInfeasibleOrUnbd
	default:
		return ExitFailed
	}
}

type gurobiAdapter struct {
	engine GurobiEngine
}

func (a gurobiAdapter) solve(p *Problem, opt *Options) (*Result, error) {
	plan := planRows(p.L, p.U)
	rows := append(append([]nativeRow(nil), plan.eq...), plan.ineq...)

	params := opt.passthrough(Gurobi)
	outputFlag := 0
	if opt.Verbose > 0 {
		outputFlag = 1
	}
	setDefault(params, "OutputFlag", outputFlag)

	sense := make([]byte, len(rows))
	for k, r := range rows {
		switch r.side {
		case sideEq:
			sense[k] = '='
		case sideUpper:
			sense[k] = '<'
		default:
			sense[k] = '>'
		}
	}

	model := &GurobiModel{
		Q:      dense(p.H, 0.5),
		Obj:    p.C,
		A:      stack(p.A, rows, false),
		Sense:  string(sense),
		RHS:    rhs(p.L, p.U, rows, false),
		LB:     withInf(p.XMin),
		UB:     withInf(p.XMax),
		VType:  typeString(p.VType),
		Start:  p.X0,
		Params: params,
	}

	sol, err := a.engine.Optimize(model)
	if err != nil {
		return engineFailure(p, err), nil
	}

	res := newResult(p)
	res.X = sol.X
	res.F = sol.ObjVal
	res.ExitFlag = gurobiExit(sol.Status)
	res.Output.Status = sol.Status
	res.Output.Iterations = sol.IterCount
	res.Output.Nodes = sol.NodeCount
	res.Output.Gap = sol.MIPGap

	// Gurobi duals are ∂f/∂RHS, negative when a '<' row binds.
	if sol.Pi != nil {
		signed := make([]float64, p.numRows())
		scatter(signed, rows, sol.Pi, false, -1)
		res.Lambda.setRows(signed)
	}
	if sol.RC != nil {
		res.Lambda.setBounds(negate(resize(sol.RC, p.numVars())))
	}

	return res, nil
}
