package miqps

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// portfolio is a small quadratic problem with an equality row, a lower-only
// row and non-negative variables. Its solution is x = [0, 2.8, 0.2, 0]/3.
func portfolio() Problem {
	return Problem{
		H: mat.NewDense(4, 4, []float64{
			1003.1, 4.3, 6.3, 5.9,
			4.3, 2.2, 2.1, 3.9,
			6.3, 2.1, 3.5, 4.8,
			5.9, 3.9, 4.8, 10,
		}),
		C: []float64{0, 0, 0, 0},
		A: mat.NewDense(2, 4, []float64{
			1, 1, 1, 1,
			0.17, 0.11, 0.10, 0.18,
		}),
		L:    []float64{1, 0.10},
		U:    []float64{1, math.Inf(1)},
		XMin: []float64{0, 0, 0, 0},
		X0:   []float64{1, 0, 0, 1},
	}
}

var portfolioX = []float64{0, 2.8 / 3, 0.2 / 3, 0}

// rows is a linear problem with every kind of row: l <= x1 + x2 (row 0),
// x1 - x2 <= u (row 1), a ranged row (row 2), an equality (row 3) and a free
// row (row 4).
func rows() Problem {
	return Problem{
		C: []float64{1, 2},
		A: mat.NewDense(5, 2, []float64{
			1, 1,
			1, -1,
			2, 1,
			1, 0,
			0, 1,
		}),
		L:    []float64{1, math.Inf(-1), -3, 2, math.Inf(-1)},
		U:    []float64{math.Inf(1), 4, 5, 2, 1e10},
		XMin: []float64{0, math.Inf(-1)},
		XMax: []float64{10, 1e20},
	}
}

func TestCPLEXTranslation(t *testing.T) {
	engine := &fakeCPLEX{sol: CPLEXSolution{
		X:      portfolioX,
		F:      3.29 / 3,
		Status: CPXStatOptimal,
		Lambda: &CPLEXLambda{
			Eqlin:   []float64{6.58 / 3},
			Ineqlin: []float64{0},
			Lower:   []float64{-2.24, 0, 0, -1.76666666666667},
			Upper:   []float64{0, 0, 0, 0},
		},
	}}
	s, err := NewSolver(WithCPLEX(engine))
	require.NoError(t, err)

	res, err := s.Solve(portfolio(), Options{})
	require.NoError(t, err)
	require.Len(t, engine.calls, 1)

	model := engine.calls[0]
	assert.Equal(t, []float64{1, 1, 1, 1}, model.Aeq.RawRowView(0))
	assert.Equal(t, []float64{1}, model.Beq)
	assert.Equal(t, []float64{-0.17, -0.11, -0.10, -0.18}, model.Aineq.RawRowView(0))
	assert.Equal(t, []float64{-0.10}, model.Bineq)
	assert.Equal(t, []float64{0, 0, 0, 0}, model.LB)
	assert.True(t, math.IsInf(model.UB[0], 1))
	assert.Equal(t, "CCCC", model.CType)
	assert.Equal(t, []float64{1, 0, 0, 1}, model.X0)
	assert.Equal(t, 1003.1, model.H.At(0, 0))
	assert.Equal(t, "off", model.Params["display"])

	assert.Equal(t, ExitOptimal, res.ExitFlag)
	assert.Equal(t, CPLEX, res.Output.Alg)
	assert.InDelta(t, 3.29/3, res.F, delta)
	assert.InDeltaSlice(t, portfolioX, res.X, delta)

	assert.InDeltaSlice(t, []float64{6.58 / 3, 0}, res.Lambda.MuL, delta)
	assert.InDeltaSlice(t, []float64{0, 0}, res.Lambda.MuU, delta)
	assert.InDeltaSlice(t, []float64{2.24, 0, 0, 1.76666666666667}, res.Lambda.Lower, delta)
	assert.InDeltaSlice(t, []float64{0, 0, 0, 0}, res.Lambda.Upper, delta)
}

func TestCPLEXRowSplitting(t *testing.T) {
	engine := &fakeCPLEX{sol: CPLEXSolution{
		Status: CPXStatOptimal,
		Lambda: &CPLEXLambda{
			// ineq rows: row 1 upper, row 0 lower, row 2 upper, row 2 lower
			Ineqlin: []float64{-1, -2, -3, -4},
			Eqlin:   []float64{5},
		},
	}}
	s, err := NewSolver(WithCPLEX(engine))
	require.NoError(t, err)

	res, err := s.Solve(rows(), Options{Verbose: 2})
	require.NoError(t, err)

	model := engine.calls[0]
	r, _ := model.Aineq.Dims()
	require.Equal(t, 4, r)
	assert.Equal(t, []float64{1, -1}, model.Aineq.RawRowView(0))
	assert.Equal(t, []float64{-1, -1}, model.Aineq.RawRowView(1))
	assert.Equal(t, []float64{2, 1}, model.Aineq.RawRowView(2))
	assert.Equal(t, []float64{-2, -1}, model.Aineq.RawRowView(3))
	assert.Equal(t, []float64{4, -1, 5, 3}, model.Bineq)
	assert.Equal(t, []float64{1, 0}, model.Aeq.RawRowView(0))
	assert.Equal(t, []float64{2}, model.Beq)
	assert.True(t, math.IsInf(model.LB[1], -1))
	assert.True(t, math.IsInf(model.UB[1], 1))
	assert.Equal(t, "iter", model.Params["display"])

	// both sides of the ranged row 2 add up
	assert.InDeltaSlice(t, []float64{2, 0, 1, 5, 0}, res.Lambda.MuL, delta)
	assert.InDeltaSlice(t, []float64{0, 1, 0, 0, 0}, res.Lambda.MuU, delta)
}

func TestCPLEXExit(t *testing.T) {
	cases := map[int]int{
		CPXStatOptimal:       ExitOptimal,
		CPXMIPOptimalTol:     ExitOptimal,
		CPXStatAbortItLim:    ExitLimit,
		CPXMIPTimeLimFeas:    ExitLimit,
		CPXStatInfeasible:    ExitInfeasible,
		CPXMIPInfeasible:     ExitInfeasible,
		CPXStatUnbounded:     ExitUnbounded,
		CPXStatNumBest:       ExitNumerical,
		CPXMIPInfOrUnbd:      ExitInfeasibleOrUnbd,
		CPXStatOptimalInfeas: ExitNumerical,
		42:                   ExitFailed,
	}
	for status, expected := range cases {
		assert.Equal(t, expected, cplexExit(status), "status %d", status)
	}
}

func TestGLPKTranslation(t *testing.T) {
	engine := &fakeGLPK{sol: GLPKSolution{
		X:       []float64{2, 1e10},
		F:       4,
		Status:  GLPKStatusOptimal,
		RowDual: []float64{1, -2, 0, 3, 0},
		ColDual: []float64{0.5, -0.5},
	}}
	s, err := NewSolver(WithGLPK(engine))
	require.NoError(t, err)

	res, err := s.Solve(rows(), Options{Verbose: 1})
	require.NoError(t, err)

	prob := engine.calls[0]
	assert.Equal(t, []GLPKBound{GLPKLower, GLPKUpper, GLPKDouble, GLPKFixed, GLPKFree}, prob.RowKind)
	assert.Equal(t, []float64{1, 0, -3, 2, 0}, prob.RowLower)
	assert.Equal(t, []float64{0, 4, 5, 2, 0}, prob.RowUpper)
	assert.Equal(t, []GLPKBound{GLPKDouble, GLPKFree}, prob.ColKind)
	assert.Equal(t, []float64{0, 0}, prob.ColLower)
	assert.Equal(t, []float64{10, 0}, prob.ColUpper)
	assert.Equal(t, "CC", prob.VarType)
	assert.Equal(t, 1, prob.Params["msglev"])

	assert.Equal(t, ExitOptimal, res.ExitFlag)
	assert.Equal(t, "optimal", res.Output.Status)
	assert.Equal(t, GLPKStatusOptimal, res.Output.NativeCode)
	assert.InDeltaSlice(t, []float64{1, 0, 0, 3, 0}, res.Lambda.MuL, delta)
	assert.InDeltaSlice(t, []float64{0, 2, 0, 0, 0}, res.Lambda.MuU, delta)
	assert.InDeltaSlice(t, []float64{0.5, 0}, res.Lambda.Lower, delta)
	assert.InDeltaSlice(t, []float64{0, 0.5}, res.Lambda.Upper, delta)
}

func TestGLPKBinaryColumns(t *testing.T) {
	engine := &fakeGLPK{sol: GLPKSolution{X: []float64{1, 0}, Status: GLPKStatusOptimal}}
	s, err := NewSolver(WithGLPK(engine))
	require.NoError(t, err)

	res, err := s.Solve(Problem{
		C:     []float64{-1, -1},
		A:     mat.NewDense(1, 2, []float64{1, 1}),
		U:     []float64{1},
		VType: []VarType{Binary, Integer},
		XMax:  []float64{5, 5},
	}, Options{SkipPrices: true})
	require.NoError(t, err)

	prob := engine.calls[0]
	assert.Equal(t, "BI", prob.VarType)
	assert.Equal(t, []GLPKBound{GLPKDouble, GLPKUpper}, prob.ColKind)
	assert.Equal(t, []float64{0, 0}, prob.ColLower)
	assert.Equal(t, []float64{1, 5}, prob.ColUpper)

	assert.Equal(t, ExitOptimal, res.ExitFlag)
	assert.Nil(t, res.Output.PriceStage)
	assert.Equal(t, []float64{0}, res.Lambda.MuU)
}

func TestGLPKUnsupported(t *testing.T) {
	s, err := NewSolver(WithGLPK(&fakeGLPK{}))
	require.NoError(t, err)

	_, err = s.Solve(portfolio(), Options{Alg: AlgorithmName("GLPK")})
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Contains(t, err.Error(), "GLPK")

	_, err = s.Solve(Problem{
		C:     []float64{1},
		A:     mat.NewDense(1, 1, []float64{1}),
		L:     []float64{1},
		VType: []VarType{SemiContinuous},
	}, Options{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestGLPKExit(t *testing.T) {
	cases := []struct {
		errnum, status, expected int
	}{
		{0, GLPKStatusOptimal, ExitOptimal},
		{0, GLPKStatusFeasible, ExitLimit},
		{0, GLPKStatusNoFeasible, ExitInfeasible},
		{0, GLPKStatusUnbounded, ExitUnbounded},
		{0, GLPKStatusUndefined, ExitFailed},
		{int(GLPKErrIterLimit), GLPKStatusFeasible, ExitLimit},
		{int(GLPKErrNoPrimal), GLPKStatusUndefined, ExitInfeasible},
		{int(GLPKErrNoDual), GLPKStatusUndefined, ExitUnbounded},
		{int(GLPKErrSingular), GLPKStatusUndefined, ExitNumerical},
		{int(GLPKErrBound), GLPKStatusUndefined, ExitFailed},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, glpkExit(c.errnum, c.status), "errnum %d, status %d", c.errnum, c.status)
	}
}

func TestGLPKErrorMessage(t *testing.T) {
	engine := &fakeGLPK{sol: GLPKSolution{ErrNum: int(GLPKErrTimeLimit), Status: GLPKStatusFeasible}}
	s, err := NewSolver(WithGLPK(engine))
	require.NoError(t, err)

	res, err := s.Solve(rows(), Options{})
	require.NoError(t, err)
	assert.Equal(t, ExitLimit, res.ExitFlag)
	assert.Equal(t, "time limit exceeded", res.Output.Message)
	assert.Equal(t, int(GLPKErrTimeLimit), res.Output.Native["errnum"])
}

func TestGurobiTranslation(t *testing.T) {
	engine := &fakeGurobi{sol: GurobiSolution{
		Status: "OPTIMAL",
		X:      portfolioX,
		ObjVal: 3.29 / 3,
		// rows: row 0 (=), row 1 (>)
		Pi:        []float64{6.58 / 3, 0},
		RC:        []float64{2.24, 0, 0, 1.76666666666667},
		IterCount: 7,
	}}
	s, err := NewSolver(WithGurobi(engine))
	require.NoError(t, err)

	res, err := s.Solve(portfolio(), Options{Verbose: 1})
	require.NoError(t, err)

	model := engine.calls[0]
	assert.Equal(t, "=>", model.Sense)
	assert.Equal(t, []float64{1, 0.10}, model.RHS)
	assert.Equal(t, []float64{0.17, 0.11, 0.10, 0.18}, model.A.RawRowView(1))
	assert.InDelta(t, 1003.1/2, model.Q.At(0, 0), delta)
	assert.InDelta(t, 2.15, model.Q.At(0, 1), delta)
	assert.Equal(t, "CCCC", model.VType)
	assert.Equal(t, 1, model.Params["OutputFlag"])

	assert.Equal(t, ExitOptimal, res.ExitFlag)
	assert.Equal(t, Gurobi, res.Output.Alg)
	assert.Equal(t, "OPTIMAL", res.Output.Status)
	assert.Equal(t, 7, res.Output.Iterations)
	assert.InDeltaSlice(t, []float64{6.58 / 3, 0}, res.Lambda.MuL, delta)
	assert.InDeltaSlice(t, []float64{0, 0}, res.Lambda.MuU, delta)
	assert.InDeltaSlice(t, []float64{2.24, 0, 0, 1.76666666666667}, res.Lambda.Lower, delta)
}

func TestGurobiRanges(t *testing.T) {
	engine := &fakeGurobi{sol: GurobiSolution{
		Status: "OPTIMAL",
		// eq row 3, then row 1 (<), row 0 (>), row 2 (<), row 2 (>)
		Pi: []float64{1, -2, 3, -4, 5},
	}}
	s, err := NewSolver(WithGurobi(engine))
	require.NoError(t, err)

	res, err := s.Solve(rows(), Options{})
	require.NoError(t, err)

	model := engine.calls[0]
	assert.Equal(t, "=<><>", model.Sense)
	assert.Equal(t, []float64{2, 4, 1, 5, -3}, model.RHS)
	assert.Nil(t, model.Q)
	assert.Equal(t, 0, model.Params["OutputFlag"])

	assert.InDeltaSlice(t, []float64{3, 0, 1, 1, 0}, res.Lambda.MuL, delta)
	assert.InDeltaSlice(t, []float64{0, 2, 0, 0, 0}, res.Lambda.MuU, delta)
}

func TestGurobiExit(t *testing.T) {
	cases := map[string]int{
		"OPTIMAL":         ExitOptimal,
		"TIME_LIMIT":      ExitLimit,
		"SUBOPTIMAL":      ExitLimit,
		"INFEASIBLE":      ExitInfeasible,
		"UNBOUNDED":       ExitUnbounded,
		"NUMERIC":         ExitNumerical,
		"INF_OR_UNBD":     ExitInfeasibleOrUnbd,
		"LOADED":          ExitFailed,
		"something weird": ExitFailed,
	}
	for status, expected := range cases {
		assert.Equal(t, expected, gurobiExit(status), status)
	}
}

func TestMosekTranslation(t *testing.T) {
	engine := &fakeMosek{sol: MosekSolution{
		RCode:  "MSK_RES_OK",
		ProSta: "PRIMAL_AND_DUAL_FEASIBLE",
		SolSta: "OPTIMAL",
		XX:     portfolioX,
		PObj:   3.29 / 3,
		SLC:    []float64{6.58 / 3, 0},
		SUC:    []float64{0, 0},
		SLX:    []float64{2.24, 0, 0, 1.76666666666667},
		SUX:    []float64{0, 0, 0, 0},
	}}
	s, err := NewSolver(WithMosek(engine))
	require.NoError(t, err)

	res, err := s.Solve(portfolio(), Options{Alg: AlgorithmCode(600)})
	require.NoError(t, err)

	task := engine.calls[0]
	assert.Equal(t, []MosekBound{MosekFX, MosekLO}, task.BKC)
	assert.Equal(t, []float64{1, 0.10}, task.BLC)
	assert.True(t, math.IsInf(task.BUC[1], 1))
	assert.Equal(t, []MosekBound{MosekLO, MosekLO, MosekLO, MosekLO}, task.BKX)
	assert.Len(t, task.QVal, 10)
	assert.Equal(t, []int{0, 1, 1}, task.QSubI[:3])
	assert.Equal(t, []int{0, 0, 1}, task.QSubJ[:3])
	assert.Nil(t, task.IntSub)
	assert.Equal(t, 0, task.Params["verbose"])

	assert.Equal(t, ExitOptimal, res.ExitFlag)
	assert.Equal(t, Mosek, res.Output.Alg)
	assert.Equal(t, "OPTIMAL", res.Output.Status)
	assert.Equal(t, "MSK_RES_OK", res.Output.Native["rcode"])
	assert.InDeltaSlice(t, []float64{6.58 / 3, 0}, res.Lambda.MuL, delta)
	assert.InDeltaSlice(t, []float64{2.24, 0, 0, 1.76666666666667}, res.Lambda.Lower, delta)
	assert.InDeltaSlice(t, []float64{0, 0, 0, 0}, res.Lambda.Upper, delta)
}

func TestMosekIntegers(t *testing.T) {
	engine := &fakeMosek{sol: MosekSolution{RCode: "MSK_RES_TRM_MAX_TIME", SolSta: "UNKNOWN"}}
	s, err := NewSolver(WithMosek(engine))
	require.NoError(t, err)

	res, err := s.Solve(Problem{
		C:     []float64{1, 1, 1},
		A:     mat.NewDense(1, 3, []float64{1, 1, 1}),
		L:     []float64{1},
		VType: []VarType{Continuous, Binary, Integer},
	}, Options{Verbose: 5})
	require.NoError(t, err)

	task := engine.calls[0]
	assert.Equal(t, []int{1, 2}, task.IntSub)
	assert.Equal(t, []MosekBound{MosekFR, MosekRA, MosekFR}, task.BKX)
	assert.Equal(t, 2, task.Params["verbose"])

	assert.Equal(t, ExitLimit, res.ExitFlag)
	assert.Nil(t, res.Output.PriceStage)
}

func TestMosekExit(t *testing.T) {
	cases := []struct {
		rcode, solsta string
		expected      int
	}{
		{"MSK_RES_OK", "OPTIMAL", ExitOptimal},
		{"MSK_RES_OK", "INTEGER_OPTIMAL", ExitOptimal},
		{"MSK_RES_OK", "PRIM_INFEAS_CER", ExitInfeasible},
		{"MSK_RES_OK", "DUAL_INFEAS_CER", ExitUnbounded},
		{"MSK_RES_OK", "NEAR_OPTIMAL", ExitLimit},
		{"MSK_RES_TRM_MAX_ITERATIONS", "UNKNOWN", ExitLimit},
		{"MSK_RES_ERR_LICENSE", "UNKNOWN", ExitFailed},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, mosekExit(c.rcode, c.solsta), "%s %s", c.rcode, c.solsta)
	}
}

func TestOTRouting(t *testing.T) {
	lp := &fakeOT{sols: []OTSolution{{ExitFlag: 1, Output: OTOutput{Algorithm: "simplex"}}}}
	s, err := NewSolver(WithOT(lp))
	require.NoError(t, err)

	_, err = s.Solve(rows(), Options{})
	require.NoError(t, err)
	_, err = s.Solve(portfolio(), Options{Alg: AlgorithmName("OT")})
	require.NoError(t, err)
	_, err = s.Solve(Problem{
		C:     []float64{1},
		A:     mat.NewDense(1, 1, []float64{1}),
		L:     []float64{1},
		VType: []VarType{Integer},
	}, Options{SkipPrices: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"linprog", "quadprog", "intlinprog"}, lp.funcs)
	assert.Equal(t, []int{0}, lp.calls[2].IntCon)
	assert.Equal(t, "off", lp.calls[0].Options["Display"])

	_, err = s.Solve(Problem{
		H:     mat.NewDense(1, 1, []float64{1}),
		C:     []float64{1},
		A:     mat.NewDense(1, 1, []float64{1}),
		L:     []float64{1},
		VType: []VarType{Integer},
	}, Options{Alg: AlgorithmName("OT")})
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Len(t, lp.calls, 3)
}

func TestOTTranslation(t *testing.T) {
	engine := &fakeOT{sols: []OTSolution{{
		X:        []float64{1, 2},
		FVal:     5,
		ExitFlag: 1,
		Output:   OTOutput{Algorithm: "simplex", Iterations: 3, Message: "done"},
		Lambda: &OTLambda{
			// row 1 upper, row 0 lower, row 2 upper, row 2 lower
			Ineqlin: []float64{1, 2, 3, 4},
			Eqlin:   []float64{-5},
			Lower:   []float64{6, 0},
			Upper:   []float64{0, 7},
		},
	}}}
	s, err := NewSolver(WithOT(engine))
	require.NoError(t, err)

	res, err := s.Solve(rows(), Options{Verbose: 1, Backend: map[Backend]interface{}{
		OT: OTOptions{"MaxNodes": 10},
	}})
	require.NoError(t, err)

	prob := engine.calls[0]
	assert.Equal(t, []float64{4, -1, 5, 3}, prob.Bineq)
	assert.Equal(t, []float64{2}, prob.Beq)
	assert.Nil(t, prob.H)
	assert.Equal(t, "final", prob.Options["Display"])
	assert.Equal(t, 10, prob.Options["MaxNodes"])
	assert.True(t, math.IsInf(prob.UB[1], 1))

	assert.Equal(t, ExitOptimal, res.ExitFlag)
	assert.Equal(t, "simplex", res.Output.Status)
	assert.Equal(t, 3, res.Output.Iterations)
	assert.Equal(t, "done", res.Output.Message)
	assert.InDeltaSlice(t, []float64{2, 0, 1, 5, 0}, res.Lambda.MuL, delta)
	assert.InDeltaSlice(t, []float64{0, 1, 0, 0, 0}, res.Lambda.MuU, delta)
	assert.InDeltaSlice(t, []float64{6, 0}, res.Lambda.Lower, delta)
	assert.InDeltaSlice(t, []float64{0, 7}, res.Lambda.Upper, delta)
}

func TestOTExit(t *testing.T) {
	assert.Equal(t, ExitOptimal, otExit(1, false))
	assert.Equal(t, ExitInfeasibleOrUnbd, otExit(-5, false))
	assert.Equal(t, ExitNumerical, otExit(-7, false))
	assert.Equal(t, ExitFailed, otExit(-9, false))
	assert.Equal(t, ExitOptimal, otExit(1, true))
	assert.Equal(t, ExitLimit, otExit(2, true))
	assert.Equal(t, ExitLimit, otExit(3, true))
	assert.Equal(t, ExitInfeasible, otExit(-2, true))
	assert.Equal(t, ExitFailed, otExit(-9, true))
}

func TestEngineErrorIsFailedSolve(t *testing.T) {
	s, err := NewSolver(
		WithCPLEX(&fakeCPLEX{err: errors.New("license expired")}),
	)
	require.NoError(t, err)

	res, err := s.Solve(rows(), Options{})
	require.NoError(t, err)

	assert.Equal(t, ExitFailed, res.ExitFlag)
	assert.Equal(t, "license expired", res.Output.Message)
	assert.Equal(t, CPLEX, res.Output.Alg)
	assert.Len(t, res.X, 2)
	assert.Len(t, res.Lambda.MuL, 5)
	assert.Len(t, res.Lambda.Upper, 2)
}

func TestMissingMultipliersAreZero(t *testing.T) {
	s, err := NewSolver(WithGurobi(&fakeGurobi{sol: GurobiSolution{Status: "OPTIMAL", X: []float64{1, 1}}}))
	require.NoError(t, err)

	res, err := s.Solve(rows(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0, 0, 0, 0}, res.Lambda.MuL)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, res.Lambda.MuU)
	assert.Equal(t, []float64{0, 0}, res.Lambda.Lower)
	assert.Equal(t, []float64{0, 0}, res.Lambda.Upper)
}

func TestNilEngine(t *testing.T) {
	_, err := NewSolver(WithCPLEX(nil))
	assert.Error(t, err)

	_, err = NewSolver(WithLogger(nil))
	assert.Error(t, err)
}
