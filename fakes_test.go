package miqps

import (
	"github.com/pkg/errors"
)

// The fakes record the native problem they were given and answer with a
// canned solution, or with err when set.

type fakeCPLEX struct {
	calls []*CPLEXModel
	sol   CPLEXSolution
	err   error
}

func (f *fakeCPLEX) Solve(m *CPLEXModel) (*CPLEXSolution, error) {
	f.calls = append(f.calls, m)
	if f.err != nil {
		return nil, f.err
	}
	sol := f.sol
	return &sol, nil
}

type fakeGLPK struct {
	calls []*GLPKProblem
	sol   GLPKSolution
	err   error
}

func (f *fakeGLPK) Solve(p *GLPKProblem) (*GLPKSolution, error) {
	f.calls = append(f.calls, p)
	if f.err != nil {
		return nil, f.err
	}
	sol := f.sol
	return &sol, nil
}

type fakeGurobi struct {
	calls []*GurobiModel
	sol   GurobiSolution
	err   error
}

func (f *fakeGurobi) Optimize(m *GurobiModel) (*GurobiSolution, error) {
	f.calls = append(f.calls, m)
	if f.err != nil {
		return nil, f.err
	}
	sol := f.sol
	return &sol, nil
}

type fakeMosek struct {
	calls []*MosekTask
	sol   MosekSolution
	err   error
}

func (f *fakeMosek) Optimize(t *MosekTask) (*MosekSolution, error) {
	f.calls = append(f.calls, t)
	if f.err != nil {
		return nil, f.err
	}
	sol := f.sol
	return &sol, nil
}

// fakeOT answers every call with the next of its solutions, repeating the
// last one.
type fakeOT struct {
	calls []*OTProblem
	funcs []string
	sols  []OTSolution
	err   error
}

func (f *fakeOT) answer(name string, p *OTProblem) (*OTSolution, error) {
	f.calls = append(f.calls, p)
	f.funcs = append(f.funcs, name)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.sols) == 0 {
		return nil, errors.New("no canned solution")
	}
	i := len(f.calls) - 1
	if i >= len(f.sols) {
		i = len(f.sols) - 1
	}
	sol := f.sols[i]
	return &sol, nil
}

func (f *fakeOT) Linprog(p *OTProblem) (*OTSolution, error) {
	return f.answer("linprog", p)
}

func (f *fakeOT) Quadprog(p *OTProblem) (*OTSolution, error) {
	return f.answer("quadprog", p)
}

func (f *fakeOT) Intlinprog(p *OTProblem) (*OTSolution, error) {
	return f.answer("intlinprog", p)
}

// recordingLogger collects everything printed to it.
type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Print(v ...interface{}) {
	for _, s := range v {
		if str, ok := s.(string); ok {
			l.lines = append(l.lines, str)
		}
	}
}
