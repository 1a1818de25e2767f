package miqps

import "github.com/pkg/errors"

type Option func(*Solver) error

func WithLogger(logger Logger) Option {
	return func(s *Solver) error {
		if logger == nil {
			return errors.New("nil logger")
		}
		s.logger = logger

		return nil
	}
}

// WithProbe narrows backend availability beyond engine registration, e.g.
// to reflect license checks. A backend is available only if an engine is
// registered for it and the probe reports it available.
func WithProbe(probe Probe) Option {
	return func(s *Solver) error {
		s.probe = probe

		return nil
	}
}

func WithCPLEX(engine CPLEXEngine) Option {
	return func(s *Solver) error {
		return s.register(CPLEX, engine != nil, cplexAdapter{engine})
	}
}

func WithGLPK(engine GLPKEngine) Option {
	return func(s *Solver) error {
		return s.register(GLPK, engine != nil, glpkAdapter{engine})
	}
}

func WithGurobi(engine GurobiEngine) Option {
	return func(s *Solver) error {
		return s.register(Gurobi, engine != nil, gurobiAdapter{engine})
	}
}

func WithMosek(engine MosekEngine) Option {
	return func(s *Solver) error {
		return s.register(Mosek, engine != nil, mosekAdapter{engine})
	}
}

func WithOT(engine OTEngine) Option {
	return func(s *Solver) error {
		return s.register(OT, engine != nil, otAdapter{engine})
	}
}
