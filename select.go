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

package miqps

import (
	"strings"

	"github.com/pkg/errors"
)

// Automatic selection tries quadraticOrder first, then linearOrder if the
// problem has no quadratic term.
var (
	quadraticOrder = []Backend{CPLEX, Mosek, Gurobi}
	linearOrder    = []Backend{OT, GLPK}
)

// Available reports whether backend b has a registered engine and passes the
// solver's probe.
func (s *Solver) Available(b Backend) bool {
	if _, ok := s.adapters[b]; !ok {
		return false
	}
	return s.probe == nil || s.probe.Available(b)
}

// selectBackend resolves alg to the concrete backend that will solve p. An
// explicit request never falls back to another backend.
func (s *Solver) selectBackend(alg Algorithm, p *Problem) (Backend, error) {
	b, err := alg.resolve()
	if err != nil {
		return Default, err
	}

	if b != Default {
		if !s.Available(b) {
			return Default, errors.Wrapf(ErrSolverUnavailable, "%s requested by algorithm %s", b, alg)
		}
		return b, nil
	}

	for _, b := range quadraticOrder {
		if s.Available(b) {
			return b, nil
		}
	}
	if p.quadratic() {
		return Default, errors.Wrapf(ErrNoSolver, "quadratic problem needs one of %s, none is available (%s cannot solve it)",
			names(quadraticOrder), names(linearOrder))
	}
	for _, b := range linearOrder {
		if s.Available(b) {
			return b, nil
		}
	}

	return Default, errors.Wrapf(ErrNoSolver, "none of %s, %s is available", names(quadraticOrder), names(linearOrder))
}

func names(backends []Backend) string {
	out := make([]string, len(backends))
	for i, b := range backends {
		out[i] = b.String()
	}
	return strings.Join(out, ", ")
}
