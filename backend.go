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
	"strconv"

	"github.com/pkg/errors"
)

// Backend identifies a solver engine. Default is only meaningful as a
// request; a resolved backend is always one of the concrete values.
type Backend int

const (
	Default Backend = iota
	CPLEX
	GLPK
	Gurobi
	Mosek
	OT
)

var backendNames = [...]string{
	Default: "DEFAULT",
	CPLEX:   "CPLEX",
	GLPK:    "GLPK",
	Gurobi:  "GUROBI",
	Mosek:   "MOSEK",
	OT:      "OT",
}

// legacyCodes maps the numeric algorithm codes of older callers.
var legacyCodes = map[int]Backend{
	0:   Default,
	300: OT,
	500: CPLEX,
	600: Mosek,
	700: Gurobi,
}

func (b Backend) String() string {
	if b < 0 || int(b) >= len(backendNames) {
		return "Backend(" + strconv.Itoa(int(b)) + ")"
	}
	return backendNames[b]
}

// ParseBackend returns the backend with the given name. Names are matched
// exactly: "DEFAULT", "CPLEX", "GLPK", "GUROBI", "MOSEK" or "OT".
func ParseBackend(name string) (Backend, error) {
	for b, n := range backendNames {
		if n == name {
			return Backend(b), nil
		}
	}
	return Default, errors.Wrapf(ErrInvalidAlgorithm, "unknown algorithm %q", name)
}

// Algorithm is a caller's backend request, either by name or by legacy
// numeric code. The zero value requests automatic selection.
type Algorithm struct {
	name   string
	code   int
	isCode bool
}

// AlgorithmName requests a backend by name, see ParseBackend.
func AlgorithmName(name string) Algorithm {
	return Algorithm{name: name}
}

// AlgorithmCode requests a backend by legacy numeric code: 0 (DEFAULT),
// 300 (OT), 500 (CPLEX), 600 (MOSEK) or 700 (GUROBI).
func AlgorithmCode(code int) Algorithm {
	return Algorithm{code: code, isCode: true}
}

func (a Algorithm) String() string {
	switch {
	case a.isCode:
		return strconv.Itoa(a.code)
	case a.name == "":
		return Default.String()
	default:
		return a.name
	}
}

// resolve translates the request into a backend identity. This is the only
// place legacy codes are understood.
func (a Algorithm) resolve() (Backend, error) {
	if a.isCode {
		b, ok := legacyCodes[a.code]
		if !ok {
			return Default, errors.Wrapf(ErrInvalidAlgorithm, "unknown algorithm code %d", a.code)
		}
		return b, nil
	}
	if a.name == "" {
		return Default, nil
	}
	return ParseBackend(a.name)
}
